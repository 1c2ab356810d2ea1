package postgres

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/lib/pq"
)

const (
	pqProtocolViolation     = pq.ErrorCode("08P01")
	pqInvalidStatementName  = pq.ErrorCode("26000")
	maxStatementRetryPasses = 2
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func pqCode(err error) (pq.ErrorCode, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code, true
	}
	return "", false
}

// isBindParameterMismatch reports the error a transaction pooler returns when
// a cached unnamed statement is reused with a different argument count.
func isBindParameterMismatch(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "bind message supplies") || !strings.Contains(msg, "requires") {
		return false
	}
	code, ok := pqCode(err)
	return !ok || code == pqProtocolViolation
}

func isUnnamedPreparedStatementMissing(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := pqCode(err); ok && code == pqInvalidStatementName {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unnamed prepared statement does not exist") ||
		(strings.Contains(msg, "prepared statement") && strings.Contains(msg, "26000"))
}

// retryablePooledStatement is true for statement errors that succeed when the
// query is sent again on a fresh server connection.
func retryablePooledStatement(err error) bool {
	return isBindParameterMismatch(err) || isUnnamedPreparedStatementMissing(err)
}

func nullableFloat(v sql.NullFloat64) (float64, bool) {
	return v.Float64, v.Valid
}

// withStatementRetry reruns read-only fn once after a pooled statement error.
func withStatementRetry(fn func() error) error {
	var err error
	for pass := 0; pass < maxStatementRetryPasses; pass++ {
		if err = fn(); !retryablePooledStatement(err) {
			return err
		}
	}
	return err
}
