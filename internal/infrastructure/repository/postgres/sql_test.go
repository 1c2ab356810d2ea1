package postgres

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestIsBindParameterMismatch(t *testing.T) {
	t.Run("matches bind mismatch error", func(t *testing.T) {
		err := fakeErr("pq: bind message supplies 2 parameters, but prepared statement \"\" requires 1 (08P01)")
		if !isBindParameterMismatch(err) {
			t.Fatalf("expected true for bind mismatch error")
		}
	})

	t.Run("ignores unrelated error", func(t *testing.T) {
		err := fakeErr("pq: relation dataset_rows does not exist")
		if isBindParameterMismatch(err) {
			t.Fatalf("expected false for unrelated error")
		}
	})
}

func TestIsUnnamedPreparedStatementMissing(t *testing.T) {
	t.Run("matches statement missing message", func(t *testing.T) {
		err := fakeErr("pq: unnamed prepared statement does not exist (26000)")
		if !isUnnamedPreparedStatementMissing(err) {
			t.Fatalf("expected true for statement missing error")
		}
	})

	t.Run("matches by 26000 code", func(t *testing.T) {
		err := fakeErr("pq: prepared statement missing (26000)")
		if !isUnnamedPreparedStatementMissing(err) {
			t.Fatalf("expected true for 26000 prepared statement error")
		}
	})

	t.Run("ignores unrelated error", func(t *testing.T) {
		err := fakeErr("pq: relation dataset_rows does not exist")
		if isUnnamedPreparedStatementMissing(err) {
			t.Fatalf("expected false for unrelated error")
		}
	})
}

func TestIsNotFound(t *testing.T) {
	if !isNotFound(fmt.Errorf("get dataset: %w", sql.ErrNoRows)) {
		t.Fatalf("expected wrapped ErrNoRows to match")
	}
	if isNotFound(fakeErr("pq: connection refused")) {
		t.Fatalf("expected false for unrelated error")
	}
}

func TestPQErrorCodes(t *testing.T) {
	missing := fmt.Errorf("load dataset: %w", &pq.Error{Code: "26000", Message: "statement gone"})
	if !retryablePooledStatement(missing) {
		t.Fatalf("expected invalid statement name to be retryable")
	}

	syntax := &pq.Error{Code: "42601", Message: "bind message supplies 2 parameters, but prepared statement requires 1"}
	if isBindParameterMismatch(syntax) {
		t.Fatalf("expected a non protocol error code to be ignored")
	}
}

func TestWithStatementRetry(t *testing.T) {
	calls := 0
	err := withStatementRetry(func() error {
		calls++
		if calls == 1 {
			return fakeErr("pq: unnamed prepared statement does not exist")
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Fatalf("expected one retry, got calls=%d err=%v", calls, err)
	}

	calls = 0
	err = withStatementRetry(func() error {
		calls++
		return fakeErr("pq: relation venues does not exist")
	})
	if err == nil || calls != 1 {
		t.Fatalf("expected no retry for unrelated error, got calls=%d", calls)
	}
}

func TestLatestByMatch(t *testing.T) {
	type item struct{ id, v string }
	got := latestByMatch([]item{{"a", "1"}, {"b", "1"}, {"a", "2"}}, func(i item) string { return i.id })
	if len(got) != 2 || got[0].v != "2" || got[1].id != "b" {
		t.Fatalf("unexpected dedupe result: %+v", got)
	}
}

type fakeErr string

func (e fakeErr) Error() string { return string(e) }
