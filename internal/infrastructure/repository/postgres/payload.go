package postgres

import (
	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"

	"github.com/riskibarqy/afl-match-model/internal/domain/dataset"
)

// encodePayload renders row as a JSON object. Null cells are kept so a
// JSONB merge clears stale values.
func encodePayload(row dataset.Row) (string, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := sonic.ConfigDefault.NewEncoder(buf).Encode(row); err != nil {
		return "", errors.Wrap(err, "encode row payload")
	}
	return string(buf.B), nil
}

func decodePayload(raw []byte) (dataset.Row, error) {
	row := dataset.Row{}
	if len(raw) == 0 {
		return row, nil
	}
	if err := sonic.Unmarshal(raw, &row); err != nil {
		return nil, errors.Wrap(err, "decode row payload")
	}
	return row, nil
}

func encodeColumns(columns []string) (string, error) {
	out, err := sonic.MarshalString(columns)
	if err != nil {
		return "", errors.Wrap(err, "encode dataset columns")
	}
	return out, nil
}

func decodeColumns(raw []byte) ([]string, error) {
	var columns []string
	if len(raw) == 0 {
		return columns, nil
	}
	if err := sonic.Unmarshal(raw, &columns); err != nil {
		return nil, errors.Wrap(err, "decode dataset columns")
	}
	return columns, nil
}
