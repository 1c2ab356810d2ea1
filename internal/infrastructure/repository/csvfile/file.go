// Package csvfile stores datasets, venues and predictions as CSV files in a
// single directory, one file per dataset.
package csvfile

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

const fileExt = ".csv"

var errInvalidName = errors.New("invalid dataset name")

func datasetPath(dir, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", errors.Wrapf(errInvalidName, "%q", name)
	}
	return filepath.Join(dir, name+fileExt), nil
}

// writeFile replaces path through a temp file in the same directory so
// readers never see a partial file.
func writeFile(path string, write func(f *os.File) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create dataset dir")
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "replace %s", filepath.Base(path))
	}
	return nil
}
