// Package xgboost runs inference on XGBoost models saved in the binary
// format. Each model file has a sidecar "<model>.features" listing its input
// columns one per line, in training order.
package xgboost

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dmitryikh/leaves"
)

const featuresExt = ".features"

var ErrFeatureMismatch = errors.New("feature vector does not match model")

type ensemble interface {
	NFeatures() int
	PredictSingle(fvals []float64, nEstimators int) float64
}

type Model struct {
	name     string
	ensemble ensemble
	features []string
}

// Load reads an XGBoost model from path. The logistic transformation is
// applied, so binary classifiers return probabilities.
func Load(name, path string) (*Model, error) {
	booster, err := leaves.XGEnsembleFromFile(path, true)
	if err != nil {
		return nil, errors.Wrapf(err, "load xgboost model %s", filepath.Base(path))
	}
	features, err := readFeatureNames(SidecarPath(path))
	if err != nil {
		return nil, err
	}
	return newModel(name, booster, features)
}

func newModel(name string, booster ensemble, features []string) (*Model, error) {
	if len(features) < booster.NFeatures() {
		return nil, errors.Wrapf(ErrFeatureMismatch, "model %s uses %d features but %d are named", name, booster.NFeatures(), len(features))
	}
	return &Model{name: name, ensemble: booster, features: features}, nil
}

// SidecarPath is the feature list location for a model file.
func SidecarPath(modelPath string) string {
	return strings.TrimSuffix(modelPath, filepath.Ext(modelPath)) + featuresExt
}

func (m *Model) Name() string {
	return m.name
}

func (m *Model) FeatureNames() []string {
	return slices.Clone(m.features)
}

// Predict scores each row. NaN cells follow the trees' missing-value branch.
func (m *Model) Predict(ctx context.Context, rows [][]float64) ([]float64, error) {
	out := make([]float64, len(rows))
	used := m.ensemble.NFeatures()
	for i, row := range rows {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if len(row) != len(m.features) {
			return nil, errors.Wrapf(ErrFeatureMismatch, "row %d has %d values, model %s expects %d", i, len(row), m.name, len(m.features))
		}
		out[i] = m.ensemble.PredictSingle(row[:used], 0)
	}
	return out, nil
}

func readFeatureNames(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open feature list %s", filepath.Base(path))
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "read feature list %s", filepath.Base(path))
	}
	if len(names) == 0 {
		return nil, errors.Newf("feature list %s is empty", filepath.Base(path))
	}
	return names, nil
}
