package prediction

import "context"

// Model is a trained artifact used for inference only. Rows follow
// FeatureNames order and carry NaN for missing values.
type Model interface {
	Name() string
	FeatureNames() []string
	Predict(ctx context.Context, rows [][]float64) ([]float64, error)
}

type Repository interface {
	UpsertOutcomes(ctx context.Context, items []Outcome) error
	UpsertMargins(ctx context.Context, items []Margin) error
}
