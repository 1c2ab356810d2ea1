package rolling

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

type Kind string

const (
	KindMean Kind = "mean"
	KindEWM  Kind = "ewm"
	KindStd  Kind = "std"
	KindLag  Kind = "lag"
)

// Window describes one trailing statistic. Span is the EWM span, the mean/std
// window length or the lag distance. Lookback caps how many past values an EWM
// sees; zero means the whole history. MinPeriods is the number of past
// observations required before a value is produced.
type Window struct {
	Kind       Kind
	Span       int
	Lookback   int
	MinPeriods int
}

func EWM(span int) Window { return Window{Kind: KindEWM, Span: span} }
func Mean(n int) Window { return Window{Kind: KindMean, Span: n} }
func Std(n int) Window { return Window{Kind: KindStd, Span: n} }
func Lag(n int) Window { return Window{Kind: KindLag, Span: n} }

func (w Window) Validate() error {
	switch w.Kind {
	case KindMean, KindEWM, KindStd, KindLag:
	default:
		return fmt.Errorf("unknown window kind %q", w.Kind)
	}
	if w.Span < 1 {
		return fmt.Errorf("%s window span must be >= 1, got %d", w.Kind, w.Span)
	}
	if w.Lookback < 0 {
		return fmt.Errorf("%s window lookback must be >= 0, got %d", w.Kind, w.Lookback)
	}
	if w.MinPeriods < 0 {
		return fmt.Errorf("%s window min periods must be >= 0, got %d", w.Kind, w.MinPeriods)
	}
	return nil
}

// Suffix is the column suffix, e.g. ewm5, mean10 or ewm5_l20 when a lookback is set.
func (w Window) Suffix() string {
	suffix := string(w.Kind) + strconv.Itoa(w.Span)
	if w.Kind == KindEWM && w.Lookback > 0 {
		suffix += "_l" + strconv.Itoa(w.Lookback)
	}
	return suffix
}

// ParseWindow is the inverse of Suffix.
func ParseWindow(raw string) (Window, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	lookback := 0
	if head, tail, ok := strings.Cut(value, "_l"); ok {
		n, err := strconv.Atoi(tail)
		if err != nil {
			return Window{}, fmt.Errorf("invalid window lookback in %q", raw)
		}
		value, lookback = head, n
	}

	for _, kind := range []Kind{KindMean, KindEWM, KindStd, KindLag} {
		rest, ok := strings.CutPrefix(value, string(kind))
		if !ok {
			continue
		}
		span, err := strconv.Atoi(rest)
		if err != nil {
			return Window{}, fmt.Errorf("invalid window span in %q", raw)
		}
		w := Window{Kind: kind, Span: span, Lookback: lookback}
		if err := w.Validate(); err != nil {
			return Window{}, err
		}
		if lookback > 0 && kind != KindEWM {
			return Window{}, fmt.Errorf("lookback only applies to ewm windows, got %q", raw)
		}
		return w, nil
	}
	return Window{}, fmt.Errorf("unknown window %q", raw)
}

func (w Window) minPeriods() int {
	switch {
	case w.Kind == KindLag:
		return w.Span
	case w.MinPeriods > 0:
		if w.Kind == KindStd && w.MinPeriods < 2 {
			return 2
		}
		return w.MinPeriods
	case w.Kind == KindStd:
		return 2
	default:
		return 1
	}
}

// apply evaluates the window over history, which holds strictly earlier
// observations ordered oldest first.
func (w Window) apply(history []float64) (float64, bool) {
	n := len(history)
	if n == 0 || n < w.minPeriods() {
		return 0, false
	}

	switch w.Kind {
	case KindMean:
		return stat.Mean(tail(history, w.Span), nil), true
	case KindStd:
		values := tail(history, w.Span)
		if len(values) < 2 {
			return 0, false
		}
		return stat.StdDev(values, nil), true
	case KindLag:
		return history[n-w.Span], true
	case KindEWM:
		values := history
		if w.Lookback > 0 {
			values = tail(history, w.Lookback)
		}
		return stat.Mean(values, ewmWeights(w.Span, len(values))), true
	default:
		return 0, false
	}
}

// ewmWeights returns (1-alpha)^lag for n values ordered oldest first, so the
// most recent value carries weight 1. stat.Mean normalises them.
func ewmWeights(span, n int) []float64 {
	alpha := 2 / (float64(span) + 1)
	decay := 1 - alpha
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = math.Pow(decay, float64(n-1-i))
	}
	return weights
}

func tail(values []float64, n int) []float64 {
	if n <= 0 || n >= len(values) {
		return values
	}
	return values[len(values)-n:]
}
