package model

import "fmt"

// Scaler applies the mean/variance normalization fit at training time.
// Serving must run incoming vectors through the same transform or the
// ensemble sees inputs on the wrong scale.
type Scaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// Transform standardizes a row in place-order: (x - mean) / std. Features
// with zero variance pass through shifted only.
func (s *Scaler) Transform(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		std := s.Std[i]
		if std == 0 {
			std = 1
		}
		out[i] = (v - s.Mean[i]) / std
	}
	return out
}

func (s *Scaler) validate(dim int) error {
	if len(s.Mean) != dim || len(s.Std) != dim {
		return fmt.Errorf("scaler has %d/%d parameters, vector has %d fields",
			len(s.Mean), len(s.Std), dim)
	}
	for i, std := range s.Std {
		if std < 0 {
			return fmt.Errorf("scaler std[%d] is negative", i)
		}
	}
	return nil
}
