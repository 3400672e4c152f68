// Package lda is a frozen, pre-trained linear discriminant. It only scores
// feature vectors; there is no training here.
package lda

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/pelletier/go-toml/v2"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

//go:embed default_model.toml
var defaultModel []byte

// Model is a binary linear discriminant: the decision value of a
// feature vector x is dot(Coef, x) + Intercept.
type Model struct {
	// Coef has one weight per feature
	Coef []float64 `toml:"coef"`

	// Intercept is added to every decision value
	Intercept float64 `toml:"intercept"`

	// Classes are the negative and positive class labels
	Classes []int `toml:"classes"`
}

// Default returns the model the probe filter was trained with. Its features are
// k-mer (k = 1..4) counts of two sequences followed by their alignment score.
func Default() (*Model, error) {
	m, err := decode(bytes.NewReader(defaultModel))
	if err != nil {
		return nil, fmt.Errorf("failed to decode the embedded model: %w", err)
	}
	return m, nil
}

// Load reads a model from a TOML file with "coef", "intercept" and
// "classes" keys.
func Load(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model file: %w", err)
	}
	defer f.Close()

	m, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode model %s: %w", path, err)
	}
	return m, nil
}

func decode(r io.Reader) (*Model, error) {
	var m Model
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&m); err != nil {
		return nil, err
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// validate checks that the model can score pairs of sequences plus one score
func (m *Model) validate() error {
	if len(m.Coef) == 0 {
		return errors.New("model has no coefficients")
	}
	if len(m.Coef)%2 == 0 {
		return fmt.Errorf("model has %d coefficients, expected two feature blocks and a score", len(m.Coef))
	}
	if len(m.Classes) != 2 {
		return fmt.Errorf("model has %d classes, expected 2", len(m.Classes))
	}
	for i, c := range m.Coef {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("coefficient %d is not finite", i)
		}
	}
	return nil
}

// FeatureWidth is the number of features per sequence.
func (m *Model) FeatureWidth() int {
	return (len(m.Coef) - 1) / 2
}

// Decision returns the decision value of a single feature vector.
func (m *Model) Decision(x []float64) (float64, error) {
	if len(x) != len(m.Coef) {
		return 0, fmt.Errorf("feature vector has %d values, model expects %d", len(x), len(m.Coef))
	}
	return floats.Dot(m.Coef, x) + m.Intercept, nil
}

// DecisionFunction returns the decision value of every row of X.
func (m *Model) DecisionFunction(X *mat.Dense) ([]float64, error) {
	rows, cols := X.Dims()
	if cols != len(m.Coef) {
		return nil, fmt.Errorf("feature matrix has %d columns, model expects %d", cols, len(m.Coef))
	}

	var y mat.VecDense
	y.MulVec(X, mat.NewVecDense(len(m.Coef), m.Coef))

	values := make([]float64, rows)
	for i := range values {
		values[i] = y.AtVec(i) + m.Intercept
	}
	return values, nil
}

// Predict returns the class label of a feature vector: the positive class
// when the decision value is above zero.
func (m *Model) Predict(x []float64) (int, error) {
	d, err := m.Decision(x)
	if err != nil {
		return 0, err
	}
	if d > 0 {
		return m.Classes[1], nil
	}
	return m.Classes[0], nil
}
