// Package artifact loads and evaluates the fitted linear regression model.
//
// The artifact is a JSON file produced at training time holding the model
// coefficients, the intercept, the exact column order the model was fit
// with, and the standard scaler parameters for the numeric columns. It is
// immutable for the process lifetime and safe to share across goroutines.
package artifact

import (
	"fmt"
	"math"
	"strings"
)

// Scaler holds standard-scaler parameters for the numeric columns:
// scaled = (x - mean) / scale.
type Scaler struct {
	Columns []string  `json:"columns"`
	Mean    []float64 `json:"mean"`
	Scale   []float64 `json:"scale"`
}

// Model is the deserialized regression artifact.
type Model struct {
	Columns      []string  `json:"columns"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	Scaler       Scaler    `json:"scaler"`

	columnIndex map[string]int
	scalerIndex map[string]int
}

// Validate checks the artifact for internal consistency. Any failure here
// means the artifact file is corrupt and the process must not serve.
func (m *Model) Validate() error {
	if len(m.Columns) == 0 {
		return fmt.Errorf("artifact has no columns")
	}
	if len(m.Coefficients) != len(m.Columns) {
		return fmt.Errorf("coefficient count %d does not match column count %d",
			len(m.Coefficients), len(m.Columns))
	}
	if !isFinite(m.Intercept) {
		return fmt.Errorf("intercept is not finite")
	}
	for i, c := range m.Coefficients {
		if !isFinite(c) {
			return fmt.Errorf("coefficient for column %q is not finite", m.Columns[i])
		}
	}

	if len(m.Scaler.Mean) != len(m.Scaler.Columns) || len(m.Scaler.Scale) != len(m.Scaler.Columns) {
		return fmt.Errorf("scaler mean/scale count does not match scaler column count %d",
			len(m.Scaler.Columns))
	}
	for i, col := range m.Scaler.Columns {
		if _, ok := m.index()[col]; !ok {
			return fmt.Errorf("scaler column %q is not a model column", col)
		}
		if !isFinite(m.Scaler.Mean[i]) || !isFinite(m.Scaler.Scale[i]) {
			return fmt.Errorf("scaler parameters for column %q are not finite", col)
		}
		if m.Scaler.Scale[i] == 0 {
			return fmt.Errorf("scaler scale for column %q is zero", col)
		}
	}

	return nil
}

// Dimensions returns the length of the feature vector the model expects.
func (m *Model) Dimensions() int {
	return len(m.Columns)
}

// ColumnIndex returns the position of a trained column, if present.
func (m *Model) ColumnIndex(name string) (int, bool) {
	idx, ok := m.index()[name]
	return idx, ok
}

// NumericFeatures returns the scaled numeric feature names in trained order.
func (m *Model) NumericFeatures() []string {
	return m.Scaler.Columns
}

// CategoricalFeatures returns the one-hot encoded feature names, derived from
// the trained column prefixes (everything before the first underscore).
func (m *Model) CategoricalFeatures() []string {
	numeric := make(map[string]struct{}, len(m.Scaler.Columns))
	for _, c := range m.Scaler.Columns {
		numeric[c] = struct{}{}
	}

	seen := make(map[string]struct{})
	var features []string
	for _, col := range m.Columns {
		if _, ok := numeric[col]; ok {
			continue
		}
		i := strings.Index(col, "_")
		if i <= 0 {
			continue
		}
		feature := col[:i]
		if _, ok := seen[feature]; !ok {
			seen[feature] = struct{}{}
			features = append(features, feature)
		}
	}
	return features
}

// Categories returns the trained category values for a categorical feature,
// in trained column order.
func (m *Model) Categories(feature string) []string {
	prefix := feature + "_"
	var values []string
	for _, col := range m.Columns {
		if strings.HasPrefix(col, prefix) {
			values = append(values, strings.TrimSpace(strings.TrimPrefix(col, prefix)))
		}
	}
	return values
}

// ResolveCategoryColumn maps a categorical value to its one-hot column index.
// Training data carried a leading space in most model names, so both
// "feature_value" and "feature_ value" spellings are tried. A miss means the
// value is outside the trained category set.
func (m *Model) ResolveCategoryColumn(feature, value string) (int, bool) {
	if idx, ok := m.index()[feature+"_"+value]; ok {
		return idx, true
	}
	if idx, ok := m.index()[feature+"_ "+value]; ok {
		return idx, true
	}
	return 0, false
}

// ScaleValue applies the standard scaler to a numeric feature value.
// Columns without scaler parameters pass through unchanged.
func (m *Model) ScaleValue(column string, v float64) float64 {
	if m.scalerIndex == nil {
		m.buildIndexes()
	}
	i, ok := m.scalerIndex[column]
	if !ok {
		return v
	}
	return (v - m.Scaler.Mean[i]) / m.Scaler.Scale[i]
}

// Evaluate computes the affine model output for a fully assembled feature
// vector: dot(coefficients, vector) + intercept.
func (m *Model) Evaluate(vector []float64) (float64, error) {
	if len(vector) != len(m.Coefficients) {
		return 0, fmt.Errorf("vector length %d does not match model dimensions %d",
			len(vector), len(m.Coefficients))
	}

	sum := m.Intercept
	for i, v := range vector {
		sum += m.Coefficients[i] * v
	}

	if !isFinite(sum) {
		return 0, fmt.Errorf("model produced a non-finite value")
	}
	return sum, nil
}

func (m *Model) index() map[string]int {
	if m.columnIndex == nil {
		m.buildIndexes()
	}
	return m.columnIndex
}

// buildIndexes precomputes the lookup maps. Load calls this once so the
// model is read-only while serving concurrent requests.
func (m *Model) buildIndexes() {
	m.columnIndex = make(map[string]int, len(m.Columns))
	for i, c := range m.Columns {
		m.columnIndex[c] = i
	}
	m.scalerIndex = make(map[string]int, len(m.Scaler.Columns))
	for i, c := range m.Scaler.Columns {
		m.scalerIndex[c] = i
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
