// internal/predictor/encoder.go
package predictor

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "car-price-predictor/internal/common/errors"
)

// encode assembles the feature vector in the trained column order: numeric
// features are standard-scaled into their columns, categorical features set
// exactly one dummy column to 1. Inputs are assumed to have passed schema
// validation; the category lookup still fails closed as a second line.
func (s *Service) encode(raw map[string]interface{}) ([]float64, error) {
	vector := make([]float64, s.model.Dimensions())

	for _, feature := range s.model.NumericFeatures() {
		v, err := toFloat(raw[feature])
		if err != nil {
			return nil, apperrors.NewValidationError(feature, err.Error())
		}

		idx, ok := s.model.ColumnIndex(feature)
		if !ok {
			return nil, apperrors.NewVectorMismatchError(s.model.Dimensions(), 0)
		}
		vector[idx] = s.model.ScaleValue(feature, v)
	}

	for _, feature := range s.model.CategoricalFeatures() {
		value, ok := raw[feature].(string)
		if !ok {
			return nil, apperrors.NewMissingFeatureError(feature)
		}

		idx, ok := s.model.ResolveCategoryColumn(feature, value)
		if !ok {
			return nil, apperrors.NewUnknownCategoryError(feature, value)
		}
		vector[idx] = 1
	}

	return vector, nil
}

// toFloat accepts the numeric shapes raw inputs arrive in: JSON numbers
// decode to float64, form values arrive as strings.
func toFloat(raw interface{}) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		cleaned := strings.ReplaceAll(strings.TrimSpace(v), ",", "")
		return strconv.ParseFloat(cleaned, 64)
	case nil:
		return 0, fmt.Errorf("value missing")
	default:
		return 0, fmt.Errorf("not a number: %T", raw)
	}
}
