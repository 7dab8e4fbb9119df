// Package validation checks raw prediction inputs against the feature
// domains of the loaded model artifact before any encoding happens.
// Unknown categories fail closed: they are rejected rather than silently
// encoded as an all-zero dummy block.
package validation

import (
	"fmt"

	"car-price-predictor/internal/artifact"
	apperrors "car-price-predictor/internal/common/errors"

	"github.com/xeipuuv/gojsonschema"
)

// numericBounds carries the accepted input ranges for the numeric features,
// mirroring the form widget limits.
var numericBounds = map[string]float64{
	"year":       1990,
	"mileage":    0,
	"tax":        0,
	"mpg":        0,
	"engineSize": 0,
}

// FeatureSchema validates raw inputs against a JSON schema derived from the
// trained column set. Built once per loaded artifact.
type FeatureSchema struct {
	schema   *gojsonschema.Schema
	required []string
}

type ValidationResult struct {
	Valid  bool         `json:"valid"`
	Errors []FieldError `json:"errors,omitempty"`
}

type FieldError struct {
	Field   string              `json:"field"`
	Message string              `json:"message"`
	Code    apperrors.ErrorCode `json:"code"`
}

// BuildFeatureSchema derives the input schema from the model artifact:
// every trained feature is required, numeric features carry their widget
// bounds, and categorical features are enums of the trained category sets.
func BuildFeatureSchema(m *artifact.Model) (*FeatureSchema, error) {
	properties := map[string]interface{}{}
	var required []string

	for _, f := range m.NumericFeatures() {
		prop := map[string]interface{}{"type": "number"}
		if min, ok := numericBounds[f]; ok {
			prop["minimum"] = min
		}
		properties[f] = prop
		required = append(required, f)
	}

	for _, f := range m.CategoricalFeatures() {
		values := m.Categories(f)
		if len(values) == 0 {
			return nil, fmt.Errorf("categorical feature %q has no trained categories", f)
		}
		properties[f] = map[string]interface{}{
			"type": "string",
			"enum": values,
		}
		required = append(required, f)
	}

	doc := map[string]interface{}{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("compile feature schema: %w", err)
	}

	return &FeatureSchema{schema: schema, required: required}, nil
}

// RequiredFeatures returns the feature names every request must supply.
func (s *FeatureSchema) RequiredFeatures() []string {
	return s.required
}

// Validate checks a raw input map and returns per-field errors.
func (s *FeatureSchema) Validate(raw map[string]interface{}) (*ValidationResult, error) {
	result, err := s.schema.Validate(gojsonschema.NewGoLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("validate inputs: %w", err)
	}

	if result.Valid() {
		return &ValidationResult{Valid: true}, nil
	}

	errors := make([]FieldError, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		errors = append(errors, toFieldError(re))
	}

	return &ValidationResult{Valid: false, Errors: errors}, nil
}

func toFieldError(re gojsonschema.ResultError) FieldError {
	field := re.Field()
	code := apperrors.ErrCodeValidationFailed

	switch re.Type() {
	case "required":
		code = apperrors.ErrCodeMissingFeature
		if prop, ok := re.Details()["property"].(string); ok {
			field = prop
		}
	case "enum":
		code = apperrors.ErrCodeUnknownCategory
	}

	return FieldError{
		Field:   field,
		Message: re.Description(),
		Code:    code,
	}
}

// FirstError converts the leading field error into a StandardError, for
// callers that want an error value rather than the full result.
func (r *ValidationResult) FirstError() *apperrors.StandardError {
	if r.Valid || len(r.Errors) == 0 {
		return nil
	}

	fe := r.Errors[0]
	switch fe.Code {
	case apperrors.ErrCodeMissingFeature:
		return apperrors.NewMissingFeatureError(fe.Field)
	case apperrors.ErrCodeUnknownCategory:
		return apperrors.NewUnknownCategoryError(fe.Field, fe.Message)
	default:
		return apperrors.NewValidationError(fe.Field, fe.Message)
	}
}

// ErrorMessages returns a simple field -> message map for form re-rendering.
func (r *ValidationResult) ErrorMessages() map[string]string {
	if r.Valid {
		return nil
	}
	messages := make(map[string]string, len(r.Errors))
	for _, fe := range r.Errors {
		if _, exists := messages[fe.Field]; !exists {
			messages[fe.Field] = fe.Message
		}
	}
	return messages
}
