// internal/predictor/predictor.go
package predictor

import (
	"context"
	"time"

	"car-price-predictor/internal/artifact"
	"car-price-predictor/internal/common/logger"
	"car-price-predictor/internal/common/validation"

	"github.com/google/uuid"
)

// Service turns raw user inputs into a price estimate. It is stateless per
// call: the loaded model and the derived schema are read-only, so any number
// of goroutines may call Predict concurrently.
type Service struct {
	model  *artifact.Model
	schema *validation.FeatureSchema
	logger logger.Logger
}

func NewService(model *artifact.Model, log logger.Logger) (*Service, error) {
	schema, err := validation.BuildFeatureSchema(model)
	if err != nil {
		return nil, err
	}

	return &Service{
		model:  model,
		schema: schema,
		logger: log.WithFields(map[string]interface{}{"component": "predictor"}),
	}, nil
}

// Model exposes the loaded artifact for collaborators that need the trained
// feature domains (form rendering, the artifact inspector).
func (s *Service) Model() *artifact.Model {
	return s.model
}

// Validate checks raw inputs against the feature schema without predicting,
// so the form layer can surface every field error at once.
func (s *Service) Validate(raw map[string]interface{}) (*validation.ValidationResult, error) {
	return s.schema.Validate(raw)
}

// Predict validates and encodes the raw inputs, then evaluates the model.
// The result may be negative for out-of-distribution inputs; it is returned
// as-is with OutOfRange set rather than clamped, so model quality problems
// stay visible.
func (s *Service) Predict(_ context.Context, raw map[string]interface{}) (*Prediction, error) {
	result, err := s.schema.Validate(raw)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, result.FirstError()
	}

	vector, err := s.encode(raw)
	if err != nil {
		return nil, err
	}

	price, err := s.model.Evaluate(vector)
	if err != nil {
		return nil, err
	}

	prediction := &Prediction{
		PredictionID: uuid.New().String(),
		Price:        price,
		OutOfRange:   price < 0,
		Inputs:       raw,
		CreatedAt:    time.Now().UTC(),
	}

	s.logger.Info("prediction computed", map[string]interface{}{
		"predictionId": prediction.PredictionID,
		"price":        prediction.Price,
		"outOfRange":   prediction.OutOfRange,
	})

	return prediction, nil
}
