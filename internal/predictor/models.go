// internal/predictor/models.go
package predictor

import "time"

// Prediction is the outcome of one predict call.
type Prediction struct {
	PredictionID string                 `json:"prediction_id"`
	Price        float64                `json:"predicted_price"`
	OutOfRange   bool                   `json:"out_of_range,omitempty"`
	Inputs       map[string]interface{} `json:"inputs"`
	CreatedAt    time.Time              `json:"created_at"`
}
