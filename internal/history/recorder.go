// internal/history/recorder.go
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	apperrors "car-price-predictor/internal/common/errors"
	"car-price-predictor/internal/common/logger"
	"car-price-predictor/internal/predictor"
)

// Record is one stored prediction.
type Record struct {
	ID            string                 `json:"id"`
	Inputs        map[string]interface{} `json:"inputs"`
	Price         float64                `json:"price"`
	PriceCategory string                 `json:"priceCategory"`
	CreatedAt     time.Time              `json:"createdAt"`
}

// Recorder persists predictions to Postgres. Writes are best-effort from the
// caller's point of view: a failed insert must never lose the prediction
// response, so callers log the returned error and move on.
type Recorder struct {
	db     *sql.DB
	logger logger.Logger
}

func NewRecorder(db *sql.DB, log logger.Logger) *Recorder {
	return &Recorder{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "history"}),
	}
}

// Save inserts a prediction with its classification.
func (r *Recorder) Save(ctx context.Context, p *predictor.Prediction, category string) error {
	inputs, err := json.Marshal(p.Inputs)
	if err != nil {
		return apperrors.NewHistoryInsertFailedError(err)
	}

	query := `INSERT INTO predictions (id, inputs, price, price_category, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.ExecContext(ctx, query, p.PredictionID, inputs, p.Price, category, p.CreatedAt); err != nil {
		r.logger.Error("history insert failed", map[string]interface{}{
			"predictionId": p.PredictionID,
			"error":        err.Error(),
		})
		return apperrors.NewHistoryInsertFailedError(err)
	}

	return nil
}

// Recent returns the newest predictions, most recent first.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]Record, error) {
	query := `SELECT id, inputs, price, price_category, created_at FROM predictions ORDER BY created_at DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, apperrors.NewHistoryQueryFailedError(err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var inputs []byte
		if err := rows.Scan(&rec.ID, &inputs, &rec.Price, &rec.PriceCategory, &rec.CreatedAt); err != nil {
			return nil, apperrors.NewHistoryQueryFailedError(err)
		}
		if err := json.Unmarshal(inputs, &rec.Inputs); err != nil {
			return nil, apperrors.NewHistoryQueryFailedError(err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewHistoryQueryFailedError(err)
	}

	return records, nil
}
