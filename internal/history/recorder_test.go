// internal/history/recorder_test.go
package history

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "car-price-predictor/internal/common/errors"
	"car-price-predictor/internal/common/logger"
	"car-price-predictor/internal/predictor"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createPrediction() *predictor.Prediction {
	return &predictor.Prediction{
		PredictionID: "11111111-2222-3333-4444-555555555555",
		Price:        17500,
		Inputs: map[string]interface{}{
			"year":  2018.0,
			"model": "Fiesta",
		},
		CreatedAt: time.Date(2026, time.August, 26, 10, 0, 0, 0, time.UTC),
	}
}

func TestSave_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	p := createPrediction()
	mock.ExpectExec(`INSERT INTO predictions \(id, inputs, price, price_category, created_at\) VALUES \(\$1, \$2, \$3, \$4, \$5\)`).
		WithArgs(p.PredictionID, sqlmock.AnyArg(), p.Price, "Mid-Range Vehicle", p.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	recorder := NewRecorder(db, logger.NewTestLogger(t))
	err = recorder.Save(context.Background(), p, "Mid-Range Vehicle")
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSave_InsertFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO predictions`).
		WillReturnError(errors.New("connection reset"))

	recorder := NewRecorder(db, logger.NewTestLogger(t))
	err = recorder.Save(context.Background(), createPrediction(), "Mid-Range Vehicle")
	require.Error(t, err)

	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeHistoryInsertFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestRecent_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2026, time.August, 26, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "inputs", "price", "price_category", "created_at"}).
		AddRow("id-2", []byte(`{"model":"Kuga"}`), 24000.0, "Mid-Range Vehicle", created).
		AddRow("id-1", []byte(`{"model":"Fiesta"}`), 9500.0, "Budget-Friendly Vehicle", created.Add(-time.Hour))

	mock.ExpectQuery(`SELECT id, inputs, price, price_category, created_at FROM predictions ORDER BY created_at DESC LIMIT \$1`).
		WithArgs(10).
		WillReturnRows(rows)

	recorder := NewRecorder(db, logger.NewTestLogger(t))
	records, err := recorder.Recent(context.Background(), 10)
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "id-2", records[0].ID)
	assert.Equal(t, "Kuga", records[0].Inputs["model"])
	assert.Equal(t, 24000.0, records[0].Price)
	assert.Equal(t, "id-1", records[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecent_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, inputs, price, price_category, created_at FROM predictions`).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "inputs", "price", "price_category", "created_at"}))

	recorder := NewRecorder(db, logger.NewTestLogger(t))
	records, err := recorder.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRecent_QueryFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, inputs, price, price_category, created_at FROM predictions`).
		WillReturnError(errors.New("relation does not exist"))

	recorder := NewRecorder(db, logger.NewTestLogger(t))
	_, err = recorder.Recent(context.Background(), 10)
	require.Error(t, err)

	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeHistoryQueryFailed, stdErr.Code)
}
