// internal/artifact/loader.go
package artifact

import (
	"encoding/json"
	"fmt"
	"os"

	apperrors "car-price-predictor/internal/common/errors"
)

// Load reads and validates a model artifact file. Errors are fatal: the
// service must not start without a usable model, and no retry is meaningful
// for a missing or corrupt file.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewModelUnavailableError(fmt.Errorf("read artifact %s: %w", path, err))
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, apperrors.NewModelUnavailableError(fmt.Errorf("decode artifact %s: %w", path, err))
	}

	if err := m.Validate(); err != nil {
		return nil, apperrors.NewModelUnavailableError(fmt.Errorf("validate artifact %s: %w", path, err))
	}

	m.buildIndexes()
	return &m, nil
}
