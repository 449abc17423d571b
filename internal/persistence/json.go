package persistence

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/floorplan-inventory/backend/internal/models"
)

// ExportVersion is written into every JSON export.
const ExportVersion = "2.0"

// Export is the JSON export document.
type Export struct {
	Version     string          `json:"version"`
	LastUpdated time.Time       `json:"lastUpdated"`
	Building    models.Building `json:"building"`
}

// ExportJSON produces the pretty-printed export document.
func ExportJSON(building models.Building, now time.Time) ([]byte, error) {
	building = building.Clone()
	building.Normalize()

	data, err := json.MarshalIndent(Export{
		Version:     ExportVersion,
		LastUpdated: now.UTC(),
		Building:    building,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}
	return data, nil
}

// ImportJSON parses an export document. It fails with models.ErrInvalidFormat
// unless building.floors is an array.
func ImportJSON(data []byte) (*models.Building, error) {
	building, _, err := decodeEnvelope(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidFormat, err)
	}
	return building, nil
}

// FileName returns the export file name for the given extension and date.
func FileName(ext string, now time.Time) string {
	return fmt.Sprintf("inventory_%s.%s", now.UTC().Format("2006-01-02"), ext)
}
