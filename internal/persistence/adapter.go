// Package persistence serialises the building to the blob store and to the
// portable export formats (JSON, CSV, XLSX, SVG).
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/floorplan-inventory/backend/internal/models"
	"github.com/floorplan-inventory/backend/internal/storage"
)

// Adapter saves and loads the session state under a fixed key.
type Adapter struct {
	blobs  storage.BlobStore
	key    string
	logger *zap.Logger
}

// NewAdapter creates an adapter writing to key in blobs.
func NewAdapter(blobs storage.BlobStore, key string, logger *zap.Logger) *Adapter {
	return &Adapter{
		blobs:  blobs,
		key:    key,
		logger: logger,
	}
}

// Save writes {building, currentFloorId}. Errors wrap models.ErrPersistence.
func (a *Adapter) Save(ctx context.Context, building models.Building, currentFloorID string) error {
	building = building.Clone()
	building.Normalize()
	data, err := json.Marshal(models.State{Building: building, CurrentFloorID: currentFloorID})
	if err != nil {
		return fmt.Errorf("%w: encode state: %v", models.ErrPersistence, err)
	}

	if err := a.blobs.Put(ctx, a.key, data); err != nil {
		return fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}

	a.logger.Debug("Saved state", zap.String("key", a.key), zap.Int("bytes", len(data)))
	return nil
}

// Load reads the saved state. It returns models.ErrStateNotFound when nothing
// was saved yet and models.ErrCorruptData when the blob is not a valid state.
func (a *Adapter) Load(ctx context.Context) (*models.State, error) {
	data, err := a.blobs.Get(ctx, a.key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, models.ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}

	building, currentFloorID, err := decodeEnvelope(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrCorruptData, err)
	}

	return &models.State{Building: *building, CurrentFloorID: currentFloorID}, nil
}

// Clear removes the saved state. The next Load reports models.ErrStateNotFound.
func (a *Adapter) Clear(ctx context.Context) error {
	if err := a.blobs.Delete(ctx, a.key); err != nil {
		return fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}
	a.logger.Info("Cleared saved state", zap.String("key", a.key))
	return nil
}

// envelope is the shared shape of the saved state and the JSON export.
type envelope struct {
	Version        string          `json:"version,omitempty"`
	CurrentFloorID string          `json:"currentFloorId,omitempty"`
	Building       json.RawMessage `json:"building"`
}

// decodeEnvelope parses a document holding a "building" whose "floors" is an
// array. It reports structural problems as plain errors; callers pick the kind.
func decodeEnvelope(data []byte) (*models.Building, string, error) {
	data = trimBOM(data)

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, "", fmt.Errorf("not valid JSON: %v", err)
	}
	if len(env.Building) == 0 || string(env.Building) == "null" {
		return nil, "", errors.New("missing building")
	}

	var shape struct {
		Floors json.RawMessage `json:"floors"`
	}
	if err := json.Unmarshal(env.Building, &shape); err != nil {
		return nil, "", fmt.Errorf("building is not an object: %v", err)
	}
	if !isJSONArray(shape.Floors) {
		return nil, "", errors.New("building.floors must be an array")
	}

	var building models.Building
	if err := json.Unmarshal(env.Building, &building); err != nil {
		return nil, "", fmt.Errorf("invalid building: %v", err)
	}
	building.Normalize()
	return &building, env.CurrentFloorID, nil
}

func isJSONArray(raw json.RawMessage) bool {
	for _, c := range raw {
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		case '[':
			return true
		default:
			return false
		}
	}
	return false
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func trimBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == utf8BOM[0] && data[1] == utf8BOM[1] && data[2] == utf8BOM[2] {
		return data[3:]
	}
	return data
}
