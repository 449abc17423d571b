// Package bootstrap opens the configured blob store and restores the
// inventory store from it. Both the server and the CLI start here.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/floorplan-inventory/backend/internal/config"
	"github.com/floorplan-inventory/backend/internal/csvimport"
	"github.com/floorplan-inventory/backend/internal/inventory"
	"github.com/floorplan-inventory/backend/internal/layout"
	"github.com/floorplan-inventory/backend/internal/models"
	"github.com/floorplan-inventory/backend/internal/persistence"
	"github.com/floorplan-inventory/backend/internal/storage"
)

// Runtime holds the opened resources. Close releases them.
type Runtime struct {
	Config  *config.Config
	Blobs   storage.BlobStore
	Adapter *persistence.Adapter
	Store   *inventory.Store
	Aliases map[string]csvimport.AliasTable
}

// DefaultBuilding is the building a fresh session starts with: the static
// layout when one is configured, an empty building otherwise.
func DefaultBuilding(cfg *config.Config, l *layout.Layout) models.Building {
	defaults := models.Building{
		Name:         cfg.BuildingName,
		Organization: cfg.BuildingOrganization,
		Floors:       []models.Floor{},
	}
	if l == nil {
		return defaults
	}
	return l.Building(defaults)
}

// Open validates cfg, opens the blob store and loads the saved state.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	var l *layout.Layout
	aliases := map[string]csvimport.AliasTable{}
	if cfg.LayoutPath != "" {
		var err error
		if l, err = layout.Load(cfg.LayoutPath); err != nil {
			return nil, err
		}
		aliases = l.AliasTables()
		logger.Info("Loaded floor layout",
			zap.String("path", cfg.LayoutPath),
			zap.Int("floors", len(l.Floors)),
		)
	}

	blobs, err := storage.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.StorageBackend, err)
	}

	adapter := persistence.NewAdapter(blobs, cfg.StateKey, logger)
	store := inventory.Open(ctx, adapter, adapter, DefaultBuilding(cfg, l), logger,
		inventory.WithDefaultRoomName(cfg.DefaultRoomName),
	)

	return &Runtime{
		Config:  cfg,
		Blobs:   blobs,
		Adapter: adapter,
		Store:   store,
		Aliases: aliases,
	}, nil
}

// Close releases the blob store.
func (r *Runtime) Close() error {
	return r.Blobs.Close()
}
