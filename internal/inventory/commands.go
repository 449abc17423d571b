package inventory

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/floorplan-inventory/backend/internal/csvimport"
	"github.com/floorplan-inventory/backend/internal/models"
)

// Command is a typed store action executed through Dispatch.
type Command interface {
	Kind() string
	execute(ctx context.Context, s *Store) (any, error)
}

// Dispatch executes cmd and returns its result.
func (s *Store) Dispatch(ctx context.Context, cmd Command) (any, error) {
	start := time.Now()
	result, err := cmd.execute(ctx, s)
	if err != nil {
		s.logger.Warn("Command failed",
			zap.String("command", cmd.Kind()),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return nil, err
	}
	s.logger.Debug("Command executed",
		zap.String("command", cmd.Kind()),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}

// AddFloor results in a models.Floor.
type AddFloor struct {
	Name string
}

func (AddFloor) Kind() string { return "add_floor" }

func (c AddFloor) execute(ctx context.Context, s *Store) (any, error) {
	return s.AddFloor(ctx, c.Name)
}

// SelectFloor results in nil.
type SelectFloor struct {
	FloorID string
}

func (SelectFloor) Kind() string { return "select_floor" }

func (c SelectFloor) execute(ctx context.Context, s *Store) (any, error) {
	return nil, s.SelectFloor(ctx, c.FloorID)
}

// AddRoom results in a models.Room.
type AddRoom struct {
	FloorID string
	Color   string
}

func (AddRoom) Kind() string { return "add_room" }

func (c AddRoom) execute(ctx context.Context, s *Store) (any, error) {
	return s.AddRoom(ctx, c.FloorID, c.Color)
}

// UpdateRoom results in a models.Room.
type UpdateRoom struct {
	RoomID string
	Patch  RoomPatch
}

func (UpdateRoom) Kind() string { return "update_room" }

func (c UpdateRoom) execute(ctx context.Context, s *Store) (any, error) {
	return s.UpdateRoom(ctx, c.RoomID, c.Patch)
}

// UpdateRoomGeometry results in nil.
type UpdateRoomGeometry struct {
	RoomID              string
	X, Y, Width, Height float64
}

func (UpdateRoomGeometry) Kind() string { return "update_room_geometry" }

func (c UpdateRoomGeometry) execute(ctx context.Context, s *Store) (any, error) {
	return nil, s.UpdateRoomGeometry(ctx, c.RoomID, c.X, c.Y, c.Width, c.Height)
}

// UpdateBuilding results in a models.Building.
type UpdateBuilding struct {
	Patch BuildingPatch
}

func (UpdateBuilding) Kind() string { return "update_building" }

func (c UpdateBuilding) execute(ctx context.Context, s *Store) (any, error) {
	return s.UpdateBuilding(ctx, c.Patch)
}

// AddItem results in a models.Item.
type AddItem struct {
	RoomID string
	Input  ItemInput
}

func (AddItem) Kind() string { return "add_item" }

func (c AddItem) execute(ctx context.Context, s *Store) (any, error) {
	return s.AddItem(ctx, c.RoomID, c.Input)
}

// EditItem results in a models.Item.
type EditItem struct {
	ItemID string
	Input  ItemInput
}

func (EditItem) Kind() string { return "edit_item" }

func (c EditItem) execute(ctx context.Context, s *Store) (any, error) {
	return s.EditItem(ctx, c.ItemID, c.Input)
}

// DeleteItem results in a bool reporting whether the item was removed.
type DeleteItem struct {
	RoomID    string
	Index     int
	Confirmed bool
}

func (DeleteItem) Kind() string { return "delete_item" }

func (c DeleteItem) execute(ctx context.Context, s *Store) (any, error) {
	return s.DeleteItem(ctx, c.RoomID, c.Index, c.Confirmed)
}

// ReplaceBuilding results in nil.
type ReplaceBuilding struct {
	Building models.Building
}

func (ReplaceBuilding) Kind() string { return "replace_building" }

func (c ReplaceBuilding) execute(ctx context.Context, s *Store) (any, error) {
	s.ReplaceBuilding(ctx, c.Building)
	return nil, nil
}

// ApplyImport results in a models.ImportSummary.
type ApplyImport struct {
	FloorID string
	Rows    []csvimport.Row
}

func (ApplyImport) Kind() string { return "apply_import" }

func (c ApplyImport) execute(ctx context.Context, s *Store) (any, error) {
	return s.ApplyImport(ctx, c.FloorID, c.Rows)
}
