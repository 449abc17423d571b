// Package inventory owns the in-memory Building and every command that
// mutates it. Each successful mutation is saved before control returns.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/floorplan-inventory/backend/internal/csvimport"
	"github.com/floorplan-inventory/backend/internal/models"
)

// Default geometry of a newly added room.
const (
	DefaultRoomX      = 50
	DefaultRoomY      = 50
	DefaultRoomWidth  = 200
	DefaultRoomHeight = 150
)

var errInvalidGeometry = fmt.Errorf("%w: geometry must be finite and non-negative", models.ErrValidation)

// Persister writes the session state. persistence.Adapter implements it.
type Persister interface {
	Save(ctx context.Context, building models.Building, currentFloorID string) error
}

// Loader reads the session state. persistence.Adapter implements it.
type Loader interface {
	Load(ctx context.Context) (*models.State, error)
}

// ItemInput carries user-entered item fields. Values are trimmed on use.
type ItemInput struct {
	Name            string
	InventoryNumber string
	Organization    string
	Comment         string
}

// RoomPatch carries the editable room attributes. Nil fields are unchanged.
type RoomPatch struct {
	Name         *string
	Organization *string
	Color        *string
}

// BuildingPatch carries the editable building attributes.
type BuildingPatch struct {
	Name         *string
	Organization *string
}

// Store is the single owner of the Building.
type Store struct {
	mu             sync.Mutex
	building       models.Building
	currentFloorID string

	persister       Persister
	logger          *zap.Logger
	defaultRoomName string
	now             func() time.Time
	newID           func(kind string) string
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for item timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides id generation.
func WithIDGenerator(newID func(kind string) string) Option {
	return func(s *Store) { s.newID = newID }
}

// WithDefaultRoomName sets the name given to newly added rooms.
func WithDefaultRoomName(name string) Option {
	return func(s *Store) { s.defaultRoomName = name }
}

// New creates a store around building.
func New(building models.Building, currentFloorID string, persister Persister, logger *zap.Logger, opts ...Option) *Store {
	building = building.Clone()
	building.Normalize()

	s := &Store{
		building:        building,
		persister:       persister,
		logger:          logger,
		defaultRoomName: "Новая комната",
		now:             func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		newID:           func(kind string) string { return kind + "-" + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.findFloor(currentFloorID) != nil {
		s.currentFloorID = currentFloorID
	}
	return s
}

// Open loads the saved state. A missing or corrupt state falls back to
// defaults; the session always starts.
func Open(ctx context.Context, loader Loader, persister Persister, defaults models.Building, logger *zap.Logger, opts ...Option) *Store {
	state, err := loader.Load(ctx)
	switch {
	case err == nil:
		logger.Info("Loaded saved state",
			zap.Int("floors", len(state.Building.Floors)),
			zap.String("current_floor", state.CurrentFloorID),
		)
		return New(state.Building, state.CurrentFloorID, persister, logger, opts...)
	case errors.Is(err, models.ErrStateNotFound):
		logger.Info("No saved state, starting with an empty building")
	default:
		logger.Warn("Failed to load saved state, starting with an empty building", zap.Error(err))
	}
	return New(defaults, "", persister, logger, opts...)
}

type saveReportKey struct{}

// SaveReport records the saves made by commands running under one context.
type SaveReport struct {
	mu    sync.Mutex
	saved bool
	err   error
}

// WithSaveReport returns a context whose commands record their saves in the
// returned report.
func WithSaveReport(ctx context.Context) (context.Context, *SaveReport) {
	r := &SaveReport{}
	return context.WithValue(ctx, saveReportKey{}, r), r
}

// Saved reports whether any command attempted a save.
func (r *SaveReport) Saved() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saved
}

// Err returns the error of the last save, or nil.
func (r *SaveReport) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *SaveReport) record(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = true
	r.err = err
}

// save persists the current state. Failures are logged and recorded in the
// context's SaveReport but do not fail the command that triggered them.
func (s *Store) save(ctx context.Context) {
	if s.persister == nil {
		return
	}
	err := s.persister.Save(ctx, s.building, s.currentFloorID)
	if err != nil {
		s.logger.Error("Failed to persist state", zap.Error(err))
	}
	if r, ok := ctx.Value(saveReportKey{}).(*SaveReport); ok {
		r.record(err)
	}
}

// Building returns a copy of the building.
func (s *Store) Building() models.Building {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.building.Clone()
}

// CurrentFloorID returns the id of the open floor, or "".
func (s *Store) CurrentFloorID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentFloorID
}

// CurrentFloor returns a copy of the open floor.
func (s *Store) CurrentFloor() (models.Floor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.findFloor(s.currentFloorID)
	if f == nil {
		return models.Floor{}, false
	}
	return f.Clone(), true
}

// Floor returns a copy of the floor with the given id.
func (s *Store) Floor(id string) (models.Floor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.findFloor(id)
	if f == nil {
		return models.Floor{}, fmt.Errorf("%w: %s", models.ErrFloorNotFound, id)
	}
	return f.Clone(), nil
}

// Room returns a copy of the room and the id of the floor holding it.
func (s *Store) Room(id string) (models.Room, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, r := s.findRoom(id)
	if r == nil {
		return models.Room{}, "", fmt.Errorf("%w: %s", models.ErrRoomNotFound, id)
	}
	return r.Clone(), f.ID, nil
}

// Item returns a copy of the item and the id of the room holding it.
func (s *Store) Item(id string) (models.Item, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, i := s.findItem(id)
	if r == nil {
		return models.Item{}, "", fmt.Errorf("%w: %s", models.ErrItemNotFound, id)
	}
	return r.Items[i], r.ID, nil
}

// SuggestFloorName proposes a name for the next floor.
func (s *Store) SuggestFloorName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("Этаж %d", len(s.building.Floors)+1)
}

// AddFloor appends a floor and makes it current.
func (s *Store) AddFloor(ctx context.Context, name string) (models.Floor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Floor{}, models.ErrInvalidName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	floor := models.Floor{ID: s.newID("floor"), Name: name, Rooms: []models.Room{}}
	s.building.Floors = append(s.building.Floors, floor)
	s.currentFloorID = floor.ID
	s.save(ctx)

	s.logger.Info("Added floor", zap.String("id", floor.ID), zap.String("name", name))
	return floor, nil
}

// SelectFloor makes the floor current.
func (s *Store) SelectFloor(ctx context.Context, floorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findFloor(floorID) == nil {
		return fmt.Errorf("%w: %s", models.ErrFloorNotFound, floorID)
	}
	s.currentFloorID = floorID
	s.save(ctx)
	return nil
}

// AddRoom places a default-sized room on the floor. The room inherits the
// building organization.
func (s *Store) AddRoom(ctx context.Context, floorID, color string) (models.Room, error) {
	color = strings.TrimSpace(color)
	if color == "" {
		return models.Room{}, fmt.Errorf("%w: color must not be empty", models.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f := s.findFloor(floorID)
	if f == nil {
		return models.Room{}, fmt.Errorf("%w: %s", models.ErrFloorNotFound, floorID)
	}

	room := models.Room{
		ID:           s.newID("room"),
		Name:         s.defaultRoomName,
		Organization: s.building.Organization,
		X:            DefaultRoomX,
		Y:            DefaultRoomY,
		Width:        DefaultRoomWidth,
		Height:       DefaultRoomHeight,
		Color:        color,
		Items:        []models.Item{},
	}
	f.Rooms = append(f.Rooms, room)
	s.save(ctx)

	s.logger.Info("Added room", zap.String("id", room.ID), zap.String("floor_id", floorID))
	return room.Clone(), nil
}

// UpdateRoom renames, re-assigns or recolours a room.
func (s *Store) UpdateRoom(ctx context.Context, roomID string, patch RoomPatch) (models.Room, error) {
	var name, color string
	if patch.Name != nil {
		if name = strings.TrimSpace(*patch.Name); name == "" {
			return models.Room{}, models.ErrEmptyName
		}
	}
	if patch.Color != nil {
		if color = strings.TrimSpace(*patch.Color); color == "" {
			return models.Room{}, fmt.Errorf("%w: color must not be empty", models.ErrValidation)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, r := s.findRoom(roomID)
	if r == nil {
		return models.Room{}, fmt.Errorf("%w: %s", models.ErrRoomNotFound, roomID)
	}
	if patch.Name != nil {
		r.Name = name
	}
	if patch.Organization != nil {
		r.Organization = strings.TrimSpace(*patch.Organization)
	}
	if patch.Color != nil {
		r.Color = color
	}
	s.save(ctx)
	return r.Clone(), nil
}

// UpdateRoomGeometry overwrites the room rectangle. Values are expected to
// come out of the geometry engine already snapped and clamped.
func (s *Store) UpdateRoomGeometry(ctx context.Context, roomID string, x, y, width, height float64) error {
	for _, v := range []float64{x, y, width, height} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return errInvalidGeometry
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, r := s.findRoom(roomID)
	if r == nil {
		return fmt.Errorf("%w: %s", models.ErrRoomNotFound, roomID)
	}
	r.X, r.Y, r.Width, r.Height = x, y, width, height
	s.save(ctx)
	return nil
}

// UpdateBuilding renames the building or changes its organization. Existing
// rooms keep their organization.
func (s *Store) UpdateBuilding(ctx context.Context, patch BuildingPatch) (models.Building, error) {
	var name string
	if patch.Name != nil {
		if name = strings.TrimSpace(*patch.Name); name == "" {
			return models.Building{}, models.ErrEmptyName
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if patch.Name != nil {
		s.building.Name = name
	}
	if patch.Organization != nil {
		s.building.Organization = strings.TrimSpace(*patch.Organization)
	}
	s.save(ctx)
	return s.building.Clone(), nil
}

// AddItem appends an item to the room. The organization defaults to the
// room's.
func (s *Store) AddItem(ctx context.Context, roomID string, input ItemInput) (models.Item, error) {
	input = input.trimmed()
	if input.Name == "" {
		return models.Item{}, models.ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, r := s.findRoom(roomID)
	if r == nil {
		return models.Item{}, fmt.Errorf("%w: %s", models.ErrRoomNotFound, roomID)
	}

	item := s.newItem(r, input)
	r.Items = append(r.Items, item)
	s.save(ctx)

	s.logger.Info("Added item", zap.String("id", item.ID), zap.String("room_id", roomID))
	return item, nil
}

// EditItem overwrites all four item fields with the trimmed input.
func (s *Store) EditItem(ctx context.Context, itemID string, input ItemInput) (models.Item, error) {
	input = input.trimmed()
	if input.Name == "" {
		return models.Item{}, models.ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, i := s.findItem(itemID)
	if r == nil {
		return models.Item{}, fmt.Errorf("%w: %s", models.ErrItemNotFound, itemID)
	}

	item := &r.Items[i]
	item.Name = input.Name
	item.InventoryNumber = input.InventoryNumber
	item.Organization = input.Organization
	item.Comment = input.Comment
	s.save(ctx)
	return *item, nil
}

// DeleteItem removes the item at index from the room, keeping the order of
// the rest. Without confirmation the call only validates its arguments.
func (s *Store) DeleteItem(ctx context.Context, roomID string, index int, confirmed bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, r := s.findRoom(roomID)
	if r == nil {
		return false, fmt.Errorf("%w: %s", models.ErrRoomNotFound, roomID)
	}
	if index < 0 || index >= len(r.Items) {
		return false, fmt.Errorf("%w: %d of %d", models.ErrIndexOutOfRange, index, len(r.Items))
	}
	if !confirmed {
		return false, nil
	}

	removed := r.Items[index]
	r.Items = append(r.Items[:index:index], r.Items[index+1:]...)
	s.save(ctx)

	s.logger.Info("Deleted item", zap.String("id", removed.ID), zap.String("room_id", roomID))
	return true, nil
}

// ReplaceBuilding discards the building and installs b, opening its first
// floor.
func (s *Store) ReplaceBuilding(ctx context.Context, b models.Building) {
	b = b.Clone()
	b.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.building = b
	s.currentFloorID = ""
	if len(b.Floors) > 0 {
		s.currentFloorID = b.Floors[0].ID
	}
	s.save(ctx)

	s.logger.Info("Replaced building", zap.Int("floors", len(b.Floors)))
}

// ApplyImport replaces the items of every room on the floor with the
// imported rows. Rows pointing at rooms that are not on the floor are
// dropped; rows with a blank name are skipped.
func (s *Store) ApplyImport(ctx context.Context, floorID string, rows []csvimport.Row) (models.ImportSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := s.findFloor(floorID)
	if f == nil {
		return models.ImportSummary{}, fmt.Errorf("%w: %s", models.ErrFloorNotFound, floorID)
	}

	summary := models.ImportSummary{FloorID: floorID}
	byID := make(map[string]*models.Room, len(f.Rooms))
	for i := range f.Rooms {
		f.Rooms[i].Items = []models.Item{}
		byID[f.Rooms[i].ID] = &f.Rooms[i]
	}

	for _, row := range rows {
		r, ok := byID[row.RoomID]
		if !ok {
			summary.Dropped++
			continue
		}
		input := ItemInput{Name: row.Name, InventoryNumber: row.InventoryNumber, Comment: row.Comment}.trimmed()
		if input.Name == "" {
			summary.Skipped++
			continue
		}
		r.Items = append(r.Items, s.newItem(r, input))
		summary.Imported++
	}
	s.save(ctx)

	s.logger.Info("Imported items",
		zap.String("floor_id", floorID),
		zap.Int("imported", summary.Imported),
		zap.Int("dropped", summary.Dropped),
		zap.Int("skipped", summary.Skipped),
	)
	return summary, nil
}

func (s *Store) newItem(r *models.Room, input ItemInput) models.Item {
	return models.Item{
		ID:              s.newID("item"),
		Name:            input.Name,
		InventoryNumber: input.InventoryNumber,
		Organization:    orDefault(input.Organization, r.Organization),
		Comment:         input.Comment,
		CreatedAt:       s.now(),
	}
}

func (s *Store) findFloor(id string) *models.Floor {
	for i := range s.building.Floors {
		if s.building.Floors[i].ID == id {
			return &s.building.Floors[i]
		}
	}
	return nil
}

func (s *Store) findRoom(id string) (*models.Floor, *models.Room) {
	for i := range s.building.Floors {
		f := &s.building.Floors[i]
		for j := range f.Rooms {
			if f.Rooms[j].ID == id {
				return f, &f.Rooms[j]
			}
		}
	}
	return nil, nil
}

func (s *Store) findItem(id string) (*models.Room, int) {
	for i := range s.building.Floors {
		f := &s.building.Floors[i]
		for j := range f.Rooms {
			r := &f.Rooms[j]
			for k := range r.Items {
				if r.Items[k].ID == id {
					return r, k
				}
			}
		}
	}
	return nil, -1
}

func (in ItemInput) trimmed() ItemInput {
	return ItemInput{
		Name:            strings.TrimSpace(in.Name),
		InventoryNumber: strings.TrimSpace(in.InventoryNumber),
		Organization:    strings.TrimSpace(in.Organization),
		Comment:         strings.TrimSpace(in.Comment),
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
