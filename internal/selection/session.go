// Package selection tracks the transient editing state of the floor plan:
// selection, edit mode, search highlights and the single active drag or
// resize interaction.
package selection

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/floorplan-inventory/backend/internal/geometry"
	"github.com/floorplan-inventory/backend/internal/models"
)

var (
	ErrNotEditing        = fmt.Errorf("%w: edit mode is off", models.ErrConflict)
	ErrInteractionActive = fmt.Errorf("%w: another drag or resize is in progress", models.ErrConflict)
	ErrNoInteraction     = fmt.Errorf("%w: no drag or resize in progress", models.ErrConflict)
)

// Mode is the kind of pointer interaction.
type Mode string

const (
	ModeDrag   Mode = "drag"
	ModeResize Mode = "resize"
)

// Store is the part of the inventory store a session reads and commits to.
type Store interface {
	CurrentFloorID() string
	CurrentFloor() (models.Floor, bool)
	Room(id string) (models.Room, string, error)
	Item(id string) (models.Item, string, error)
	UpdateRoomGeometry(ctx context.Context, roomID string, x, y, width, height float64) error
}

type interaction struct {
	mode    Mode
	roomID  string
	start   geometry.Point
	offset  geometry.Point
	rect    geometry.Rect
	preview geometry.Rect
}

// Interaction describes the running drag or resize.
type Interaction struct {
	Mode    Mode          `json:"mode"`
	RoomID  string        `json:"roomId"`
	Preview geometry.Rect `json:"preview"`
}

// State is a point-in-time copy of the session.
type State struct {
	CurrentFloorID string        `json:"currentFloorId"`
	SelectedRoomID string        `json:"selectedRoomId,omitempty"`
	SelectedItemID string        `json:"selectedItemId,omitempty"`
	EditMode       bool          `json:"editMode"`
	SearchTerm     string        `json:"searchTerm,omitempty"`
	Highlights     []string      `json:"highlights"`
	Interaction    *Interaction  `json:"interaction,omitempty"`
	Grid           geometry.Grid `json:"grid"`
	Canvas         geometry.Size `json:"canvas"`
}

// Session is the selection and interaction state of one editor.
type Session struct {
	mu     sync.Mutex
	store  Store
	grid   geometry.Grid
	canvas geometry.Size
	logger *zap.Logger

	editMode       bool
	selectedRoomID string
	selectedItemID string
	searchTerm     string
	highlights     []string
	active         *interaction
}

// NewSession creates a session over store.
func NewSession(store Store, grid geometry.Grid, canvas geometry.Size, logger *zap.Logger) *Session {
	return &Session{
		store:      store,
		grid:       grid,
		canvas:     canvas,
		logger:     logger,
		highlights: []string{},
	}
}

// SetEditMode toggles edit mode. Leaving edit mode discards a running
// interaction.
func (s *Session) SetEditMode(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.editMode = enabled
	if !enabled && s.active != nil {
		s.logger.Debug("Interaction discarded", zap.String("room_id", s.active.roomID))
		s.active = nil
	}
}

// SelectRoom selects a room. An empty id clears the selection.
func (s *Session) SelectRoom(roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if roomID == "" {
		s.selectedRoomID, s.selectedItemID = "", ""
		return nil
	}
	if _, _, err := s.store.Room(roomID); err != nil {
		return err
	}
	if s.selectedRoomID != roomID {
		s.selectedItemID = ""
	}
	s.selectedRoomID = roomID
	return nil
}

// SelectItem selects an item and the room holding it. An empty id clears the
// item selection only.
func (s *Session) SelectItem(itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if itemID == "" {
		s.selectedItemID = ""
		return nil
	}
	_, roomID, err := s.store.Item(itemID)
	if err != nil {
		return err
	}
	s.selectedRoomID, s.selectedItemID = roomID, itemID
	return nil
}

// BeginDrag starts moving a room. pointer is the grab position on the canvas.
func (s *Session) BeginDrag(roomID string, pointer geometry.Point) error {
	return s.begin(ModeDrag, roomID, pointer)
}

// BeginResize starts resizing a room from its bottom-right handle.
func (s *Session) BeginResize(roomID string, pointer geometry.Point) error {
	return s.begin(ModeResize, roomID, pointer)
}

func (s *Session) begin(mode Mode, roomID string, pointer geometry.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.editMode {
		return ErrNotEditing
	}
	if s.active != nil {
		return ErrInteractionActive
	}
	room, _, err := s.store.Room(roomID)
	if err != nil {
		return err
	}

	rect := geometry.Rect{X: room.X, Y: room.Y, Width: room.Width, Height: room.Height}
	s.active = &interaction{
		mode:    mode,
		roomID:  roomID,
		start:   pointer,
		offset:  pointer.Sub(rect.Origin()),
		rect:    rect,
		preview: rect,
	}
	s.logger.Debug("Interaction started", zap.String("mode", string(mode)), zap.String("room_id", roomID))
	return nil
}

// Move updates the preview rectangle for the pointer position. The store is
// not touched.
func (s *Session) Move(pointer geometry.Point) (geometry.Rect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return geometry.Rect{}, ErrNoInteraction
	}
	s.active.preview = s.compute(s.active, pointer)
	return s.active.preview, nil
}

// End finishes the interaction at pointer and commits the final rectangle.
// The interaction is detached before the commit, so End succeeds at most
// once per Begin.
func (s *Session) End(ctx context.Context, pointer geometry.Point) (geometry.Rect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	act := s.active
	if act == nil {
		return geometry.Rect{}, ErrNoInteraction
	}
	s.active = nil

	rect := s.compute(act, pointer)
	if err := s.store.UpdateRoomGeometry(ctx, act.roomID, rect.X, rect.Y, rect.Width, rect.Height); err != nil {
		return geometry.Rect{}, err
	}
	s.logger.Debug("Interaction committed",
		zap.String("mode", string(act.mode)),
		zap.String("room_id", act.roomID),
	)
	return rect, nil
}

// Cancel discards the running interaction. It reports whether there was one.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return false
	}
	s.active = nil
	return true
}

func (s *Session) compute(act *interaction, pointer geometry.Point) geometry.Rect {
	switch act.mode {
	case ModeResize:
		return geometry.ComputeResize(act.rect, pointer.Sub(act.start), s.grid, s.canvas)
	default:
		pos := geometry.ComputeDrag(act.start, pointer, act.offset, act.rect.Size(), s.grid, s.canvas)
		return geometry.Rect{X: pos.X, Y: pos.Y, Width: act.rect.Width, Height: act.rect.Height}
	}
}

// Search highlights the rooms on the current floor holding an item whose
// name, inventory number or comment contains term, ignoring case. An empty
// term leaves the highlights unchanged.
func (s *Session) Search(term string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	term = strings.TrimSpace(term)
	if term == "" {
		return append([]string{}, s.highlights...)
	}

	needle := strings.ToLower(term)
	matches := []string{}
	if floor, ok := s.store.CurrentFloor(); ok {
		for _, r := range floor.Rooms {
			if roomMatches(r, needle) {
				matches = append(matches, r.ID)
			}
		}
	}
	s.searchTerm, s.highlights = term, matches
	return append([]string{}, matches...)
}

func roomMatches(r models.Room, needle string) bool {
	for _, it := range r.Items {
		if strings.Contains(strings.ToLower(it.Name), needle) ||
			strings.Contains(strings.ToLower(it.InventoryNumber), needle) ||
			strings.Contains(strings.ToLower(it.Comment), needle) {
			return true
		}
	}
	return false
}

// ClearSearch removes all highlights.
func (s *Session) ClearSearch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchTerm, s.highlights = "", []string{}
}

// RoomAt returns the topmost room on the current floor containing p. Rooms
// drawn later are on top.
func (s *Session) RoomAt(p geometry.Point) (models.Room, bool) {
	floor, ok := s.store.CurrentFloor()
	if !ok {
		return models.Room{}, false
	}
	pt := orb.Point{p.X, p.Y}
	for i := len(floor.Rooms) - 1; i >= 0; i-- {
		r := floor.Rooms[i]
		bound := orb.Bound{
			Min: orb.Point{r.X, r.Y},
			Max: orb.Point{r.X + r.Width, r.Y + r.Height},
		}
		if bound.Contains(pt) {
			return r, true
		}
	}
	return models.Room{}, false
}

// Snapshot returns the session state. Selections that no longer resolve to a
// room on the current floor are reported as empty.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		CurrentFloorID: s.store.CurrentFloorID(),
		EditMode:       s.editMode,
		SearchTerm:     s.searchTerm,
		Highlights:     append([]string{}, s.highlights...),
		Grid:           s.grid,
		Canvas:         s.canvas,
	}
	if s.selectedRoomID != "" {
		if _, floorID, err := s.store.Room(s.selectedRoomID); err == nil && floorID == st.CurrentFloorID {
			st.SelectedRoomID = s.selectedRoomID
		}
	}
	if st.SelectedRoomID != "" && s.selectedItemID != "" {
		if _, roomID, err := s.store.Item(s.selectedItemID); err == nil && roomID == st.SelectedRoomID {
			st.SelectedItemID = s.selectedItemID
		}
	}
	if s.active != nil {
		st.Interaction = &Interaction{Mode: s.active.mode, RoomID: s.active.roomID, Preview: s.active.preview}
	}
	return st
}
