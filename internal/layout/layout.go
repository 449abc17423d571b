// Package layout reads static floor layouts and the legacy per-room item
// maps that predate the building document.
package layout

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/floorplan-inventory/backend/internal/csvimport"
	"github.com/floorplan-inventory/backend/internal/models"
)

// Room is a fixed room rectangle. Firm names the organization using it.
type Room struct {
	ID     string  `yaml:"id"`
	Name   string  `yaml:"name"`
	Firm   string  `yaml:"firm"`
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
	Color  string  `yaml:"color"`
}

// Floor is one static floor plan with its CSV room mapping.
type Floor struct {
	ID          string               `yaml:"id"`
	Name        string               `yaml:"name"`
	StorageKey  string               `yaml:"storageKey"`
	Rooms       []Room               `yaml:"rooms"`
	RoomMapping csvimport.AliasTable `yaml:"roomMapping"`
}

// Layout is a set of static floor plans.
type Layout struct {
	Name         string  `yaml:"name"`
	Organization string  `yaml:"organization"`
	Floors       []Floor `yaml:"floors"`
}

// Load reads a layout file.
func Load(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a layout document.
func Parse(data []byte) (*Layout, error) {
	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("%w: layout: %v", models.ErrInvalidFormat, err)
	}
	if err := l.validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

func (l *Layout) validate() error {
	seen := make(map[string]bool)
	for _, f := range l.Floors {
		if f.ID == "" {
			return fmt.Errorf("%w: layout floor %q has no id", models.ErrInvalidFormat, f.Name)
		}
		if seen[f.ID] {
			return fmt.Errorf("%w: duplicate id %q in layout", models.ErrInvalidFormat, f.ID)
		}
		seen[f.ID] = true
		for _, r := range f.Rooms {
			if r.ID == "" {
				return fmt.Errorf("%w: room %q on floor %q has no id", models.ErrInvalidFormat, r.Name, f.ID)
			}
			if seen[r.ID] {
				return fmt.Errorf("%w: duplicate id %q in layout", models.ErrInvalidFormat, r.ID)
			}
			if r.Width < 0 || r.Height < 0 {
				return fmt.Errorf("%w: room %q has negative size", models.ErrInvalidFormat, r.ID)
			}
			seen[r.ID] = true
		}
		if err := f.validateMapping(); err != nil {
			return err
		}
	}
	return nil
}

// validateMapping rejects blank alias keys, which would match every label,
// and aliases pointing at rooms the floor does not have.
func (f Floor) validateMapping() error {
	rooms := make(map[string]bool, len(f.Rooms))
	for _, r := range f.Rooms {
		rooms[r.ID] = true
	}
	for _, a := range f.RoomMapping {
		if strings.TrimSpace(a.Key) == "" {
			return fmt.Errorf("%w: floor %q has a room mapping with an empty key", models.ErrInvalidFormat, f.ID)
		}
		if !rooms[a.RoomID] {
			return fmt.Errorf("%w: room mapping %q on floor %q points at unknown room %q",
				models.ErrInvalidFormat, a.Key, f.ID, a.RoomID)
		}
	}
	return nil
}

// Building converts the layout into a building with empty item lists.
// Names missing from the layout are taken from defaults. Rooms without a
// colour get palette colours in turn.
func (l *Layout) Building(defaults models.Building) models.Building {
	b := models.Building{
		Name:         orDefault(l.Name, defaults.Name),
		Organization: orDefault(l.Organization, defaults.Organization),
		Floors:       make([]models.Floor, 0, len(l.Floors)),
	}

	swatch := 0
	for _, f := range l.Floors {
		floor := models.Floor{
			ID:    f.ID,
			Name:  orDefault(f.Name, f.ID),
			Rooms: make([]models.Room, 0, len(f.Rooms)),
		}
		for _, r := range f.Rooms {
			color := r.Color
			if color == "" {
				color = models.Palette[swatch%len(models.Palette)]
				swatch++
			}
			floor.Rooms = append(floor.Rooms, models.Room{
				ID:           r.ID,
				Name:         r.Name,
				Organization: orDefault(r.Firm, b.Organization),
				X:            r.X,
				Y:            r.Y,
				Width:        r.Width,
				Height:       r.Height,
				Color:        color,
				Items:        []models.Item{},
			})
		}
		b.Floors = append(b.Floors, floor)
	}
	return b
}

// AliasTables returns the configured room mappings keyed by floor id. Floors
// without a mapping are absent.
func (l *Layout) AliasTables() map[string]csvimport.AliasTable {
	tables := make(map[string]csvimport.AliasTable)
	for _, f := range l.Floors {
		if len(f.RoomMapping) > 0 {
			tables[f.ID] = f.RoomMapping
		}
	}
	return tables
}

// FloorByStorageKey finds the floor whose legacy items were saved under key.
func (l *Layout) FloorByStorageKey(key string) (Floor, bool) {
	for _, f := range l.Floors {
		if f.StorageKey != "" && f.StorageKey == key {
			return f, true
		}
	}
	return Floor{}, false
}

type legacyItem struct {
	Name      string `json:"name"`
	Inventory string `json:"inventory"`
	Comment   string `json:"comment"`
}

// DecodeLegacyItems converts a legacy {roomId: [{name, inventory, comment}]}
// map into import rows. Rows are ordered by room id, then by position.
func DecodeLegacyItems(data []byte) ([]csvimport.Row, error) {
	var byRoom map[string][]legacyItem
	if err := json.Unmarshal(data, &byRoom); err != nil {
		return nil, fmt.Errorf("%w: legacy items: %v", models.ErrInvalidFormat, err)
	}

	roomIDs := make([]string, 0, len(byRoom))
	for id := range byRoom {
		roomIDs = append(roomIDs, id)
	}
	sort.Strings(roomIDs)

	var rows []csvimport.Row
	for _, id := range roomIDs {
		for _, it := range byRoom[id] {
			rows = append(rows, csvimport.Row{
				RoomID:          id,
				RoomLabel:       id,
				Name:            strings.TrimSpace(it.Name),
				InventoryNumber: strings.TrimSpace(it.Inventory),
				Comment:         strings.TrimSpace(it.Comment),
			})
		}
	}
	return rows, nil
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
