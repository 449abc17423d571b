// Package models contains the data models for the application.
package models

import (
	"time"
)

// Building is the root aggregate. A service instance owns exactly one.
type Building struct {
	Name         string  `json:"name"`
	Organization string  `json:"organization"`
	Floors       []Floor `json:"floors"`
}

// Floor is a named level holding room rectangles.
type Floor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Rooms []Room `json:"rooms"`
}

// Room is a positioned rectangle on a floor canvas.
type Room struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Organization string  `json:"organization"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	Color        string  `json:"color"`
	Items        []Item  `json:"items"`
}

// Item is an inventory record attached to a room.
type Item struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	InventoryNumber string    `json:"inventoryNumber"`
	Organization    string    `json:"organization"`
	Comment         string    `json:"comment"`
	CreatedAt       time.Time `json:"createdAt"`
}

// State is the persisted session: the building plus the floor that was open.
type State struct {
	Building       Building `json:"building"`
	CurrentFloorID string   `json:"currentFloorId,omitempty"`
}

// Palette is the set of colour swatches offered when a room is created.
var Palette = []string{
	"#a5d8ff", "#74c0fc", "#4dabf7", "#339af0", "#228be6",
	"#ffc9c9", "#ffa8a8", "#ff8787", "#ff6b6b", "#fa5252",
	"#b2f2bb", "#8ce99a", "#69db7c", "#51cf66", "#40c057",
}

// Clone returns a deep copy of the building.
func (b Building) Clone() Building {
	out := b
	out.Floors = make([]Floor, len(b.Floors))
	for i, f := range b.Floors {
		out.Floors[i] = f.Clone()
	}
	return out
}

// Clone returns a deep copy of the floor.
func (f Floor) Clone() Floor {
	out := f
	out.Rooms = make([]Room, len(f.Rooms))
	for i, r := range f.Rooms {
		out.Rooms[i] = r.Clone()
	}
	return out
}

// Clone returns a deep copy of the room.
func (r Room) Clone() Room {
	out := r
	out.Items = make([]Item, len(r.Items))
	copy(out.Items, r.Items)
	return out
}

// Normalize replaces nil collections with empty ones so the building always
// serialises floors, rooms and items as arrays.
func (b *Building) Normalize() {
	if b.Floors == nil {
		b.Floors = []Floor{}
	}
	for i := range b.Floors {
		f := &b.Floors[i]
		if f.Rooms == nil {
			f.Rooms = []Room{}
		}
		for j := range f.Rooms {
			if f.Rooms[j].Items == nil {
				f.Rooms[j].Items = []Item{}
			}
		}
	}
}
