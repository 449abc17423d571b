package layout

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floorplan-inventory/backend/internal/csvimport"
	"github.com/floorplan-inventory/backend/internal/models"
)

const sampleLayout = `
floors:
  - id: floor1
    name: Этаж 1
    storageKey: inventory_floor1
    rooms:
      - {id: room102, name: "100", firm: firstCompany, x: 100, y: 100, width: 120, height: 160}
      - {id: room103, name: "101", x: 220, y: 100, width: 100, height: 160, color: "#ffc9c9"}
    roomMapping:
      "10": room102
      "101": room103
  - id: floor2
    rooms:
      - {id: room201, name: "201", x: 100, y: 100, width: 200, height: 150}
`

var defaults = models.Building{Name: "Моё здание", Organization: "Главная организация", Floors: []models.Floor{}}

func TestParse_Building(t *testing.T) {
	l, err := Parse([]byte(sampleLayout))
	require.NoError(t, err)

	b := l.Building(defaults)
	assert.Equal(t, "Моё здание", b.Name)
	assert.Equal(t, "Главная организация", b.Organization)
	require.Len(t, b.Floors, 2)

	f1 := b.Floors[0]
	assert.Equal(t, "floor1", f1.ID)
	assert.Equal(t, "Этаж 1", f1.Name)
	require.Len(t, f1.Rooms, 2)
	assert.Equal(t, "firstCompany", f1.Rooms[0].Organization)
	assert.Equal(t, "Главная организация", f1.Rooms[1].Organization)
	assert.Equal(t, models.Palette[0], f1.Rooms[0].Color)
	assert.Equal(t, "#ffc9c9", f1.Rooms[1].Color)
	assert.Equal(t, 220.0, f1.Rooms[1].X)
	assert.NotNil(t, f1.Rooms[0].Items)

	f2 := b.Floors[1]
	assert.Equal(t, "floor2", f2.Name)
	assert.Equal(t, models.Palette[1], f2.Rooms[0].Color)
}

func TestAliasTables_KeepDeclarationOrder(t *testing.T) {
	l, err := Parse([]byte(sampleLayout))
	require.NoError(t, err)

	tables := l.AliasTables()
	require.Contains(t, tables, "floor1")
	assert.NotContains(t, tables, "floor2")
	assert.Equal(t, csvimport.AliasTable{
		{Key: "10", RoomID: "room102"},
		{Key: "101", RoomID: "room103"},
	}, tables["floor1"])

	// "10" is declared first and shadows "101"
	id, ok := tables["floor1"].Resolve("Комната 101", false)
	require.True(t, ok)
	assert.Equal(t, "room102", id)
}

func TestFloorByStorageKey(t *testing.T) {
	l, err := Parse([]byte(sampleLayout))
	require.NoError(t, err)

	f, ok := l.FloorByStorageKey("inventory_floor1")
	require.True(t, ok)
	assert.Equal(t, "floor1", f.ID)

	_, ok = l.FloorByStorageKey("")
	assert.False(t, ok)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not yaml", "floors: ["},
		{"floor without id", "floors:\n  - name: x\n"},
		{"duplicate room id", "floors:\n  - id: f\n    rooms:\n      - {id: r}\n      - {id: r}\n"},
		{"room id clashes with floor", "floors:\n  - id: f\n    rooms:\n      - {id: f}\n"},
		{"negative size", "floors:\n  - id: f\n    rooms:\n      - {id: r, width: -5}\n"},
		{"empty mapping key", "floors:\n  - id: f\n    rooms:\n      - {id: r}\n    roomMapping:\n      \"\": r\n"},
		{"blank mapping key", "floors:\n  - id: f\n    rooms:\n      - {id: r}\n    roomMapping:\n      \"  \": r\n"},
		{"mapping to unknown room", "floors:\n  - id: f\n    rooms:\n      - {id: r}\n    roomMapping:\n      \"101\": room999\n"},
		{"mapping to room on another floor", "floors:\n  - id: f\n    rooms:\n      - {id: r}\n  - id: g\n    rooms:\n      - {id: s}\n    roomMapping:\n      \"101\": r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.ErrorIs(t, err, models.ErrInvalidFormat)
		})
	}
}

func TestLoad_ExampleLayout(t *testing.T) {
	l, err := Load(filepath.Join("..", "..", "configs", "layout.example.yaml"))
	require.NoError(t, err)

	b := l.Building(defaults)
	require.Len(t, b.Floors, 2)
	assert.Len(t, b.Floors[0].Rooms, 8)
	assert.Len(t, b.Floors[1].Rooms, 5)

	id, ok := l.AliasTables()["floor2"].Resolve("Склад 2", false)
	require.True(t, ok)
	assert.Equal(t, "room205", id)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDecodeLegacyItems(t *testing.T) {
	data := []byte(`{
		"room103": [{"name": " Монитор ", "inventory": "INV-777", "comment": ""}],
		"room102": [
			{"name": "Стол", "inventory": "1"},
			{"name": "Стул", "inventory": "2", "comment": "сломан"}
		]
	}`)

	rows, err := DecodeLegacyItems(data)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, csvimport.Row{RoomID: "room102", RoomLabel: "room102", Name: "Стол", InventoryNumber: "1"}, rows[0])
	assert.Equal(t, "Стул", rows[1].Name)
	assert.Equal(t, "сломан", rows[1].Comment)
	assert.Equal(t, "room103", rows[2].RoomID)
	assert.Equal(t, "Монитор", rows[2].Name)

	_, err = DecodeLegacyItems([]byte(`["not", "a", "map"]`))
	assert.ErrorIs(t, err, models.ErrInvalidFormat)
}
