package csvimport

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/floorplan-inventory/backend/internal/models"
)

// Header keywords, matched case-insensitively as substrings of header cells.
var (
	NameKeywords      = []string{"наименование"}
	InventoryKeywords = []string{"инвентарный", "инв."}
	RoomKeywords      = []string{"комната"}
	CommentKeywords   = []string{"комментарий"}
)

const minFields = 3

// Row is a data row resolved to a room.
type Row struct {
	RoomID          string
	RoomLabel       string
	Name            string
	InventoryNumber string
	Comment         string
}

// Result is the outcome of resolving a CSV document.
type Result struct {
	Rows []Row
	// Dropped counts rows whose room label matched no alias.
	Dropped int
	// Skipped counts rows too short to hold the required columns and rows
	// without an item name.
	Skipped int
}

// Resolver turns CSV documents into room-assigned rows.
type Resolver struct {
	Aliases    AliasTable
	ExactFirst bool
}

type columns struct {
	name, inventory, room, comment int
}

// Resolve parses data. It fails with models.ErrInvalidFormat when the name,
// inventory number or room column is missing, or when there is no data row
// after the header. Nothing is applied here; callers apply Result atomically.
func (r Resolver) Resolve(data []byte) (*Result, error) {
	data = bytes.TrimPrefix(data, []byte("\uFEFF"))

	lines := nonBlankLines(string(data))
	if len(lines) < 2 {
		return nil, fmt.Errorf("%w: CSV file is empty", models.ErrInvalidFormat)
	}

	delimiter := detectDelimiter(lines[0])
	records, err := readRecords(strings.Join(lines, "\n"), delimiter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidFormat, err)
	}

	cols, err := locateColumns(records[0])
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for _, rec := range records[1:] {
		if len(rec) < minFields || !cols.fit(rec) {
			result.Skipped++
			continue
		}
		name := field(rec, cols.name)
		if name == "" {
			result.Skipped++
			continue
		}

		label := field(rec, cols.room)
		roomID, ok := r.Aliases.Resolve(label, r.ExactFirst)
		if !ok {
			result.Dropped++
			continue
		}

		result.Rows = append(result.Rows, Row{
			RoomID:          roomID,
			RoomLabel:       label,
			Name:            name,
			InventoryNumber: field(rec, cols.inventory),
			Comment:         field(rec, cols.comment),
		})
	}
	return result, nil
}

func nonBlankLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

// detectDelimiter keeps the comma unless the header is clearly semicolon
// separated, as in this service's own CSV export.
func detectDelimiter(header string) rune {
	if strings.Contains(header, ";") && !strings.Contains(header, ",") {
		return ';'
	}
	return ','
}

func readRecords(text string, delimiter rune) ([][]string, error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var records [][]string
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if len(records) < 2 {
		return nil, errors.New("CSV file is empty")
	}
	return records, nil
}

func locateColumns(header []string) (columns, error) {
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = strings.ToLower(strings.TrimSpace(h))
	}

	cols := columns{
		name:      findColumn(normalized, NameKeywords),
		inventory: findColumn(normalized, InventoryKeywords),
		room:      findColumn(normalized, RoomKeywords),
		comment:   findColumn(normalized, CommentKeywords),
	}
	if cols.name < 0 || cols.inventory < 0 || cols.room < 0 {
		return cols, fmt.Errorf("%w: CSV header must contain name, inventory number and room columns", models.ErrInvalidFormat)
	}
	return cols, nil
}

func findColumn(header []string, keywords []string) int {
	for i, h := range header {
		for _, k := range keywords {
			if strings.Contains(h, k) {
				return i
			}
		}
	}
	return -1
}

func (c columns) fit(rec []string) bool {
	return c.name < len(rec) && c.inventory < len(rec) && c.room < len(rec)
}

// field returns the trimmed value at i, or "" for a missing optional column.
func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
