// Package csvimport maps free-text CSV rows onto rooms through an ordered
// alias table.
package csvimport

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/floorplan-inventory/backend/internal/models"
)

// Alias maps a label fragment to a room id.
type Alias struct {
	Key    string `yaml:"key" json:"key"`
	RoomID string `yaml:"room" json:"roomId"`
}

// AliasTable is an ordered list of aliases. Order is significant: the first
// alias whose key occurs in a label wins, so a short key declared early
// ("10") shadows longer ones declared later ("101").
type AliasTable []Alias

// Resolve returns the room id for label. Matching is case-insensitive
// substring containment in declaration order. With exactFirst set, an alias
// equal to the whole label is preferred over earlier substring matches.
// Blank keys never match.
func (t AliasTable) Resolve(label string, exactFirst bool) (string, bool) {
	needle := strings.ToLower(strings.TrimSpace(label))
	if exactFirst {
		for _, a := range t {
			if key := aliasKey(a); key != "" && key == needle {
				return a.RoomID, true
			}
		}
	}
	for _, a := range t {
		if key := aliasKey(a); key != "" && strings.Contains(needle, key) {
			return a.RoomID, true
		}
	}
	return "", false
}

func aliasKey(a Alias) string {
	return strings.ToLower(strings.TrimSpace(a.Key))
}

// FromRooms derives an alias table from room names, in room order.
func FromRooms(rooms []models.Room) AliasTable {
	table := make(AliasTable, 0, len(rooms))
	for _, r := range rooms {
		if strings.TrimSpace(r.Name) == "" {
			continue
		}
		table = append(table, Alias{Key: r.Name, RoomID: r.ID})
	}
	return table
}

// UnmarshalYAML accepts either a mapping (key: room) whose order is kept, or
// a sequence of {key, room} objects.
func (t *AliasTable) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.MappingNode:
		table := make(AliasTable, 0, len(value.Content)/2)
		for i := 0; i+1 < len(value.Content); i += 2 {
			k, v := value.Content[i], value.Content[i+1]
			if v.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: alias %q must map to a room id", v.Line, k.Value)
			}
			table = append(table, Alias{Key: k.Value, RoomID: v.Value})
		}
		*t = table
		return nil
	case yaml.SequenceNode:
		var list []Alias
		if err := value.Decode(&list); err != nil {
			return err
		}
		*t = list
		return nil
	default:
		return fmt.Errorf("line %d: alias table must be a mapping or a list", value.Line)
	}
}

// ParseAliasYAML decodes an alias table document.
func ParseAliasYAML(data []byte) (AliasTable, error) {
	var table AliasTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse alias table: %w", err)
	}
	return table, nil
}
