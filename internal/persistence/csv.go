package persistence

import (
	"strings"

	"github.com/floorplan-inventory/backend/internal/models"
)

// CSVHeader lists the export columns.
var CSVHeader = []string{"Этаж", "Комната", "Наименование", "Инв. номер", "Организация", "Комментарий"}

var csvEscaper = strings.NewReplacer(`"`, `""`, "\r\n", " ", "\n", " ", "\r", " ")

// ExportCSV writes one semicolon-delimited row per item, prefixed with a
// UTF-8 byte order mark.
func ExportCSV(building models.Building) []byte {
	var sb strings.Builder
	sb.Write(utf8BOM)
	sb.WriteString(strings.Join(CSVHeader, ";"))
	sb.WriteByte('\n')

	for _, row := range itemRows(building) {
		for i, value := range row {
			if i > 0 {
				sb.WriteByte(';')
			}
			sb.WriteByte('"')
			sb.WriteString(csvEscaper.Replace(value))
			sb.WriteByte('"')
		}
		sb.WriteByte('\n')
	}
	return []byte(sb.String())
}

// itemRows flattens the building into export rows in floor, room, item order.
func itemRows(building models.Building) [][]string {
	var rows [][]string
	for _, floor := range building.Floors {
		for _, room := range floor.Rooms {
			for _, item := range room.Items {
				rows = append(rows, []string{
					floor.Name,
					room.Name,
					item.Name,
					item.InventoryNumber,
					item.Organization,
					item.Comment,
				})
			}
		}
	}
	return rows
}
