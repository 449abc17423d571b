package persistence

import (
	"bytes"
	"fmt"
	"html"

	svg "github.com/ajstarks/svgo"

	"github.com/floorplan-inventory/backend/internal/geometry"
	"github.com/floorplan-inventory/backend/internal/models"
)

// ExportFloorSVG draws the floor's rooms on a canvas-sized SVG: one filled
// rectangle per room with its name and item count.
func ExportFloorSVG(floor models.Floor, canvas geometry.Size) []byte {
	var buf bytes.Buffer
	s := svg.New(&buf)

	width, height := int(canvas.Width), int(canvas.Height)
	s.Start(width, height)
	s.Title(floor.Name)
	s.Rect(0, 0, width, height, "fill:#ffffff;stroke:#dee2e6;stroke-width:1")

	for _, room := range floor.Rooms {
		x, y := int(room.X), int(room.Y)
		w, h := int(room.Width), int(room.Height)
		s.Group(fmt.Sprintf(`id="%s"`, html.EscapeString(room.ID)))
		s.Rect(x, y, w, h, fmt.Sprintf("fill:%s;stroke:#495057;stroke-width:1", fillColor(room.Color)))
		s.Text(x+w/2, y+h/2, room.Name, "text-anchor:middle;font-size:14px;fill:#212529")
		s.Text(x+w/2, y+h/2+18, fmt.Sprintf("%d", len(room.Items)), "text-anchor:middle;font-size:11px;fill:#495057")
		s.Gend()
	}

	s.End()
	return buf.Bytes()
}

func fillColor(color string) string {
	if color == "" {
		return models.Palette[0]
	}
	return html.EscapeString(color)
}
