package models

// CreateFloorRequest is the body of POST /floors. An empty name is a
// cancelled prompt.
type CreateFloorRequest struct {
	Name string `json:"name"`
}

// CreateRoomRequest is the body of POST /floors/:id/rooms.
type CreateRoomRequest struct {
	Color string `json:"color" binding:"required"`
}

// UpdateRoomRequest carries the editable room attributes. Nil fields are left as is.
type UpdateRoomRequest struct {
	Name         *string `json:"name,omitempty"`
	Organization *string `json:"organization,omitempty"`
	Color        *string `json:"color,omitempty"`
}

// UpdateBuildingRequest carries the editable building attributes.
type UpdateBuildingRequest struct {
	Name         *string `json:"name,omitempty"`
	Organization *string `json:"organization,omitempty"`
}

// GeometryRequest is the body of PUT /rooms/:id/geometry.
type GeometryRequest struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width" binding:"required"`
	Height float64 `json:"height" binding:"required"`
}

// ItemRequest is the body for creating or editing an item.
type ItemRequest struct {
	Name            string `json:"name"`
	InventoryNumber string `json:"inventoryNumber"`
	Organization    string `json:"organization"`
	Comment         string `json:"comment"`
}

// PointerRequest carries a pointer position in canvas coordinates.
type PointerRequest struct {
	RoomID string  `json:"roomId,omitempty"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// EditModeRequest toggles room editing on the canvas.
type EditModeRequest struct {
	Enabled bool `json:"enabled"`
}

// SelectRequest selects a room or an item by id. An empty id clears the selection.
type SelectRequest struct {
	ID string `json:"id"`
}

// DataResponse wraps a payload in the API response.
type DataResponse struct {
	Data any `json:"data"`
}

// BuildingResponse is the body of GET /building.
type BuildingResponse struct {
	Building       Building `json:"building"`
	CurrentFloorID string   `json:"currentFloorId,omitempty"`
}

// ImportSummary reports the outcome of a CSV or legacy import.
type ImportSummary struct {
	FloorID  string `json:"floorId"`
	Imported int    `json:"imported"`
	Dropped  int    `json:"dropped"`
	Skipped  int    `json:"skipped"`
}

// ErrorResponse represents an error response from the API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
