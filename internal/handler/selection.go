package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/floorplan-inventory/backend/internal/geometry"
	"github.com/floorplan-inventory/backend/internal/models"
)

// GetSelection returns the selection, edit mode, highlights and running
// interaction.
func (h *Handler) GetSelection(c *gin.Context) {
	c.JSON(http.StatusOK, models.DataResponse{Data: h.session.Snapshot()})
}

// SetEditMode toggles room editing.
func (h *Handler) SetEditMode(c *gin.Context) {
	var req models.EditModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	h.session.SetEditMode(req.Enabled)
	c.JSON(http.StatusOK, models.DataResponse{Data: h.session.Snapshot()})
}

// SelectRoom selects a room, or clears the selection for an empty id.
func (h *Handler) SelectRoom(c *gin.Context) {
	var req models.SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if err := h.session.SelectRoom(req.ID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.DataResponse{Data: h.session.Snapshot()})
}

// SelectItem selects an item and its room.
func (h *Handler) SelectItem(c *gin.Context) {
	var req models.SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if err := h.session.SelectItem(req.ID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.DataResponse{Data: h.session.Snapshot()})
}

// BeginDrag starts moving a room.
// @Summary Begin drag
// @Tags interaction
// @Accept json
// @Produce json
// @Param pointer body models.PointerRequest true "Room and grab position"
// @Success 200 {object} models.DataResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/v1/interaction/drag [post]
func (h *Handler) BeginDrag(c *gin.Context) {
	h.begin(c, h.session.BeginDrag)
}

// BeginResize starts resizing a room.
func (h *Handler) BeginResize(c *gin.Context) {
	h.begin(c, h.session.BeginResize)
}

func (h *Handler) begin(c *gin.Context, start func(string, geometry.Point) error) {
	var req models.PointerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if req.RoomID == "" {
		h.badRequest(c, fmt.Errorf("roomId is required"))
		return
	}
	if err := start(req.RoomID, geometry.Point{X: req.X, Y: req.Y}); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.DataResponse{Data: h.session.Snapshot().Interaction})
}

// MoveInteraction returns the preview rectangle for a pointer position.
func (h *Handler) MoveInteraction(c *gin.Context) {
	var req models.PointerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	rect, err := h.session.Move(geometry.Point{X: req.X, Y: req.Y})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.DataResponse{Data: rect})
}

// EndInteraction commits the dragged or resized rectangle.
// @Summary End interaction
// @Tags interaction
// @Accept json
// @Produce json
// @Param pointer body models.PointerRequest true "Release position"
// @Success 200 {object} models.DataResponse{data=geometry.Rect}
// @Failure 409 {object} models.ErrorResponse
// @Router /api/v1/interaction/end [post]
func (h *Handler) EndInteraction(c *gin.Context) {
	var req models.PointerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	rect, err := h.session.End(c.Request.Context(), geometry.Point{X: req.X, Y: req.Y})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.mutated(c, http.StatusOK, rect)
}

// CancelInteraction discards the running interaction.
func (h *Handler) CancelInteraction(c *gin.Context) {
	c.JSON(http.StatusOK, models.DataResponse{Data: gin.H{"cancelled": h.session.Cancel()}})
}

// Search highlights rooms holding matching items.
func (h *Handler) Search(c *gin.Context) {
	c.JSON(http.StatusOK, models.DataResponse{Data: h.session.Search(c.Query("q"))})
}

// ClearSearch removes all highlights.
func (h *Handler) ClearSearch(c *gin.Context) {
	h.session.ClearSearch()
	c.Status(http.StatusNoContent)
}

// HitTest returns the topmost room at a canvas position on the open floor.
func (h *Handler) HitTest(c *gin.Context) {
	x, errX := strconv.ParseFloat(c.Query("x"), 64)
	y, errY := strconv.ParseFloat(c.Query("y"), 64)
	if errX != nil || errY != nil {
		h.badRequest(c, fmt.Errorf("x and y must be numbers"))
		return
	}

	room, ok := h.session.RoomAt(geometry.Point{X: x, Y: y})
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not_found", Message: "no room at position"})
		return
	}
	c.JSON(http.StatusOK, models.DataResponse{Data: room})
}
