package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/floorplan-inventory/backend/internal/geometry"
	"github.com/floorplan-inventory/backend/internal/inventory"
	"github.com/floorplan-inventory/backend/internal/models"
)

// GetBuilding returns the building and the open floor.
// @Summary Get building
// @Tags building
// @Produce json
// @Success 200 {object} models.DataResponse{data=models.BuildingResponse}
// @Router /api/v1/building [get]
func (h *Handler) GetBuilding(c *gin.Context) {
	c.JSON(http.StatusOK, models.DataResponse{Data: models.BuildingResponse{
		Building:       h.store.Building(),
		CurrentFloorID: h.store.CurrentFloorID(),
	}})
}

// UpdateBuilding renames the building or changes its organization.
// @Summary Update building
// @Tags building
// @Accept json
// @Produce json
// @Param building body models.UpdateBuildingRequest true "Building attributes"
// @Success 200 {object} models.DataResponse{data=models.Building}
// @Failure 400 {object} models.ErrorResponse
// @Router /api/v1/building [patch]
func (h *Handler) UpdateBuilding(c *gin.Context) {
	var req models.UpdateBuildingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	res, err := h.store.Dispatch(c.Request.Context(), inventory.UpdateBuilding{
		Patch: inventory.BuildingPatch{Name: req.Name, Organization: req.Organization},
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.mutated(c, http.StatusOK, res)
}

// GetPalette returns the room colour swatches.
func (h *Handler) GetPalette(c *gin.Context) {
	c.JSON(http.StatusOK, models.DataResponse{Data: models.Palette})
}

// SuggestFloorName proposes the name shown in the new floor prompt.
func (h *Handler) SuggestFloorName(c *gin.Context) {
	c.JSON(http.StatusOK, models.DataResponse{Data: gin.H{"name": h.store.SuggestFloorName()}})
}

// CreateFloor adds a floor and opens it. An empty name is a cancelled prompt
// and creates nothing.
// @Summary Create floor
// @Tags floors
// @Accept json
// @Produce json
// @Param floor body models.CreateFloorRequest true "Floor name"
// @Success 201 {object} models.DataResponse{data=models.Floor}
// @Success 204 "Cancelled"
// @Failure 400 {object} models.ErrorResponse
// @Router /api/v1/floors [post]
func (h *Handler) CreateFloor(c *gin.Context) {
	var req models.CreateFloorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		c.Status(http.StatusNoContent)
		return
	}

	res, err := h.store.Dispatch(c.Request.Context(), inventory.AddFloor{Name: req.Name})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.mutated(c, http.StatusCreated, res)
}

// SelectFloor opens a floor.
func (h *Handler) SelectFloor(c *gin.Context) {
	if _, err := h.store.Dispatch(c.Request.Context(), inventory.SelectFloor{FloorID: c.Param("id")}); err != nil {
		h.fail(c, err)
		return
	}
	h.mutated(c, http.StatusOK, gin.H{"currentFloorId": h.store.CurrentFloorID()})
}

// CreateRoom places a default room on a floor.
// @Summary Create room
// @Tags rooms
// @Accept json
// @Produce json
// @Param id path string true "Floor ID"
// @Param room body models.CreateRoomRequest true "Room colour"
// @Success 201 {object} models.DataResponse{data=models.Room}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/floors/{id}/rooms [post]
func (h *Handler) CreateRoom(c *gin.Context) {
	var req models.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	res, err := h.store.Dispatch(c.Request.Context(), inventory.AddRoom{FloorID: c.Param("id"), Color: req.Color})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.mutated(c, http.StatusCreated, res)
}

// UpdateRoom renames, re-assigns or recolours a room.
func (h *Handler) UpdateRoom(c *gin.Context) {
	var req models.UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	res, err := h.store.Dispatch(c.Request.Context(), inventory.UpdateRoom{
		RoomID: c.Param("id"),
		Patch:  inventory.RoomPatch{Name: req.Name, Organization: req.Organization, Color: req.Color},
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.mutated(c, http.StatusOK, res)
}

// UpdateRoomGeometry sets a room rectangle. The rectangle is forced to the
// minimum size and into the canvas before it is stored.
// @Summary Set room geometry
// @Tags rooms
// @Accept json
// @Produce json
// @Param id path string true "Room ID"
// @Param geometry body models.GeometryRequest true "Rectangle"
// @Success 200 {object} models.DataResponse{data=geometry.Rect}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/rooms/{id}/geometry [put]
func (h *Handler) UpdateRoomGeometry(c *gin.Context) {
	var req models.GeometryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	rect := geometry.Normalize(
		geometry.Rect{X: req.X, Y: req.Y, Width: req.Width, Height: req.Height},
		h.opts.Grid, h.opts.Canvas,
	)
	_, err := h.store.Dispatch(c.Request.Context(), inventory.UpdateRoomGeometry{
		RoomID: c.Param("id"), X: rect.X, Y: rect.Y, Width: rect.Width, Height: rect.Height,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.mutated(c, http.StatusOK, rect)
}

// CreateItem adds an item to a room.
// @Summary Create item
// @Tags items
// @Accept json
// @Produce json
// @Param id path string true "Room ID"
// @Param item body models.ItemRequest true "Item data"
// @Success 201 {object} models.DataResponse{data=models.Item}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/rooms/{id}/items [post]
func (h *Handler) CreateItem(c *gin.Context) {
	var req models.ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	res, err := h.store.Dispatch(c.Request.Context(), inventory.AddItem{RoomID: c.Param("id"), Input: itemInput(req)})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.mutated(c, http.StatusCreated, res)
}

// UpdateItem overwrites an item.
func (h *Handler) UpdateItem(c *gin.Context) {
	var req models.ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	res, err := h.store.Dispatch(c.Request.Context(), inventory.EditItem{ItemID: c.Param("id"), Input: itemInput(req)})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.mutated(c, http.StatusOK, res)
}

// DeleteItem removes the item at a position in a room. Nothing is removed
// unless the request carries confirm=true.
// @Summary Delete item
// @Tags items
// @Produce json
// @Param id path string true "Room ID"
// @Param index path int true "Item position"
// @Param confirm query bool false "Confirm deletion"
// @Success 200 {object} models.DataResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/rooms/{id}/items/{index} [delete]
func (h *Handler) DeleteItem(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		h.badRequest(c, errors.New("index must be an integer"))
		return
	}
	confirmed, _ := strconv.ParseBool(c.DefaultQuery("confirm", "false"))

	res, err := h.store.Dispatch(c.Request.Context(), inventory.DeleteItem{
		RoomID: c.Param("id"), Index: index, Confirmed: confirmed,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.mutated(c, http.StatusOK, gin.H{"deleted": res})
}

func itemInput(req models.ItemRequest) inventory.ItemInput {
	return inventory.ItemInput{
		Name:            req.Name,
		InventoryNumber: req.InventoryNumber,
		Organization:    req.Organization,
		Comment:         req.Comment,
	}
}
