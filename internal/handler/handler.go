// Package handler exposes the floor plan inventory over HTTP.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/floorplan-inventory/backend/internal/csvimport"
	"github.com/floorplan-inventory/backend/internal/geometry"
	"github.com/floorplan-inventory/backend/internal/inventory"
	"github.com/floorplan-inventory/backend/internal/models"
	"github.com/floorplan-inventory/backend/internal/selection"
)

// PersistenceErrorHeader is set on responses to mutations whose state could
// not be saved. The mutation itself has been applied.
const PersistenceErrorHeader = "X-Persistence-Error"

const saveReportKey = "saveReport"

// Options configures a Handler.
type Options struct {
	Grid       geometry.Grid
	Canvas     geometry.Size
	Aliases    map[string]csvimport.AliasTable
	ExactFirst bool
	Now        func() time.Time
}

// Handler provides HTTP handlers for building, room and item operations.
type Handler struct {
	store   *inventory.Store
	session *selection.Session
	opts    Options
	logger  *zap.Logger
}

// NewHandler creates a new inventory handler.
func NewHandler(store *inventory.Store, session *selection.Session, opts Options, logger *zap.Logger) *Handler {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Aliases == nil {
		opts.Aliases = map[string]csvimport.AliasTable{}
	}
	return &Handler{
		store:   store,
		session: session,
		opts:    opts,
		logger:  logger,
	}
}

// RegisterRoutes registers the handler routes on the given router group.
func (h *Handler) RegisterRoutes(parent *gin.RouterGroup) {
	rg := parent.Group("", trackSaves)

	rg.GET("/building", h.GetBuilding)
	rg.PATCH("/building", h.UpdateBuilding)
	rg.GET("/palette", h.GetPalette)

	rg.GET("/floors/suggested-name", h.SuggestFloorName)
	rg.POST("/floors", h.CreateFloor)
	rg.POST("/floors/:id/select", h.SelectFloor)
	rg.POST("/floors/:id/rooms", h.CreateRoom)

	rg.PATCH("/rooms/:id", h.UpdateRoom)
	rg.PUT("/rooms/:id/geometry", h.UpdateRoomGeometry)
	rg.POST("/rooms/:id/items", h.CreateItem)
	rg.DELETE("/rooms/:id/items/:index", h.DeleteItem)
	rg.PUT("/items/:id", h.UpdateItem)

	rg.GET("/selection", h.GetSelection)
	rg.PUT("/selection/edit-mode", h.SetEditMode)
	rg.PUT("/selection/room", h.SelectRoom)
	rg.PUT("/selection/item", h.SelectItem)

	rg.POST("/interaction/drag", h.BeginDrag)
	rg.POST("/interaction/resize", h.BeginResize)
	rg.POST("/interaction/move", h.MoveInteraction)
	rg.POST("/interaction/end", h.EndInteraction)
	rg.POST("/interaction/cancel", h.CancelInteraction)

	rg.GET("/search", h.Search)
	rg.DELETE("/search", h.ClearSearch)
	rg.GET("/hit", h.HitTest)

	rg.GET("/export/json", h.ExportJSON)
	rg.GET("/export/csv", h.ExportCSV)
	rg.GET("/export/xlsx", h.ExportXLSX)
	rg.GET("/floors/:id/export/svg", h.ExportFloorSVG)

	rg.POST("/import/json", h.ImportJSON)
	rg.POST("/floors/:id/import/csv", h.ImportCSV)
	rg.POST("/floors/:id/import/legacy", h.ImportLegacy)
}

// fail writes err as an ErrorResponse with the status matching its kind.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid_request", Message: err.Error()})
	case errors.Is(err, models.ErrInvalidFormat):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid_format", Message: err.Error()})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not_found", Message: err.Error()})
	case errors.Is(err, models.ErrConflict):
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: "conflict", Message: err.Error()})
	default:
		h.logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "internal_error", Message: "internal error"})
	}
}

func (h *Handler) badRequest(c *gin.Context, err error) {
	h.logger.Warn("Invalid request", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "invalid_request",
		Message: err.Error(),
	})
}

// trackSaves attaches a save report to the request context so that mutated
// flags only the saves made by this request.
func trackSaves(c *gin.Context) {
	ctx, report := inventory.WithSaveReport(c.Request.Context())
	c.Request = c.Request.WithContext(ctx)
	c.Set(saveReportKey, report)
	c.Next()
}

// mutated responds to a successful mutation, flagging a failed save.
func (h *Handler) mutated(c *gin.Context, status int, data any) {
	if v, ok := c.Get(saveReportKey); ok {
		if err := v.(*inventory.SaveReport).Err(); err != nil {
			c.Header(PersistenceErrorHeader, err.Error())
		}
	}
	if data == nil {
		c.Status(status)
		return
	}
	c.JSON(status, models.DataResponse{Data: data})
}
