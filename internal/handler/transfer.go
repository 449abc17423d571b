package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/floorplan-inventory/backend/internal/csvimport"
	"github.com/floorplan-inventory/backend/internal/inventory"
	"github.com/floorplan-inventory/backend/internal/layout"
	"github.com/floorplan-inventory/backend/internal/models"
	"github.com/floorplan-inventory/backend/internal/persistence"
)

const (
	maxUploadSize = 10 << 20

	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeSVG  = "image/svg+xml"
)

// ExportJSON downloads the building as a versioned JSON document.
// @Summary Export JSON
// @Tags transfer
// @Produce json
// @Success 200 {object} persistence.Export
// @Router /api/v1/export/json [get]
func (h *Handler) ExportJSON(c *gin.Context) {
	now := h.opts.Now()
	data, err := persistence.ExportJSON(h.store.Building(), now)
	if err != nil {
		h.fail(c, err)
		return
	}
	attachment(c, persistence.FileName("json", now))
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

// ExportCSV downloads every item as a semicolon separated table.
func (h *Handler) ExportCSV(c *gin.Context) {
	attachment(c, persistence.FileName("csv", h.opts.Now()))
	c.Data(http.StatusOK, contentTypeCSV, persistence.ExportCSV(h.store.Building()))
}

// ExportXLSX downloads every item as a spreadsheet.
func (h *Handler) ExportXLSX(c *gin.Context) {
	data, err := persistence.ExportXLSX(h.store.Building())
	if err != nil {
		h.fail(c, err)
		return
	}
	attachment(c, persistence.FileName("xlsx", h.opts.Now()))
	c.Data(http.StatusOK, contentTypeXLSX, data)
}

// ExportFloorSVG renders a floor plan.
func (h *Handler) ExportFloorSVG(c *gin.Context) {
	floor, err := h.store.Floor(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, contentTypeSVG, persistence.ExportFloorSVG(floor, h.opts.Canvas))
}

// ImportJSON replaces the whole building with an exported document.
// @Summary Import JSON
// @Tags transfer
// @Accept json
// @Produce json
// @Success 200 {object} models.DataResponse{data=models.BuildingResponse}
// @Failure 400 {object} models.ErrorResponse
// @Router /api/v1/import/json [post]
func (h *Handler) ImportJSON(c *gin.Context) {
	data, err := readUpload(c)
	if err != nil {
		h.badRequest(c, err)
		return
	}
	building, err := persistence.ImportJSON(data)
	if err != nil {
		h.fail(c, err)
		return
	}
	if _, err := h.store.Dispatch(c.Request.Context(), inventory.ReplaceBuilding{Building: *building}); err != nil {
		h.fail(c, err)
		return
	}
	h.mutated(c, http.StatusOK, models.BuildingResponse{
		Building:       h.store.Building(),
		CurrentFloorID: h.store.CurrentFloorID(),
	})
}

// ImportCSV replaces the items on a floor with the rows of a CSV file. Room
// labels are resolved through the floor's alias table, or through the room
// names when none is configured.
// @Summary Import CSV
// @Tags transfer
// @Accept text/csv
// @Produce json
// @Param id path string true "Floor ID"
// @Success 200 {object} models.DataResponse{data=models.ImportSummary}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/floors/{id}/import/csv [post]
func (h *Handler) ImportCSV(c *gin.Context) {
	floorID := c.Param("id")
	floor, err := h.store.Floor(floorID)
	if err != nil {
		h.fail(c, err)
		return
	}
	data, err := readUpload(c)
	if err != nil {
		h.badRequest(c, err)
		return
	}

	aliases := h.opts.Aliases[floorID]
	if len(aliases) == 0 {
		aliases = csvimport.FromRooms(floor.Rooms)
	}
	result, err := csvimport.Resolver{Aliases: aliases, ExactFirst: h.opts.ExactFirst}.Resolve(data)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.applyRows(c, floorID, result.Rows, result.Dropped, result.Skipped)
}

// ImportLegacy replaces the items on a floor with a legacy per-room item map.
func (h *Handler) ImportLegacy(c *gin.Context) {
	floorID := c.Param("id")
	if _, err := h.store.Floor(floorID); err != nil {
		h.fail(c, err)
		return
	}
	data, err := readUpload(c)
	if err != nil {
		h.badRequest(c, err)
		return
	}
	rows, err := layout.DecodeLegacyItems(data)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.applyRows(c, floorID, rows, 0, 0)
}

func (h *Handler) applyRows(c *gin.Context, floorID string, rows []csvimport.Row, dropped, skipped int) {
	res, err := h.store.Dispatch(c.Request.Context(), inventory.ApplyImport{FloorID: floorID, Rows: rows})
	if err != nil {
		h.fail(c, err)
		return
	}
	summary := res.(models.ImportSummary)
	summary.Dropped += dropped
	summary.Skipped += skipped

	h.logger.Info("Import applied",
		zap.String("floor_id", floorID),
		zap.Int("imported", summary.Imported),
		zap.Int("dropped", summary.Dropped),
		zap.Int("skipped", summary.Skipped),
	)
	h.mutated(c, http.StatusOK, summary)
}

// readUpload returns the uploaded document, either the "file" part of a
// multipart form or the raw request body.
func readUpload(c *gin.Context) ([]byte, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("missing file: %w", err)
		}
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return readLimited(f)
	}
	return readLimited(c.Request.Body)
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxUploadSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxUploadSize {
		return nil, errors.New("upload exceeds 10 MiB")
	}
	return data, nil
}

func attachment(c *gin.Context, name string) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
}
