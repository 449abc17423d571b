package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/floorplan-inventory/backend/internal/csvimport"
	"github.com/floorplan-inventory/backend/internal/geometry"
	"github.com/floorplan-inventory/backend/internal/inventory"
	"github.com/floorplan-inventory/backend/internal/models"
	"github.com/floorplan-inventory/backend/internal/persistence"
	"github.com/floorplan-inventory/backend/internal/selection"
	"github.com/floorplan-inventory/backend/internal/storage"
)

var fixedTime = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

// MockPersister implements inventory.Persister for testing
type MockPersister struct {
	mock.Mock
}

func (m *MockPersister) Save(ctx context.Context, building models.Building, currentFloorID string) error {
	args := m.Called(ctx, building, currentFloorID)
	return args.Error(0)
}

type testEnv struct {
	store   *inventory.Store
	session *selection.Session
	engine  *gin.Engine
}

func setupTestHandler(t *testing.T, persister inventory.Persister, opts Options) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	if persister == nil {
		persister = persistence.NewAdapter(storage.NewMemoryStore(), "inventoryData", logger)
	}
	store := inventory.New(
		models.Building{Name: "Моё здание", Organization: "Главная организация"},
		"", persister, logger,
		inventory.WithClock(func() time.Time { return fixedTime }),
	)

	if opts.Grid == (geometry.Grid{}) {
		opts.Grid = geometry.Grid{Size: 20, Snap: true}
	}
	if opts.Canvas == (geometry.Size{}) {
		opts.Canvas = geometry.Size{Width: 1200, Height: 800}
	}
	opts.Now = func() time.Time { return fixedTime }
	session := selection.NewSession(store, opts.Grid, opts.Canvas, logger)

	handler := NewHandler(store, session, opts, logger)
	engine := gin.New()
	rg := engine.Group("/api/v1")
	handler.RegisterRoutes(rg)

	return &testEnv{store: store, session: session, engine: engine}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var envelope struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope), w.Body.String())
	return envelope.Data
}

// seed creates a floor with one room and returns their ids.
func (e *testEnv) seed(t *testing.T) (string, string) {
	t.Helper()
	ctx := context.Background()
	floor, err := e.store.AddFloor(ctx, "Этаж 1")
	require.NoError(t, err)
	room, err := e.store.AddRoom(ctx, floor.ID, "#a5d8ff")
	require.NoError(t, err)
	return floor.ID, room.ID
}

func TestCreateFloor(t *testing.T) {
	env := setupTestHandler(t, nil, Options{})

	w := env.do(t, http.MethodGet, "/api/v1/floors/suggested-name", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Этаж 1", decodeData[map[string]string](t, w)["name"])

	w = env.do(t, http.MethodPost, "/api/v1/floors", `{"name": "Этаж 1"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	floor := decodeData[models.Floor](t, w)
	assert.Equal(t, "Этаж 1", floor.Name)
	assert.Equal(t, floor.ID, env.store.CurrentFloorID())
	assert.Empty(t, w.Header().Get(PersistenceErrorHeader))
}

func TestCreateFloor_EmptyNameIsNoop(t *testing.T) {
	env := setupTestHandler(t, nil, Options{})

	w := env.do(t, http.MethodPost, "/api/v1/floors", `{"name": "  "}`)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, env.store.Building().Floors)
}

func TestGetBuilding(t *testing.T) {
	env := setupTestHandler(t, nil, Options{})
	floorID, _ := env.seed(t)

	w := env.do(t, http.MethodGet, "/api/v1/building", "")
	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeData[models.BuildingResponse](t, w)
	assert.Equal(t, "Моё здание", resp.Building.Name)
	assert.Equal(t, floorID, resp.CurrentFloorID)
	require.Len(t, resp.Building.Floors, 1)
	assert.Len(t, resp.Building.Floors[0].Rooms, 1)
}

func TestUpdateBuilding(t *testing.T) {
	env := setupTestHandler(t, nil, Options{})

	w := env.do(t, http.MethodPatch, "/api/v1/building", `{"name": "Офис", "organization": "ООО Ромашка"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	b := decodeData[models.Building](t, w)
	assert.Equal(t, "Офис", b.Name)
	assert.Equal(t, "ООО Ромашка", b.Organization)

	w = env.do(t, http.MethodPatch, "/api/v1/building", `{"name": ""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetPalette(t *testing.T) {
	env := setupTestHandler(t, nil, Options{})

	w := env.do(t, http.MethodGet, "/api/v1/palette", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.Palette, decodeData[[]string](t, w))
}

func TestCreateRoom(t *testing.T) {
	env := setupTestHandler(t, nil, Options{})
	floorID, _ := env.seed(t)

	w := env.do(t, http.MethodPost, "/api/v1/floors/"+floorID+"/rooms", `{"color": "#ffc9c9"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	room := decodeData[models.Room](t, w)
	assert.Equal(t, "#ffc9c9", room.Color)
	assert.Equal(t, "Главная организация", room.Organization)

	w = env.do(t, http.MethodPost, "/api/v1/floors/floor-missing/rooms", `{"color": "#ffc9c9"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/floors/"+floorID+"/rooms", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateRoomGeometry_IsNormalized(t *testing.T) {
	env := setupTestHandler(t, nil, Options{})
	_, roomID := env.seed(t)

	w := env.do(t, http.MethodPut, "/api/v1/rooms/"+roomID+"/geometry", `{"x": 1150, "y": -10, "width": 30, "height": 300}`)
	assert.Equal(t, http.StatusOK, w.Code)
	rect := decodeData[geometry.Rect](t, w)
	assert.Equal(t, geometry.Rect{X: 1100, Y: 0, Width: 100, Height: 300}, rect)

	room, _, err := env.store.Room(roomID)
	require.NoError(t, err)
	assert.Equal(t, 1100.0, room.X)
	assert.Equal(t, 100.0, room.Width)

	w = env.do(t, http.MethodPut, "/api/v1/rooms/room-missing/geometry", `{"x": 0, "y": 0, "width": 100, "height": 100}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestItemLifecycle(t *testing.T) {
	env := setupTestHandler(t, nil, Options{})
	_, roomID := env.seed(t)

	w := env.do(t, http.MethodPost, "/api/v1/rooms/"+roomID+"/items", `{"name": "Chair", "inventoryNumber": "INV-001"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	item := decodeData[models.Item](t, w)
	assert.Equal(t, "Chair", item.Name)
	assert.Equal(t, "Главная организация", item.Organization)
	assert.Equal(t, fixedTime, item.CreatedAt)

	w = env.do(t, http.MethodPost, "/api/v1/rooms/"+roomID+"/items", `{"name": "   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var errResp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, "invalid_request", errResp.Error)

	w = env.do(t, http.MethodPut, "/api/v1/items/"+item.ID, `{"name": "Desk", "inventoryNumber": "INV-002", "comment": "new"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Desk", decodeData[models.Item](t, w).Name)

	w = env.do(t, http.MethodPut, "/api/v1/items/item-missing", `{"name": "Desk"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// without confirmation nothing is removed
	w = env.do(t, http.MethodDelete, "/api/v1/rooms/"+roomID+"/items/0", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decodeData[map[string]bool](t, w)["deleted"])
	room, _, _ := env.store.Room(roomID)
	assert.Len(t, room.Items, 1)

	w = env.do(t, http.MethodDelete, "/api/v1/rooms/"+roomID+"/items/0?confirm=true", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeData[map[string]bool](t, w)["deleted"])
	room, _, _ = env.store.Room(roomID)
	assert.Empty(t, room.Items)

	w = env.do(t, http.MethodDelete, "/api/v1/rooms/"+roomID+"/items/0?confirm=true", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(t, http.MethodDelete, "/api/v1/rooms/"+roomID+"/items/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPersistenceFailureIsFlagged(t *testing.T) {
	p := new(MockPersister)
	p.On("Save", mock.Anything, mock.Anything, mock.Anything).
		Return(fmt.Errorf("%w: quota exceeded", models.ErrPersistence))
	env := setupTestHandler(t, p, Options{})

	w := env.do(t, http.MethodPost, "/api/v1/floors", `{"name": "Этаж 1"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Header().Get(PersistenceErrorHeader), "quota exceeded")
	assert.Len(t, env.store.Building().Floors, 1)
	p.AssertExpectations(t)
}

func TestPersistenceFailure_OnlyFlagsRequestsThatSaved(t *testing.T) {
	p := new(MockPersister)
	p.On("Save", mock.Anything, mock.Anything, mock.Anything).
		Return(fmt.Errorf("%w: disk full", models.ErrPersistence)).Times(3)
	p.On("Save", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	env := setupTestHandler(t, p, Options{})

	// the failed saves happen outside any request
	_, roomID := env.seed(t)
	_, err := env.store.AddItem(context.Background(), roomID, inventory.ItemInput{Name: "Стол"})
	require.NoError(t, err)

	w := env.do(t, http.MethodDelete, "/api/v1/rooms/"+roomID+"/items/0", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get(PersistenceErrorHeader))

	w = env.do(t, http.MethodDelete, "/api/v1/rooms/"+roomID+"/items/0?confirm=true", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get(PersistenceErrorHeader))
	p.AssertNumberOfCalls(t, "Save", 4)
}

func TestInteraction_DragFlow(t *testing.T) {
	env := setupTestHandler(t, nil, Options{})
	_, roomID := env.seed(t)

	w := env.do(t, http.MethodPost, "/api/v1/interaction/drag", fmt.Sprintf(`{"roomId": %q, "x": 60, "y": 60}`, roomID))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPut, "/api/v1/selection/edit-mode", `{"enabled": true}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeData[selection.State](t, w).EditMode)

	w = env.do(t, http.MethodPost, "/api/v1/interaction/drag", fmt.Sprintf(`{"roomId": %q, "x": 60, "y": 60}`, roomID))
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/interaction/resize", fmt.Sprintf(`{"roomId": %q, "x": 60, "y": 60}`, roomID))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/interaction/move", `{"x": 147, "y": 93}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, geometry.Rect{X: 140, Y: 80, Width: 200, Height: 150}, decodeData[geometry.Rect](t, w))

	w = env.do(t, http.MethodPost, "/api/v1/interaction/end", `{"x": 147, "y": 93}`)
	assert.Equal(t, http.StatusOK, w.Code)
	room, _, _ := env.store.Room(roomID)
	assert.Equal(t, 140.0, room.X)
	assert.Equal(t, 80.0, room.Y)

	w = env.do(t, http.MethodPost, "/api/v1/interaction/end", `{"x": 0, "y": 0}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/interaction/cancel", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decodeData[map[string]bool](t, w)["cancelled"])
}

func TestSelectionAndSearch(t *testing.T) {
	env := setupTestHandler(t, nil, Options{})
	_, roomID := env.seed(t)
	item, err := env.store.AddItem(context.Background(), roomID, inventory.ItemInput{Name: "Монитор", InventoryNumber: "INV-5"})
	require.NoError(t, err)

	w := env.do(t, http.MethodPut, "/api/v1/selection/item", fmt.Sprintf(`{"id": %q}`, item.ID))
	assert.Equal(t, http.StatusOK, w.Code)
	st := decodeData[selection.State](t, w)
	assert.Equal(t, roomID, st.SelectedRoomID)
	assert.Equal(t, item.ID, st.SelectedItemID)

	w = env.do(t, http.MethodPut, "/api/v1/selection/room", `{"id": "room-missing"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/search?q="+url.QueryEscape("МОНИ"), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{roomID}, decodeData[[]string](t, w))

	w = env.do(t, http.MethodDelete, "/api/v1/search", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/selection", "")
	assert.Empty(t, decodeData[selection.State](t, w).Highlights)
}

func TestHitTest(t *testing.T) {
	env := setupTestHandler(t, nil, Options{})
	_, roomID := env.seed(t)

	w := env.do(t, http.MethodGet, "/api/v1/hit?x=100&y=100", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, roomID, decodeData[models.Room](t, w).ID)

	w = env.do(t, http.MethodGet, "/api/v1/hit?x=900&y=700", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/hit?x=abc&y=1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExports(t *testing.T) {
	env := setupTestHandler(t, nil, Options{})
	floorID, roomID := env.seed(t)
	_, err := env.store.AddItem(context.Background(), roomID, inventory.ItemInput{Name: "Chair", InventoryNumber: "INV-001"})
	require.NoError(t, err)

	w := env.do(t, http.MethodGet, "/api/v1/export/json", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "inventory_2024-03-15.json")
	b, err := persistence.ImportJSON(w.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, env.store.Building(), *b)

	w = env.do(t, http.MethodGet, "/api/v1/export/csv", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, contentTypeCSV, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), `"Chair";"INV-001"`)

	w = env.do(t, http.MethodGet, "/api/v1/export/xlsx", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))

	w = env.do(t, http.MethodGet, "/api/v1/floors/"+floorID+"/export/svg", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<svg")

	w = env.do(t, http.MethodGet, "/api/v1/floors/floor-missing/export/svg", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestImportJSON(t *testing.T) {
	env := setupTestHandler(t, nil, Options{})
	env.seed(t)

	doc := `{"version": "2.0", "building": {"name": "Imported", "organization": "X",
		"floors": [{"id": "f-1", "name": "A", "rooms": []}, {"id": "f-2", "name": "B", "rooms": []}]}}`
	w := env.do(t, http.MethodPost, "/api/v1/import/json", doc)
	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeData[models.BuildingResponse](t, w)
	assert.Equal(t, "Imported", resp.Building.Name)
	assert.Equal(t, "f-1", resp.CurrentFloorID)

	before := env.store.Building()
	w = env.do(t, http.MethodPost, "/api/v1/import/json", `{"building": {"floors": {}}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, before, env.store.Building())
}

func uploadCSV(t *testing.T, env *testEnv, path, content string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "inventory.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	return w
}

func TestImportCSV_ConfiguredAliases(t *testing.T) {
	env := setupTestHandler(t, nil, Options{Aliases: map[string]csvimport.AliasTable{
		"floor1": {{Key: "101", RoomID: "room103"}},
	}})
	env.store.ReplaceBuilding(context.Background(), models.Building{
		Floors: []models.Floor{{ID: "floor1", Name: "Этаж 1", Rooms: []models.Room{
			{ID: "room102", Name: "100"},
			{ID: "room103", Name: "101"},
		}}},
	})

	csv := "Наименование,Инвентарный номер,Комната,Комментарий\n" +
		"Монитор,INV5,Комната 101,ok\n" +
		"Стол,INV6,Комната 999,\n" +
		"broken\n"
	w := uploadCSV(t, env, "/api/v1/floors/floor1/import/csv", csv)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	summary := decodeData[models.ImportSummary](t, w)
	assert.Equal(t, models.ImportSummary{FloorID: "floor1", Imported: 1, Dropped: 1, Skipped: 1}, summary)

	room, _, err := env.store.Room("room103")
	require.NoError(t, err)
	require.Len(t, room.Items, 1)
	assert.Equal(t, "Монитор", room.Items[0].Name)
	assert.Equal(t, "INV5", room.Items[0].InventoryNumber)
	assert.Equal(t, "ok", room.Items[0].Comment)
}

func TestImportCSV_RoomNameAliasesAndErrors(t *testing.T) {
	env := setupTestHandler(t, nil, Options{})
	floorID, roomID := env.seed(t)
	_, err := env.store.AddItem(context.Background(), roomID, inventory.ItemInput{Name: "old"})
	require.NoError(t, err)

	// the raw body works as well as a multipart upload
	w := env.do(t, http.MethodPost, "/api/v1/floors/"+floorID+"/import/csv",
		"наименование,инвентарный,комната\nЛампа,L-1,новая комната\n")
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	room, _, _ := env.store.Room(roomID)
	require.Len(t, room.Items, 1)
	assert.Equal(t, "Лампа", room.Items[0].Name)

	before := env.store.Building()
	w = env.do(t, http.MethodPost, "/api/v1/floors/"+floorID+"/import/csv", "Наименование,Комната\nЛампа,x\n")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var errResp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, "invalid_format", errResp.Error)
	assert.Equal(t, before, env.store.Building())

	w = env.do(t, http.MethodPost, "/api/v1/floors/floor-missing/import/csv", "a,b,c\n1,2,3\n")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestImportLegacy(t *testing.T) {
	env := setupTestHandler(t, nil, Options{})
	floorID, roomID := env.seed(t)

	doc := fmt.Sprintf(`{%q: [{"name": "Стол", "inventory": "1", "comment": "c"}, {"name": " ", "inventory": "2"}], "room-gone": [{"name": "x"}]}`, roomID)
	w := env.do(t, http.MethodPost, "/api/v1/floors/"+floorID+"/import/legacy", doc)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	summary := decodeData[models.ImportSummary](t, w)
	assert.Equal(t, 1, summary.Imported)
	assert.Equal(t, 1, summary.Dropped)
	assert.Equal(t, 1, summary.Skipped)
	room, _, _ := env.store.Room(roomID)
	require.Len(t, room.Items, 1)
	assert.Equal(t, "Стол", room.Items[0].Name)

	w = env.do(t, http.MethodPost, "/api/v1/floors/"+floorID+"/import/legacy", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFail_UnknownErrorIs500(t *testing.T) {
	env := setupTestHandler(t, nil, Options{})

	h := NewHandler(env.store, env.session, Options{}, zap.NewNop())
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	h.fail(c, errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, strings.Contains(w.Body.String(), "boom"))
}
