package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ManuelReschke/ObservationDesk/app/models"
	"github.com/ManuelReschke/ObservationDesk/app/repository"
	"github.com/ManuelReschke/ObservationDesk/internal/pkg/dashboard"
)

// memoryRepo keeps observations in a map and answers aggregations with canned rows.
type memoryRepo struct {
	records    map[string]*models.Observation
	aggregated []interface{}
	count      int64
	err        error

	lastSearch string
	lastSet    bson.M
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{records: map[string]*models.Observation{}}
}

func (m *memoryRepo) Create(_ context.Context, obs *models.Observation) error {
	if m.err != nil {
		return m.err
	}
	obs.ID = primitive.NewObjectID()
	m.records[obs.ID.Hex()] = obs
	return nil
}

func (m *memoryRepo) GetByID(_ context.Context, id string) (*models.Observation, error) {
	if obs, ok := m.records[id]; ok {
		return obs, nil
	}
	return nil, repository.ErrObservationNotFound
}

func (m *memoryRepo) Update(_ context.Context, id string, set bson.M) (*models.Observation, error) {
	m.lastSet = set
	obs, ok := m.records[id]
	if !ok {
		return nil, repository.ErrObservationNotFound
	}
	if name, ok := set["name"].(string); ok {
		obs.Name = name
	}
	if val, ok := set["date"]; ok && val == nil {
		obs.Date = nil
	}
	return obs, nil
}

func (m *memoryRepo) Delete(_ context.Context, id string) (*models.Observation, error) {
	obs, ok := m.records[id]
	if !ok {
		return nil, repository.ErrObservationNotFound
	}
	delete(m.records, id)
	return obs, nil
}

func (m *memoryRepo) Search(_ context.Context, query string) ([]models.Observation, error) {
	m.lastSearch = query
	if m.err != nil {
		return nil, m.err
	}
	out := make([]models.Observation, 0, len(m.records))
	for _, obs := range m.records {
		out = append(out, *obs)
	}
	return out, nil
}

func (m *memoryRepo) FindNewest(context.Context, bson.D, int64) ([]models.Observation, error) {
	return nil, m.err
}

func (m *memoryRepo) Count(context.Context, bson.D) (int64, error) {
	return m.count, m.err
}

func (m *memoryRepo) Aggregate(ctx context.Context, _ mongo.Pipeline, results interface{}) error {
	if m.err != nil {
		return m.err
	}
	cur, err := mongo.NewCursorFromDocuments(m.aggregated, nil, nil)
	if err != nil {
		return err
	}
	return cur.All(ctx, results)
}

var fixedNow = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

func newTestApp(repo *memoryRepo) *fiber.App {
	svc := dashboard.NewService(repo, dashboard.ClockFunc(func() time.Time { return fixedNow }), dashboard.Config{CreatedAtFallback: true})
	dc := NewDashboardController(svc, time.Second)
	oc := NewObservationController(repo, time.Second)
	oc.now = func() time.Time { return fixedNow }

	app := fiber.New()
	app.Get("/forms-by-date", dc.HandleFormsByDate)
	app.Get("/total-forms", dc.HandleTotalForms)
	app.Get("/today-forms", dc.HandleTodayForms)
	app.Get("/observations", oc.HandleListObservations)
	app.Get("/observations/:id", oc.HandleGetObservation)
	app.Post("/observations", oc.HandleCreateObservation)
	app.Put("/observations/:id", oc.HandleUpdateObservation)
	app.Delete("/observations/:id", oc.HandleDeleteObservation)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, target, body string) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]interface{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp.StatusCode, decoded
}

func TestFormsByDateRejectsInvalidSingleDate(t *testing.T) {
	app := newTestApp(newMemoryRepo())

	status, body := doJSON(t, app, http.MethodGet, "/forms-by-date?date=2023-02-30", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Invalid date format. Use YYYY-MM-DD", body["error"])
}

func TestFormsByDateSingleDateEmpty(t *testing.T) {
	app := newTestApp(newMemoryRepo())

	status, body := doJSON(t, app, http.MethodGet, "/forms-by-date?date=2024-06-01", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "2024-06-01", body["date"])
	assert.Equal(t, float64(0), body["count"])
	assert.Nil(t, body["firstSubmission"])
	assert.Nil(t, body["lastSubmission"])
	assert.Equal(t, []interface{}{}, body["forms"])
}

func TestFormsByDateRangeReturnsArray(t *testing.T) {
	repo := newMemoryRepo()
	repo.aggregated = []interface{}{
		bson.D{{Key: "date", Value: "2024-01-01"}, {Key: "count", Value: int32(2)}},
	}
	app := newTestApp(repo)

	req := httptest.NewRequest(http.MethodGet, "/forms-by-date?startDate=2024-01-01&endDate=2024-01-31", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var rows []models.DailySummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rows))
	assert.Equal(t, []models.DailySummary{{Date: "2024-01-01", Count: 2}}, rows)
}

func TestFormsByDateDefaultEmptyArray(t *testing.T) {
	app := newTestApp(newMemoryRepo())

	req := httptest.NewRequest(http.MethodGet, "/forms-by-date", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "[]", string(raw))
}

func TestFormsByDateBackendFailure(t *testing.T) {
	repo := newMemoryRepo()
	repo.err = errors.New("server selection error")
	app := newTestApp(repo)

	status, body := doJSON(t, app, http.MethodGet, "/forms-by-date", "")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "Failed to fetch forms by date", body["error"])
}

func TestTotalForms(t *testing.T) {
	repo := newMemoryRepo()
	repo.count = 12
	app := newTestApp(repo)

	status, body := doJSON(t, app, http.MethodGet, "/total-forms", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(12), body["totalForms"])
	assert.NotContains(t, body, "dateRange")

	status, body = doJSON(t, app, http.MethodGet, "/total-forms?startDate=2024-01-01", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, map[string]interface{}{"startDate": "2024-01-01", "endDate": ""}, body["dateRange"])
}

func TestTodayForms(t *testing.T) {
	repo := newMemoryRepo()
	repo.aggregated = []interface{}{
		bson.D{{Key: "hour", Value: int32(9)}, {Key: "count", Value: int32(4)}},
	}
	app := newTestApp(repo)

	status, body := doJSON(t, app, http.MethodGet, "/today-forms", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "2024-06-15T00:00:00.000Z", body["date"])
	assert.Equal(t, float64(4), body["todayForms"])
	hourly := body["hourlyData"].([]interface{})
	require.Len(t, hourly, 24)
	assert.Equal(t, map[string]interface{}{"hour": float64(9), "count": float64(4)}, hourly[9])
}

func TestTodayFormsFailure(t *testing.T) {
	repo := newMemoryRepo()
	repo.err = errors.New("boom")
	app := newTestApp(repo)

	status, body := doJSON(t, app, http.MethodGet, "/today-forms", "")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Failed to fetch today's forms", body["error"])
	assert.NotContains(t, body, "details")
}

func TestObservationCRUD(t *testing.T) {
	repo := newMemoryRepo()
	app := newTestApp(repo)

	status, body := doJSON(t, app, http.MethodPost, "/observations", `{"name":"Blocked exit","location":"Hall 3","date":"2024-06-14"}`)
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "Observation Created", body["message"])
	created := body["observation"].(map[string]interface{})
	id := created["id"].(string)
	require.Len(t, id, 24)
	assert.Equal(t, "2024-06-14T00:00:00Z", created["date"])
	assert.Equal(t, "2024-06-15T10:00:00Z", created["createdAt"])

	status, body = doJSON(t, app, http.MethodGet, "/observations/"+id, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Blocked exit", body["observation"].(map[string]interface{})["name"])

	status, body = doJSON(t, app, http.MethodPut, "/observations/"+id, `{"name":"Exit cleared"}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Observation updated", body["message"])
	assert.Equal(t, "Exit cleared", body["observation"].(map[string]interface{})["name"])
	assert.Equal(t, fixedNow, repo.lastSet["updatedAt"])
	assert.NotContains(t, repo.lastSet, "location")

	status, body = doJSON(t, app, http.MethodGet, "/observations?search=exit", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["observations"], 1)
	assert.Equal(t, "exit", repo.lastSearch)

	status, body = doJSON(t, app, http.MethodDelete, "/observations/"+id, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Observation deleted", body["message"])

	status, body = doJSON(t, app, http.MethodDelete, "/observations/"+id, "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "Observation not found", body["message"])
}

func TestUpdateUnknownObservation(t *testing.T) {
	app := newTestApp(newMemoryRepo())

	status, body := doJSON(t, app, http.MethodPut, "/observations/"+primitive.NewObjectID().Hex(), `{"name":"x"}`)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "Observation not found", body["message"])
}

func TestUpdateObservationClearsDate(t *testing.T) {
	repo := newMemoryRepo()
	app := newTestApp(repo)

	status, body := doJSON(t, app, http.MethodPost, "/observations", `{"name":"Frayed cable","date":"2024-06-14"}`)
	require.Equal(t, fiber.StatusCreated, status)
	id := body["observation"].(map[string]interface{})["id"].(string)

	status, body = doJSON(t, app, http.MethodPut, "/observations/"+id, `{"date":""}`)
	require.Equal(t, fiber.StatusOK, status)
	require.Contains(t, repo.lastSet, "date")
	assert.Nil(t, repo.lastSet["date"])
	assert.NotContains(t, body["observation"].(map[string]interface{}), "date")
}

func TestCreateObservationValidation(t *testing.T) {
	app := newTestApp(newMemoryRepo())

	status, body := doJSON(t, app, http.MethodPost, "/observations", `{"date":"2023-02-29"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body["error"], "Date must be YYYY-MM-DD")

	status, body = doJSON(t, app, http.MethodPost, "/observations", `{"name":`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Invalid request payload", body["error"])
}

func TestCreateObservationBackendFailure(t *testing.T) {
	repo := newMemoryRepo()
	repo.err = errors.New("write concern error")
	app := newTestApp(repo)

	status, body := doJSON(t, app, http.MethodPost, "/observations", `{"name":"x"}`)
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "Failed to create observation", body["error"])
}
