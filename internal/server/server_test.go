package server_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/chasemp/mealplanner/internal/db"
	"github.com/chasemp/mealplanner/internal/model"
	"github.com/chasemp/mealplanner/internal/server"
	"github.com/chasemp/mealplanner/internal/service"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// database/sql keeps a connection opener goroutine per *sql.DB until Close.
		goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"),
	)
}

var sunday = time.Date(2025, time.September, 21, 0, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*server.Server, *sql.DB) {
	t.Helper()
	sqldb, err := db.OpenMigrated(filepath.Join(t.TempDir(), "mealplan.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqldb.Close() })
	require.NoError(t, service.SeedDemoData(sqldb))

	srv := server.New(server.Options{
		DB:      sqldb,
		Logger:  zaptest.NewLogger(t),
		Planner: service.PlannerSettings{Weeks: 1, MealsPerWeek: 3, SpacingDays: 2, MealType: model.MealTypeDinner},
		Now:     func() time.Time { return sunday },
	})
	return srv, sqldb
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndRecipes(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := do(t, h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/recipes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var recipes []model.Recipe
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recipes))
	assert.Len(t, recipes, 6)
	assert.Equal(t, "Spaghetti Bolognese", recipes[0].Title)
}

func TestGeneratePlanThenGrocery(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := do(t, h, http.MethodPost, "/api/plan", map[string]any{
		"recipes": []string{"Bean Tacos", "Chicken Stir Fry"},
		"weeks":   2,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var plan service.GeneratePlanResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plan))
	require.Len(t, plan.Meals, 6)
	assert.Equal(t, "2025-09-21", plan.Meals[0].Date)
	assert.Equal(t, model.MealTypeDinner, plan.Meals[0].MealType)

	rec = do(t, h, http.MethodGet, "/api/meals?from=2025-09-21&to=2025-09-27", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var meals []model.ScheduledMeal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &meals))
	assert.Len(t, meals, 3)

	rec = do(t, h, http.MethodGet, "/api/grocery?from=2025-09-21&to=2025-10-04", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var flat struct {
		Meals int                 `json:"meals"`
		Items []model.GroceryItem `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &flat))
	assert.Equal(t, 6, flat.Meals)
	assert.NotEmpty(t, flat.Items)
	for _, it := range flat.Items {
		assert.Positive(t, it.AdjustedQuantity)
	}

	rec = do(t, h, http.MethodGet, "/api/grocery?from=2025-09-21&to=2025-10-04&grouped=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var grouped struct {
		Groups []service.GroceryGroup `json:"groups"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &grouped))
	total := 0
	for _, g := range grouped.Groups {
		total += len(g.Items)
	}
	assert.Equal(t, len(flat.Items), total)
}

func TestBadRequests(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	cases := []struct {
		method string
		target string
		body   any
	}{
		{http.MethodGet, "/api/meals?from=yesterday", nil},
		{http.MethodGet, "/api/meals?meal_type=brunch", nil},
		{http.MethodGet, "/api/grocery?scale=maybe", nil},
		{http.MethodPost, "/api/plan", map[string]any{"recipes": []string{"Pizza"}}},
		{http.MethodPost, "/api/plan", map[string]any{"meals_per_week": 9}},
		{http.MethodPost, "/api/plan", map[string]any{"weeks": 1 << 40}},
		{http.MethodPost, "/api/plan", map[string]any{"start_date": "21/09/2025"}},
	}
	for _, tc := range cases {
		rec := do(t, h, tc.method, tc.target, tc.body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "%s %s", tc.method, tc.target)
		assert.Contains(t, rec.Body.String(), `"error"`)
	}
}

func TestPantryEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv.Handler(), http.MethodGet, "/api/pantry", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []service.PantryRow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	assert.NotEmpty(t, rows)
}

func TestServeStopsOnCancel(t *testing.T) {
	srv, _ := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	client.CloseIdleConnections()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
