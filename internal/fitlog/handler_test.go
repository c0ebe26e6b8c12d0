package fitlog_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/2beens/ironhub/internal/fitlog"
	"github.com/2beens/ironhub/internal/telemetry/metrics"

	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
)

// TestMain will run goleak after all tests have been run in the package
// to detect goroutine leaks
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type rateLimiterMock struct {
	allowed int
}

func (rl *rateLimiterMock) Allow(_ context.Context, _ string, _ redis_rate.Limit) (*redis_rate.Result, error) {
	return &redis_rate.Result{Allowed: rl.allowed}, nil
}

func testRouter(store fitlog.EventStore, allowedPerMin int) *mux.Router {
	service := fitlog.NewService(store, fitlog.NewTableCache(60), metrics.NewTestManager())
	handler := fitlog.NewHandler(service)

	r := mux.NewRouter()
	handler.SetupRoutes(r, &rateLimiterMock{allowed: allowedPerMin}, allowedPerMin)
	return r
}

func TestHandler_AddEntry(t *testing.T) {
	store := fitlog.NewStoreMock()
	router := testRouter(store, 10)

	entryJson, err := json.Marshal(validEntry("marko"))
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/fitlog/entries", bytes.NewReader(entryJson))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var event fitlog.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &event))
	assert.Equal(t, fitlog.KindTraining, event.Kind)
	assert.Equal(t, "marko", event.Owner)
	assert.Len(t, store.Rows(), 1)
}

func TestHandler_AddEntryValidation(t *testing.T) {
	store := fitlog.NewStoreMock()
	router := testRouter(store, 10)

	// owner is missing
	entryJson, err := json.Marshal(fitlog.Entry{
		Date: "2026-01-06", Kind: fitlog.KindWater, Label: "water",
	})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/fitlog/entries", bytes.NewReader(entryJson))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.Rows())
}

func TestHandler_AddEntryWrongContentType(t *testing.T) {
	router := testRouter(fitlog.NewStoreMock(), 10)

	req := httptest.NewRequest("POST", "/fitlog/entries", bytes.NewReader([]byte("date=2026-01-06")))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_AddEntryRateLimited(t *testing.T) {
	store := fitlog.NewStoreMock()
	router := testRouter(store, 0)

	entryJson, err := json.Marshal(validEntry("marko"))
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/fitlog/entries", bytes.NewReader(entryJson))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Empty(t, store.Rows())
}

func TestHandler_Dashboard(t *testing.T) {
	store := fitlog.NewStoreMock()
	store.Seed(testTable(
		row("2026-01-05", "Gewicht", "check-in", "83.5", "0", "0", "marko", "78"),
		row("2026-01-06", "Training", "Bankdrücken", "62.5", "3", "10", "marko", ""),
	))
	router := testRouter(store, 10)

	req := httptest.NewRequest("GET", "/fitlog/marko/dashboard", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var dashboard fitlog.Dashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dashboard))
	assert.Equal(t, "marko", dashboard.Owner)
	assert.Equal(t, 83.5, dashboard.LatestWeight)
	assert.Equal(t, 78.0, dashboard.GoalWeight)
	assert.Equal(t, "Bankdrücken", dashboard.LatestWorkout)
}

func TestHandler_ListEntriesEmpty(t *testing.T) {
	router := testRouter(fitlog.NewStoreMock(), 10)

	req := httptest.NewRequest("GET", "/fitlog/nobody/entries", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	// empty list, not null
	assert.Equal(t, "[]", rec.Body.String())
}

func TestHandler_DeleteLastEntry(t *testing.T) {
	store := fitlog.NewStoreMock()
	store.Seed(testTable(
		row("2026-01-05", "Kreatin", "creatine", "5", "0", "0", "marko", ""),
	))
	router := testRouter(store, 10)

	req := httptest.NewRequest("DELETE", "/fitlog/marko/entries/last", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, store.Rows())

	// nothing left to delete
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("DELETE", "/fitlog/marko/entries/last", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_DeletePlanEntry(t *testing.T) {
	store := fitlog.NewStoreMock()
	store.Seed(testTable(
		row("2026-01-04", "Plan", "Klimmzüge", "0", "0", "0", "marko", ""),
	))
	router := testRouter(store, 10)

	req := httptest.NewRequest("DELETE", "/fitlog/marko/plan/Klimmzüge", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, store.Rows())
}

func TestHandler_DeleteAllEntries(t *testing.T) {
	store := fitlog.NewStoreMock()
	store.Seed(testTable(
		row("2026-01-04", "Kreatin", "creatine", "5", "0", "0", "marko", ""),
		row("2026-01-05", "Wasser", "water", "0.5", "0", "0", "nina", ""),
	))
	router := testRouter(store, 10)

	req := httptest.NewRequest("DELETE", "/fitlog/marko", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"deleted":1}`, rec.Body.String())
	require.Len(t, store.Rows(), 1)
	assert.Equal(t, "nina", store.Rows()[0][6])
}

func TestHandler_StoreErrorMapping(t *testing.T) {
	ctrl := gomock.NewController(t)

	for _, tc := range []struct {
		name       string
		storeErr   error
		wantStatus int
	}{
		{"rate limited", fitlog.ErrRateLimited, http.StatusTooManyRequests},
		{"lost update", fitlog.ErrLostUpdate, http.StatusConflict},
		{"unavailable", fitlog.ErrStoreUnavailable, http.StatusInternalServerError},
	} {
		t.Run(tc.name, func(t *testing.T) {
			storeMock := NewMockEventStore(ctrl)
			router := testRouter(storeMock, 10)

			storeMock.EXPECT().ReadAll(gomock.Any()).Return(fitlog.NewTable(), nil)
			storeMock.EXPECT().WriteAll(gomock.Any(), gomock.Any(), 0).Return(tc.storeErr)

			entryJson, err := json.Marshal(validEntry("marko"))
			require.NoError(t, err)

			req := httptest.NewRequest("POST", "/fitlog/entries", bytes.NewReader(entryJson))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tc.wantStatus, rec.Code)
		})
	}
}
