package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-clock/internal/store"
	"github.com/kozaktomas/face-clock/internal/store/mock"
)

func attendanceRouter(st *mock.MockStore) *chi.Mux {
	h := NewAttendanceHandler(st)
	r := chi.NewRouter()
	r.Get("/attendance/today", h.Today)
	r.Get("/attendance/today/stats", h.TodayStats)
	r.Get("/employees/{id}/status", h.Status)
	r.Get("/employees/{id}/history", h.History)
	r.Post("/attendance", h.Log)
	return r
}

func TestManualLogAndStatus(t *testing.T) {
	st := mock.NewMockStore()
	emp, _ := st.AddEmployee(context.Background(), "Jane Doe")
	r := attendanceRouter(st)

	body := `{"employee_id":1,"action":"time_in"}`
	req := httptest.NewRequest(http.MethodPost, "/attendance", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var logged logResponse
	json.Unmarshal(rec.Body.Bytes(), &logged)
	if !logged.Logged {
		t.Fatalf("expected the action to be logged, got %+v", logged)
	}

	// Second attempt must surface as a rejection, not an error.
	req = httptest.NewRequest(http.MethodPost, "/attendance", strings.NewReader(body))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	json.Unmarshal(rec.Body.Bytes(), &logged)
	if logged.Logged || logged.Message == "" {
		t.Fatalf("expected an already-recorded rejection, got %+v", logged)
	}

	req = httptest.NewRequest(http.MethodGet, "/employees/1/status", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	var status store.DayStatus
	json.Unmarshal(rec.Body.Bytes(), &status)
	if !status.HasTimeIn || status.HasTimeOut {
		t.Fatalf("unexpected status %+v for employee %d", status, emp.ID)
	}
}

func TestManualLogValidation(t *testing.T) {
	st := mock.NewMockStore()
	st.AddEmployee(context.Background(), "Jane Doe")
	r := attendanceRouter(st)

	req := httptest.NewRequest(http.MethodPost, "/attendance", strings.NewReader(`{"employee_id":1,"action":"nap"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an unknown action, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/attendance", strings.NewReader(`{"employee_id":99,"action":"time_in"}`))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for a missing employee, got %d", rec.Code)
	}
}

func TestTodayAndStats(t *testing.T) {
	st := mock.NewMockStore()
	a, _ := st.AddEmployee(context.Background(), "A")
	b, _ := st.AddEmployee(context.Background(), "B")
	now := time.Now()
	st.LogAttendance(context.Background(), a.ID, store.ActionTimeIn, now)
	st.LogAttendance(context.Background(), b.ID, store.ActionTimeIn, now)
	st.LogAttendance(context.Background(), a.ID, store.ActionTimeOut, now)

	r := attendanceRouter(st)

	req := httptest.NewRequest(http.MethodGet, "/attendance/today", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	var entries []dayEntryResponse
	json.Unmarshal(rec.Body.Bytes(), &entries)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %+v", entries)
	}

	req = httptest.NewRequest(http.MethodGet, "/attendance/today/stats", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	var stats store.DayStats
	json.Unmarshal(rec.Body.Bytes(), &stats)
	if stats.TimeIn != 2 || stats.TimeOut != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestHistoryRange(t *testing.T) {
	st := mock.NewMockStore()
	emp, _ := st.AddEmployee(context.Background(), "Jane Doe")
	st.LogAttendance(context.Background(), emp.ID, store.ActionTimeIn, time.Now())

	r := attendanceRouter(st)

	req := httptest.NewRequest(http.MethodGet, "/employees/1/history?days=7", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var records []attendanceRecordResponse
	json.Unmarshal(rec.Body.Bytes(), &records)
	if len(records) != 1 || records[0].TimeIn == nil {
		t.Fatalf("unexpected history %+v", records)
	}

	req = httptest.NewRequest(http.MethodGet, "/employees/1/history?days=9999", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an out-of-range window, got %d", rec.Code)
	}
}
