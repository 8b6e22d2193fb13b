package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/kozaktomas/face-clock/internal/store"
)

// AttendanceHandler serves attendance records and manual corrections.
type AttendanceHandler struct {
	st store.Store
}

func NewAttendanceHandler(st store.Store) *AttendanceHandler {
	return &AttendanceHandler{st: st}
}

type attendanceRecordResponse struct {
	EmployeeID int64      `json:"employee_id"`
	Day        string     `json:"day"`
	TimeIn     *time.Time `json:"time_in"`
	TimeOut    *time.Time `json:"time_out"`
	StartBreak *time.Time `json:"start_break"`
	StopBreak  *time.Time `json:"stop_break"`
}

func toRecordResponse(rec store.AttendanceRecord) attendanceRecordResponse {
	return attendanceRecordResponse{
		EmployeeID: rec.EmployeeID,
		Day:        rec.Day.Format("2006-01-02"),
		TimeIn:     rec.TimeIn,
		TimeOut:    rec.TimeOut,
		StartBreak: rec.StartBreak,
		StopBreak:  rec.StopBreak,
	}
}

type dayEntryResponse struct {
	attendanceRecordResponse
	Code string `json:"code"`
	Name string `json:"name"`
}

// Today lists everyone's attendance for the current day.
func (h *AttendanceHandler) Today(w http.ResponseWriter, r *http.Request) {
	entries, err := h.st.EntriesForDay(r.Context(), time.Now())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load attendance")
		return
	}

	response := make([]dayEntryResponse, 0, len(entries))
	for _, e := range entries {
		response = append(response, dayEntryResponse{
			attendanceRecordResponse: toRecordResponse(e.AttendanceRecord),
			Code:                     e.Code,
			Name:                     e.Name,
		})
	}
	respondJSON(w, http.StatusOK, response)
}

// TodayStats returns per-action counts for the current day.
func (h *AttendanceHandler) TodayStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.st.StatsForDay(r.Context(), time.Now())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// Status reports which fields are set today for one employee.
func (h *AttendanceHandler) Status(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid employee id")
		return
	}

	status, err := h.st.DayStatus(r.Context(), id, time.Now())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load status")
		return
	}
	respondJSON(w, http.StatusOK, status)
}

// History returns the employee's records for the last ?days= days
// (default 30), newest first.
func (h *AttendanceHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid employee id")
		return
	}

	days := 30
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 365 {
			respondError(w, http.StatusBadRequest, "days must be between 1 and 365")
			return
		}
		days = n
	}

	records, err := h.st.History(r.Context(), id, days)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	response := make([]attendanceRecordResponse, 0, len(records))
	for _, rec := range records {
		response = append(response, toRecordResponse(rec))
	}
	respondJSON(w, http.StatusOK, response)
}

type logRequest struct {
	EmployeeID int64  `json:"employee_id"`
	Action     string `json:"action"`
}

type logResponse struct {
	Logged  bool   `json:"logged"`
	Message string `json:"message"`
}

// Log records a manual attendance action for an employee, subject to
// the same set-once-per-day rule as the kiosk.
func (h *AttendanceHandler) Log(w http.ResponseWriter, r *http.Request) {
	var req logRequest
	if err := decodeJSON(r, &req); err != nil || req.EmployeeID <= 0 {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	action := store.Action(req.Action)
	if !action.Valid() {
		respondError(w, http.StatusBadRequest, "unknown action")
		return
	}

	emp, err := h.st.GetEmployeeByID(r.Context(), req.EmployeeID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load employee")
		return
	}
	if emp == nil {
		respondError(w, http.StatusNotFound, "employee not found")
		return
	}

	logged, message, err := h.st.LogAttendance(r.Context(), req.EmployeeID, action, time.Now())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to log attendance")
		return
	}
	respondJSON(w, http.StatusOK, logResponse{Logged: logged, Message: message})
}
