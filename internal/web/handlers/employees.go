package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/kozaktomas/face-clock/internal/recognition"
	"github.com/kozaktomas/face-clock/internal/store"
)

// Retrainer rebuilds the recognition model; satisfied by the recognizer.
type Retrainer interface {
	Train(ctx context.Context, progress func(done, total int)) (recognition.RetrainEvent, error)
}

// EmployeesHandler manages employee records.
type EmployeesHandler struct {
	st      store.Store
	trainer Retrainer
}

func NewEmployeesHandler(st store.Store, trainer Retrainer) *EmployeesHandler {
	return &EmployeesHandler{st: st, trainer: trainer}
}

type employeeResponse struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func toEmployeeResponse(e store.Employee) employeeResponse {
	return employeeResponse{ID: e.ID, Code: e.Code, Name: e.Name, CreatedAt: e.CreatedAt}
}

// List returns all employees, optionally filtered by ?search=.
func (h *EmployeesHandler) List(w http.ResponseWriter, r *http.Request) {
	employees, err := h.st.ListEmployees(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list employees")
		return
	}

	response := make([]employeeResponse, 0, len(employees))
	for _, e := range employees {
		response = append(response, toEmployeeResponse(e))
	}
	respondJSON(w, http.StatusOK, response)
}

// Get returns one employee by id.
func (h *EmployeesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid employee id")
		return
	}

	emp, err := h.st.GetEmployeeByID(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load employee")
		return
	}
	if emp == nil {
		respondError(w, http.StatusNotFound, "employee not found")
		return
	}
	respondJSON(w, http.StatusOK, toEmployeeResponse(*emp))
}

// Photo serves the employee's most recent face sample for profile
// display.
func (h *EmployeesHandler) Photo(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid employee id")
		return
	}

	emp, err := h.st.GetEmployeeByID(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load employee")
		return
	}
	if emp == nil {
		respondError(w, http.StatusNotFound, "employee not found")
		return
	}

	path, err := h.st.LatestSample(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load sample")
		return
	}
	if path == "" {
		respondError(w, http.StatusNotFound, "no face sample stored")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	http.ServeFile(w, r, path)
}

type updateEmployeeRequest struct {
	Name string `json:"name"`
}

// Update changes the employee's display name.
func (h *EmployeesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid employee id")
		return
	}

	var req updateEmployeeRequest
	if err := decodeJSON(r, &req); err != nil || req.Name == "" {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	emp, err := h.st.GetEmployeeByID(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load employee")
		return
	}
	if emp == nil {
		respondError(w, http.StatusNotFound, "employee not found")
		return
	}

	if err := h.st.UpdateEmployeeName(r.Context(), id, req.Name); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update employee")
		return
	}
	emp.Name = req.Name
	respondJSON(w, http.StatusOK, toEmployeeResponse(*emp))
}

// Delete removes an employee with all samples and attendance, then
// retrains so the model forgets the face.
func (h *EmployeesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid employee id")
		return
	}

	emp, err := h.st.GetEmployeeByID(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load employee")
		return
	}
	if emp == nil {
		respondError(w, http.StatusNotFound, "employee not found")
		return
	}

	if err := h.st.DeleteEmployee(r.Context(), id); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete employee")
		return
	}

	if _, err := h.trainer.Train(r.Context(), nil); err != nil {
		// The deletion went through; the stale model only matters
		// until the next successful training run.
		log.Printf("retrain after deleting employee %d failed: %v", id, err)
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
