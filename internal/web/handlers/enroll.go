package handlers

import (
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"

	"github.com/kozaktomas/face-clock/internal/enroll"
	"github.com/kozaktomas/face-clock/internal/recognition"
)

const maxUploadBytes = 16 << 20

// EnrollHandler registers employees from uploaded captures and exposes
// model training.
type EnrollHandler struct {
	enroller   *enroll.Service
	recognizer *recognition.Recognizer
}

func NewEnrollHandler(enroller *enroll.Service, recognizer *recognition.Recognizer) *EnrollHandler {
	return &EnrollHandler{enroller: enroller, recognizer: recognizer}
}

type duplicateResponse struct {
	Error      string            `json:"error"`
	Duplicate  bool              `json:"duplicate"`
	Employee   *employeeResponse `json:"employee,omitempty"`
	Confidence float64           `json:"confidence"`
}

// Enroll creates an employee from a multipart form: "name" (text),
// "image" (file), and optional "force" to override the duplicate guard.
func (h *EnrollHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	name := r.FormValue("name")
	if name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	force := r.FormValue("force") == "true"

	file, _, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	frame, _, err := image.Decode(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "could not decode image")
		return
	}

	emp, err := h.enroller.Enroll(r.Context(), name, frame, force)
	if err != nil {
		var dup *enroll.DuplicateError
		switch {
		case errors.Is(err, enroll.ErrNoFace):
			respondError(w, http.StatusUnprocessableEntity, "no usable face in the image")
		case errors.As(err, &dup):
			response := duplicateResponse{
				Error:      dup.Error(),
				Duplicate:  true,
				Confidence: dup.Confidence,
			}
			if dup.Employee != nil {
				resp := toEmployeeResponse(*dup.Employee)
				response.Employee = &resp
			}
			respondJSON(w, http.StatusConflict, response)
		default:
			respondError(w, http.StatusInternalServerError, "enrollment failed")
		}
		return
	}

	respondJSON(w, http.StatusCreated, toEmployeeResponse(emp))
}

// Train rebuilds the model from all stored samples.
func (h *EnrollHandler) Train(w http.ResponseWriter, r *http.Request) {
	event, err := h.recognizer.Train(r.Context(), nil)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "training failed")
		return
	}
	respondJSON(w, http.StatusOK, event)
}

// ModelStatus reports whether a model is trained and how big it is.
func (h *EnrollHandler) ModelStatus(w http.ResponseWriter, r *http.Request) {
	model := h.recognizer.Model()
	if model == nil {
		respondJSON(w, http.StatusOK, recognition.RetrainEvent{})
		return
	}
	respondJSON(w, http.StatusOK, recognition.RetrainEvent{
		Trained:   true,
		Employees: model.Employees(),
		Instances: model.Instances(),
	})
}
