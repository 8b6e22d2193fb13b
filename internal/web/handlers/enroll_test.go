package handlers

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-clock/internal/config"
	"github.com/kozaktomas/face-clock/internal/detect"
	"github.com/kozaktomas/face-clock/internal/enroll"
	"github.com/kozaktomas/face-clock/internal/recognition"
	"github.com/kozaktomas/face-clock/internal/store/mock"
)

type fixedBoxSource struct {
	boxes []image.Rectangle
}

func (f *fixedBoxSource) DetectBoxes(image.Image) ([]image.Rectangle, error) {
	return f.boxes, nil
}

func texturedFrame(seed int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, 640, 480))
	state := uint32(seed)*2654435761 + 12345
	for y := 0; y < 480; y++ {
		for x := 0; x < 640; x++ {
			state = state*1664525 + 1013904223
			img.SetGray(x, y, color.Gray{Y: uint8(state >> 24)})
		}
	}
	return img
}

func enrollRouter(t *testing.T, st *mock.MockStore, boxes []image.Rectangle) *chi.Mux {
	t.Helper()
	detCfg := config.DetectorConfig{
		MinRecognitionPx:   60,
		MinAreaRatio:       0.008,
		AvgFaceWidthInches: 5.5,
		FocalLength:        500.0,
		MinDistanceInches:  5,
		MaxDistanceInches:  35,
	}
	recogCfg := config.RecognitionConfig{
		FaceSize:           100,
		UnknownThreshold:   100.0,
		DuplicateThreshold: 70.0,
		StabilityWindow:    3,
	}

	detector := detect.New(&fixedBoxSource{boxes: boxes}, detCfg)
	recognizer := recognition.New(detector, st, recogCfg)
	enroller := enroll.NewService(st, detector, recognizer, recogCfg, config.SamplesConfig{Dir: t.TempDir()})

	h := NewEnrollHandler(enroller, recognizer)
	r := chi.NewRouter()
	r.Post("/enroll", h.Enroll)
	r.Post("/train", h.Train)
	r.Get("/model", h.ModelStatus)
	return r
}

func multipartEnroll(t *testing.T, name string, frame image.Image, force bool) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("name", name)
	if force {
		mw.WriteField("force", "true")
	}
	fw, err := mw.CreateFormFile("image", "capture.png")
	if err != nil {
		t.Fatalf("could not create form file: %v", err)
	}
	if err := png.Encode(fw, frame); err != nil {
		t.Fatalf("could not encode frame: %v", err)
	}
	mw.Close()
	return &body, mw.FormDataContentType()
}

func TestEnrollEndpoint(t *testing.T) {
	st := mock.NewMockStore()
	box := image.Rect(100, 100, 250, 250)
	r := enrollRouter(t, st, []image.Rectangle{box})

	body, contentType := multipartEnroll(t, "Jane Doe", texturedFrame(1), false)
	req := httptest.NewRequest(http.MethodPost, "/enroll", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var emp employeeResponse
	json.Unmarshal(rec.Body.Bytes(), &emp)
	if emp.Name != "Jane Doe" || emp.Code == "" {
		t.Fatalf("unexpected employee %+v", emp)
	}

	// Model status now reports a trained model.
	req = httptest.NewRequest(http.MethodGet, "/model", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	var status recognition.RetrainEvent
	json.Unmarshal(rec.Body.Bytes(), &status)
	if !status.Trained || status.Employees != 1 {
		t.Fatalf("unexpected model status %+v", status)
	}
}

func TestEnrollDuplicateConflict(t *testing.T) {
	st := mock.NewMockStore()
	box := image.Rect(100, 100, 250, 250)
	r := enrollRouter(t, st, []image.Rectangle{box})

	frame := texturedFrame(1)

	body, contentType := multipartEnroll(t, "Jane Doe", frame, false)
	req := httptest.NewRequest(http.MethodPost, "/enroll", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	// Same face, new name: conflict with Jane's identity attached.
	body, contentType = multipartEnroll(t, "Jane Imposter", frame, false)
	req = httptest.NewRequest(http.MethodPost, "/enroll", body)
	req.Header.Set("Content-Type", contentType)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	var dup duplicateResponse
	json.Unmarshal(rec.Body.Bytes(), &dup)
	if !dup.Duplicate || dup.Employee == nil || dup.Employee.Name != "Jane Doe" {
		t.Fatalf("expected Jane in the conflict payload, got %+v", dup)
	}

	// Forcing enrolls anyway.
	body, contentType = multipartEnroll(t, "Jane Twin", frame, true)
	req = httptest.NewRequest(http.MethodPost, "/enroll", body)
	req.Header.Set("Content-Type", contentType)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 with force, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestEnrollNoFaceRejected(t *testing.T) {
	st := mock.NewMockStore()
	r := enrollRouter(t, st, nil)

	body, contentType := multipartEnroll(t, "Jane Doe", texturedFrame(1), false)
	req := httptest.NewRequest(http.MethodPost, "/enroll", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestEnrollValidation(t *testing.T) {
	st := mock.NewMockStore()
	r := enrollRouter(t, st, nil)

	body, contentType := multipartEnroll(t, "", texturedFrame(1), false)
	req := httptest.NewRequest(http.MethodPost, "/enroll", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a missing name, got %d", rec.Code)
	}
}

func TestTrainEndpointWithoutSamples(t *testing.T) {
	st := mock.NewMockStore()
	r := enrollRouter(t, st, nil)

	req := httptest.NewRequest(http.MethodPost, "/train", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var event recognition.RetrainEvent
	json.Unmarshal(rec.Body.Bytes(), &event)
	if event.Trained {
		t.Fatalf("no samples must leave the model untrained, got %+v", event)
	}
}
