package cmd

import (
	"context"
	"fmt"

	"github.com/kozaktomas/face-clock/internal/config"
	"github.com/kozaktomas/face-clock/internal/detect"
	"github.com/kozaktomas/face-clock/internal/enroll"
	"github.com/kozaktomas/face-clock/internal/recognition"
	"github.com/kozaktomas/face-clock/internal/store/postgres"
)

// services bundles everything a command needs. Close releases the
// database pool.
type services struct {
	cfg        *config.Config
	store      *postgres.Store
	pool       *postgres.Pool
	detector   *detect.Detector
	haar       *detect.HaarSource
	recognizer *recognition.Recognizer
	enroller   *enroll.Service
}

func (s *services) Close() {
	if s.haar != nil {
		_ = s.haar.Close()
	}
	if s.pool != nil {
		_ = s.pool.Close()
	}
}

// buildServices opens the database, loads the cascade, and wires the
// recognition stack. A missing cascade degrades detection explicitly
// instead of failing: the store-facing commands still work.
func buildServices() (*services, error) {
	cfg := config.Load()

	st, pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("database setup failed: %w", err)
	}

	var haar *detect.HaarSource
	var src detect.BoxSource
	if haar, err = detect.NewHaarSource(cfg.Detector); err != nil {
		fmt.Printf("Warning: face detection disabled: %v\n", err)
		haar = nil
	} else {
		src = haar
	}

	detector := detect.New(src, cfg.Detector)
	recognizer := recognition.New(detector, st, cfg.Recog)
	enroller := enroll.NewService(st, detector, recognizer, cfg.Recog, cfg.Samples)

	return &services{
		cfg:        cfg,
		store:      st,
		pool:       pool,
		detector:   detector,
		haar:       haar,
		recognizer: recognizer,
		enroller:   enroller,
	}, nil
}

// trainAtStartup builds the initial model so recognition works right
// after boot. An untrained outcome is normal before any enrollment.
func trainAtStartup(ctx context.Context, svcs *services) {
	event, err := svcs.recognizer.Train(ctx, nil)
	if err != nil {
		fmt.Printf("Warning: initial training failed: %v\n", err)
		return
	}
	if !event.Trained {
		fmt.Println("No trained model yet; enroll employees first.")
		return
	}
	fmt.Printf("Model trained: %d employees, %d instances\n", event.Employees, event.Instances)
}
