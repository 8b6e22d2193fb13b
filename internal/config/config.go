package config

import (
	_ "embed"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed tuning.yaml
var tuningYAML []byte

type Config struct {
	Database DatabaseConfig
	Camera   CameraConfig
	Detector DetectorConfig
	Recog    RecognitionConfig
	Session  SessionConfig
	Samples  SamplesConfig
	Web      WebConfig
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type CameraConfig struct {
	DeviceIndex int // preferred camera device index; probing starts here
	MaxProbe    int // number of device indices to probe before giving up
}

// DetectorConfig holds cascade detection and proximity gating parameters.
// Defaults come from the embedded tuning.yaml.
type DetectorConfig struct {
	CascadePath        string  // path to the Haar cascade XML
	ScaleFactor        float64 `yaml:"scale_factor"`
	MinNeighbors       int     `yaml:"min_neighbors"`
	MinFacePx          int     `yaml:"min_face_px"`
	MaxFacePx          int     `yaml:"max_face_px"`
	MinRecognitionPx   int     `yaml:"min_recognition_px"`
	MinAreaRatio       float64 `yaml:"min_area_ratio"`
	AvgFaceWidthInches float64 `yaml:"avg_face_width_inches"`
	FocalLength        float64 `yaml:"focal_length"`
	MinDistanceInches  float64 `yaml:"min_distance_inches"`
	MaxDistanceInches  float64 `yaml:"max_distance_inches"`
}

// RecognitionConfig holds classifier tuning. UnknownThreshold is the raw
// distance cutoff: lower distance means a better match, anything at or above
// the threshold is treated as an unknown face.
type RecognitionConfig struct {
	FaceSize           int     `yaml:"face_size"`
	UnknownThreshold   float64 `yaml:"unknown_threshold"`
	DuplicateThreshold float64 `yaml:"duplicate_threshold"`
	StabilityWindow    int     `yaml:"stability_window"`
}

type SessionConfig struct {
	StandbyAfterFrames  int `yaml:"standby_after_frames"`
	DisplayClearSeconds int `yaml:"display_clear_seconds"`
}

func (c SessionConfig) DisplayClearDelay() time.Duration {
	return time.Duration(c.DisplayClearSeconds) * time.Second
}

type SamplesConfig struct {
	Dir string // directory for captured face sample images
}

type WebConfig struct {
	Host string
	Port int
}

type tuningFile struct {
	Detector DetectorConfig    `yaml:"detector"`
	Recog    RecognitionConfig `yaml:"recognition"`
	Session  SessionConfig     `yaml:"session"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	var tuning tuningFile
	if err := yaml.Unmarshal(tuningYAML, &tuning); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded tuning.yaml: " + err.Error())
	}

	det := tuning.Detector
	det.CascadePath = envString("FACECLOCK_CASCADE_PATH", "haarcascade_frontalface_default.xml")
	det.ScaleFactor = envFloat("FACECLOCK_SCALE_FACTOR", det.ScaleFactor)
	det.MinNeighbors = envInt("FACECLOCK_MIN_NEIGHBORS", det.MinNeighbors)
	det.MinFacePx = envInt("FACECLOCK_MIN_FACE_PX", det.MinFacePx)
	det.MaxFacePx = envInt("FACECLOCK_MAX_FACE_PX", det.MaxFacePx)
	det.MinRecognitionPx = envInt("FACECLOCK_MIN_RECOGNITION_PX", det.MinRecognitionPx)
	det.MinAreaRatio = envFloat("FACECLOCK_MIN_AREA_RATIO", det.MinAreaRatio)
	det.MinDistanceInches = envFloat("FACECLOCK_MIN_DISTANCE_IN", det.MinDistanceInches)
	det.MaxDistanceInches = envFloat("FACECLOCK_MAX_DISTANCE_IN", det.MaxDistanceInches)

	rec := tuning.Recog
	rec.FaceSize = envInt("FACECLOCK_FACE_SIZE", rec.FaceSize)
	rec.UnknownThreshold = envFloat("FACECLOCK_UNKNOWN_THRESHOLD", rec.UnknownThreshold)
	rec.DuplicateThreshold = envFloat("FACECLOCK_DUPLICATE_THRESHOLD", rec.DuplicateThreshold)
	rec.StabilityWindow = envInt("FACECLOCK_STABILITY_WINDOW", rec.StabilityWindow)

	sess := tuning.Session
	sess.StandbyAfterFrames = envInt("FACECLOCK_STANDBY_AFTER_FRAMES", sess.StandbyAfterFrames)
	sess.DisplayClearSeconds = envInt("FACECLOCK_DISPLAY_CLEAR_SECONDS", sess.DisplayClearSeconds)

	return &Config{
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Camera: CameraConfig{
			DeviceIndex: envInt("FACECLOCK_CAMERA_INDEX", 0),
			MaxProbe:    envInt("FACECLOCK_CAMERA_PROBE", 5),
		},
		Detector: det,
		Recog:    rec,
		Session:  sess,
		Samples: SamplesConfig{
			Dir: envString("FACECLOCK_SAMPLES_DIR", "faces"),
		},
		Web: WebConfig{
			Host: envString("FACECLOCK_HOST", "0.0.0.0"),
			Port: envInt("FACECLOCK_PORT", 8080),
		},
	}
}
