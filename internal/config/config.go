package config

import (
	"os"
	"strconv"
)

// Fixed pipeline constants. InputSize must match the size the model was
// trained with; ReadChunkSize bounds per-read memory while uploads stream in.
const (
	InputSize     = 224
	ReadChunkSize = 1 << 20 // 1 MiB
)

// ClassNames is index-aligned with the model's output vector.
var ClassNames = []string{
	"Cardboard",
	"Glass",
	"Metal",
	"Paper",
	"Plastic",
	"Trash",
	"Organic",
}

type Config struct {
	Port                string
	ModelPath           string
	MetricsPath         string
	ConfusionMatrixPath string
	MaxUploadBytes      int64
	MaxPixels           int64
	PredictTimeoutSec   int
}

func Load() *Config {
	return &Config{
		Port:                getEnv("PORT", "8080"),
		ModelPath:           getEnv("MODEL_PATH", "models/waste_classifier.onnx"),
		MetricsPath:         getEnv("METRICS_PATH", "outputs/metrics.json"),
		ConfusionMatrixPath: getEnv("CONFUSION_MATRIX_PATH", "outputs/confusion_matrix.png"),
		MaxUploadBytes:      getEnvInt64("MAX_UPLOAD_BYTES", 5<<20),
		MaxPixels:           getEnvInt64("MAX_PIXELS", 20_000_000),
		PredictTimeoutSec:   int(getEnvInt64("PREDICT_TIMEOUT_SECONDS", 30)),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt64(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return defaultVal
}
