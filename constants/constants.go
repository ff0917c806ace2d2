package constants

import (
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func GetPort() int {
	return envInt("MIDICOM_PORT", 8080)
}

// GetMidiDir is the sample library served under /midi.
func GetMidiDir() string {
	return envStr("MIDI_PATH", "./test_samples")
}

// GetOutputDir holds one directory per transcription job.
func GetOutputDir() string {
	return envStr("OUTPUT_PATH", "./out")
}

func GetMinNoteDuration() float64 {
	return envFloat("MIDICOM_MIN_NOTE_DURATION", 0.1)
}

func GetQuantizeMs() int {
	return envInt("MIDICOM_QUANTIZE_MS", 50)
}

func GetWorkers() int {
	return envInt("MIDICOM_WORKERS", 4)
}

// GetDynamoEndpoint is empty unless job metadata should go to DynamoDB.
func GetDynamoEndpoint() string {
	return envStr("DYNAMODB_ENDPOINT", "")
}

func GetDynamoTable() string {
	return envStr("DYNAMODB_TABLE", "midicom-jobs")
}

func GetAllowedOrigins() []string {
	var res []string
	for _, o := range strings.Split(envStr("MIDICOM_ALLOWED_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			res = append(res, o)
		}
	}
	return res
}

func GetLogLevel() logrus.Level {
	level, err := logrus.ParseLevel(envStr("MIDICOM_LOG_LEVEL", "info"))
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

const MaxUploadSize = 32 << 20
