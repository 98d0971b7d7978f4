package constants

import (
	"os"
	"path/filepath"
	"time"
)

func GetStoreKind() string {
	kind := os.Getenv("SIGHTREAD_STORE")
	if kind != "" {
		return kind
	}
	return "file"
}

func GetStoreDir() string {
	path := os.Getenv("SIGHTREAD_STORE_DIR")
	if path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "./.sightread"
	}
	return filepath.Join(home, ".config", "sightread")
}

func GetDynamoEndpoint() string {
	endpoint := os.Getenv("SIGHTREAD_DYNAMO_ENDPOINT")
	if endpoint != "" {
		return endpoint
	}
	return "http://localhost:8000"
}

func GetDynamoTable() string {
	table := os.Getenv("SIGHTREAD_DYNAMO_TABLE")
	if table != "" {
		return table
	}
	return "sightread-settings"
}

func GetDynamoRegion() string {
	region := os.Getenv("SIGHTREAD_DYNAMO_REGION")
	if region != "" {
		return region
	}
	return "localhost"
}

func GetSentryDSN() string {
	return os.Getenv("SENTRY_DSN")
}

func GetAddr() string {
	addr := os.Getenv("SIGHTREAD_ADDR")
	if addr != "" {
		return addr
	}
	return ":8080"
}

func GetDebug() bool {
	return os.Getenv("SIGHTREAD_DEBUG") != ""
}

// key the latency settings are stored under
const LatencyStorageKey = "midi-latency-config"

// notes generated when a session starts
const InitialBatch = 10

// the queue refills once fewer than RefillThreshold notes remain at or after
// the cursor, and tops back up to RefillLookahead
const RefillThreshold = 5
const RefillLookahead = 10

// played notes kept behind the cursor for rendering
const HistoryLimit = 32

const (
	CorrectGuard   = 100 * time.Millisecond
	IncorrectGuard = 200 * time.Millisecond
	FeedbackReset  = 500 * time.Millisecond
)

const (
	DefaultLatencyEnabled = true
	DefaultOffsetMs       = 50
	DefaultMinOffsetMs    = 0
	DefaultMaxOffsetMs    = 100
)
