package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the main server.
type Profile struct {
	// Mode can be "prod" or "dev"
	Mode string
	// Addr is the binding address for the server
	Addr string
	// Port is the binding port for the server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where switchboard stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of the server
	Version string

	// Conversation context settings
	HistoryLimit    int           // SWITCHBOARD_HISTORY_LIMIT (default: 10)
	EntityLimit     int           // SWITCHBOARD_ENTITY_LIMIT (default: 5)
	ContextTTL      time.Duration // SWITCHBOARD_CONTEXT_TTL (default: 24h)
	CleanupInterval time.Duration // SWITCHBOARD_CLEANUP_INTERVAL (default: 1h)

	// LLM configuration
	LLMAPIKey  string // SWITCHBOARD_LLM_API_KEY
	LLMBaseURL string // SWITCHBOARD_LLM_BASE_URL (default: https://api.openai.com/v1)
	LLMModel   string // SWITCHBOARD_LLM_MODEL (default: gpt-4o-mini)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsLLMEnabled returns true if a generation backend is configured.
// Without one the classifier runs on rules only and LLM-backed
// capabilities answer with canned guidance.
func (p *Profile) IsLLMEnabled() bool {
	return p.LLMAPIKey != ""
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads configuration from SWITCHBOARD_* environment variables.
func (p *Profile) FromEnv() {
	p.LLMAPIKey = os.Getenv("SWITCHBOARD_LLM_API_KEY")
	p.LLMBaseURL = getEnvOrDefault("SWITCHBOARD_LLM_BASE_URL", "https://api.openai.com/v1")
	p.LLMModel = getEnvOrDefault("SWITCHBOARD_LLM_MODEL", "gpt-4o-mini")

	if v := os.Getenv("SWITCHBOARD_CONTEXT_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			p.ContextTTL = d
		}
	}
	if v := os.Getenv("SWITCHBOARD_CLEANUP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			p.CleanupInterval = d
		}
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "dev"
	}

	if p.HistoryLimit <= 0 {
		p.HistoryLimit = 10
	}
	if p.EntityLimit <= 0 {
		p.EntityLimit = 5
	}
	if p.ContextTTL <= 0 {
		p.ContextTTL = 24 * time.Hour
	}
	if p.CleanupInterval <= 0 {
		p.CleanupInterval = time.Hour
	}

	if p.Driver == "sqlite" {
		dataDir, err := checkDataDir(p.Data)
		if err != nil {
			return errors.Wrap(err, "failed to check data directory")
		}
		p.Data = dataDir
		if p.DSN == "" {
			dbFile := fmt.Sprintf("switchboard_%s.db", p.Mode)
			p.DSN = filepath.Join(dataDir, dbFile)
		}
	}

	return nil
}
