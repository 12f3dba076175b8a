package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings shared by the CLI and the agent.
type Config struct {
	VaultPath     string
	JournalPath   string
	AgentSocket   string
	AutoLockAfter time.Duration
	LogLevel      string
	BackupDir     string

	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
	S3AccessKey    string
	S3SecretKey    string
}

// homeDir is a test seam for os.UserHomeDir.
var homeDir = os.UserHomeDir

// DataDir is where vaultkeeper keeps its files by default.
func DataDir() string {
	home, err := homeDir()
	if err != nil || home == "" {
		return ".vaultkeeper"
	}
	return filepath.Join(home, ".vaultkeeper")
}

// LoadDefaults populates c with defaults rooted at DataDir.
func (c *Config) LoadDefaults() {
	dir := DataDir()
	c.VaultPath = filepath.Join(dir, "default.vault")
	c.JournalPath = filepath.Join(dir, "journal.db")
	c.AgentSocket = filepath.Join(dir, "agent.sock")
	c.AutoLockAfter = 5 * time.Minute
	c.LogLevel = "info"
	c.BackupDir = filepath.Join(dir, "backups")
	c.S3Region = "us-east-1"
}

// S3Enabled reports whether backups should go to S3 rather than BackupDir.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != ""
}

// LoadConfig builds a Config from defaults, then the JSON file named by -c or
// -config (if any), then the remaining flags in os.Args.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load is LoadConfig over explicit arguments.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
