package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/vaultkeeper/internal/flagx"
	"github.com/dmitrijs2005/vaultkeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Empty fields
// leave the corresponding Config value alone.
type JsonConfig struct {
	VaultPath      string          `json:"vault_path"`
	JournalPath    string          `json:"journal_path"`
	AgentSocket    string          `json:"agent_socket"`
	AutoLockAfter  *timex.Duration `json:"auto_lock_after"`
	LogLevel       string          `json:"log_level"`
	BackupDir      string          `json:"backup_dir"`
	S3Bucket       string          `json:"s3_bucket"`
	S3Region       string          `json:"s3_region"`
	S3BaseEndpoint string          `json:"s3_base_endpoint"`
	S3AccessKey    string          `json:"s3_access_key"`
	S3SecretKey    string          `json:"s3_secret_key"`
}

// parseJSON overlays cfg with the file named by -c / -config in args. No
// flag means no file and no change.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.VaultPath, jc.VaultPath)
	set(&cfg.JournalPath, jc.JournalPath)
	set(&cfg.AgentSocket, jc.AgentSocket)
	set(&cfg.LogLevel, jc.LogLevel)
	set(&cfg.BackupDir, jc.BackupDir)
	set(&cfg.S3Bucket, jc.S3Bucket)
	set(&cfg.S3Region, jc.S3Region)
	set(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	set(&cfg.S3AccessKey, jc.S3AccessKey)
	set(&cfg.S3SecretKey, jc.S3SecretKey)
	if jc.AutoLockAfter != nil {
		cfg.AutoLockAfter = jc.AutoLockAfter.Duration
	}

	return nil
}
