// Package config loads runtime configuration for vaultctl and vaultagent.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-v string        vault file path
//	-j string        journal database path
//	-s string        agent unix socket path
//	-l duration      idle time before the agent locks the vault (e.g. 5m)
//	-log string      log level: debug, info, warn, error
//	-b string        local backup directory
//	-bucket string   S3 bucket for backups (enables S3 backups)
//	-region string   S3 region
//	-endpoint string S3-compatible endpoint URL
//
// # JSON schema
//
// Durations use timex.Duration, so they can be strings like "5m" or integer
// nanoseconds. S3 credentials are read from JSON only, never from flags:
//
//	{
//	  "vault_path": "/home/me/.vaultkeeper/default.vault",
//	  "journal_path": "/home/me/.vaultkeeper/journal.db",
//	  "agent_socket": "/home/me/.vaultkeeper/agent.sock",
//	  "auto_lock_after": "5m",
//	  "log_level": "info",
//	  "backup_dir": "/home/me/.vaultkeeper/backups",
//	  "s3_bucket": "my-vault-backups",
//	  "s3_region": "eu-central-1",
//	  "s3_base_endpoint": "http://localhost:9000",
//	  "s3_access_key": "...",
//	  "s3_secret_key": "..."
//	}
package config
