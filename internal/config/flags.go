package config

import (
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/vaultkeeper/internal/flagx"
)

var knownFlags = []string{"-v", "-j", "-s", "-l", "-log", "-b", "-bucket", "-region", "-endpoint"}

// parseFlags overlays cfg with the flags it knows about; anything else in
// args is ignored so subcommands can keep their own flags.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("vaultkeeper", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.VaultPath, "v", cfg.VaultPath, "vault file path")
	fs.StringVar(&cfg.JournalPath, "j", cfg.JournalPath, "journal database path")
	fs.StringVar(&cfg.AgentSocket, "s", cfg.AgentSocket, "agent unix socket path")
	fs.DurationVar(&cfg.AutoLockAfter, "l", cfg.AutoLockAfter, "idle time before auto-lock")
	fs.StringVar(&cfg.LogLevel, "log", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.BackupDir, "b", cfg.BackupDir, "local backup directory")
	fs.StringVar(&cfg.S3Bucket, "bucket", cfg.S3Bucket, "S3 bucket for backups")
	fs.StringVar(&cfg.S3Region, "region", cfg.S3Region, "S3 region")
	fs.StringVar(&cfg.S3BaseEndpoint, "endpoint", cfg.S3BaseEndpoint, "S3-compatible endpoint")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}
	return nil
}
