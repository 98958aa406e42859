package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lazypower/engram/internal/config"
	"github.com/lazypower/engram/internal/engine"
)

var rootCmd = &cobra.Command{
	Use:   "engram",
	Short: "Tiered memory engine for long-lived identities",
	Long:  "Engram persists a stream of experience records and consolidates old ones into searchable digests. Single Go binary, local storage.",
}

var (
	flagConfig string
	flagRoot   string
)

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", "", "storage root (default ~/.engram)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(reindexCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(statsCmd)
}

// loadConfig resolves the effective config from flags, file, and defaults.
func loadConfig() (config.Config, error) {
	path := flagConfig
	if path == "" {
		if root, err := config.DefaultRoot(); err == nil {
			path = filepath.Join(root, "config.yaml")
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if flagRoot != "" {
		cfg.Storage.Root = flagRoot
	}
	if cfg.Storage.Root == "" {
		cfg.Storage.Root, err = config.DefaultRoot()
		if err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// openEngine builds an engine from the effective config.
func openEngine() (*engine.Engine, config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, cfg, err
	}
	eng, err := engine.Open(cfg.Storage.Root, engine.Options{
		Tier1MaxFileMB: cfg.Storage.Tier1MaxFileMB,
		Tier2MaxFileMB: cfg.Storage.Tier2MaxFileMB,
		IndexFile:      cfg.Storage.IndexFile,
	})
	if err != nil {
		return nil, cfg, fmt.Errorf("open engine: %w", err)
	}
	return eng, cfg, nil
}
