package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	cfgpkg "github.com/SortieWorks/sortiechart-cli/internal/config"
	"github.com/SortieWorks/sortiechart-cli/internal/dataset"
	"github.com/SortieWorks/sortiechart-cli/internal/intent"
	"github.com/SortieWorks/sortiechart-cli/internal/workspace"
)

var (
	// Global flags (wired to config)
	cfgFile    string
	debug      bool
	flagParser string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "sortiechart",
	Short: "SortieChart CLI: ask questions about flight data, get charts",
	Long:  `SortieChart answers natural-language chart requests ("draw a pie chart of percentage of airtime detected by pcl for high altitude slow speed orb flights") against CSV or SQLite datasets of flight and detection records.`,
}

// Execute is the entry point called by main.main()
func Execute() {
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.sortiechart/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&flagParser, "parser", "", "intent parser: vocab or model (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c

	if rootCmd.PersistentFlags().Changed("parser") && flagParser != "" {
		cfg.Parser = flagParser
	}
}

// buildParser selects the intent parser from config.
func buildParser() (intent.Parser, error) {
	if cfg == nil || cfg.Parser == "" || cfg.Parser == "vocab" {
		return intent.NewVocabParser(), nil
	}
	if cfg.Parser != "model" {
		return nil, fmt.Errorf("unknown parser %q (use vocab or model)", cfg.Parser)
	}
	return intent.NewModelParser(
		cfg.OllamaHost,
		cfg.OllamaModel,
		time.Duration(cfg.OllamaTimeoutSec)*time.Second,
		cfg.RetryMaxAttempts,
		time.Duration(cfg.RetryBaseDelayMs)*time.Millisecond,
		time.Duration(cfg.RetryMaxDelayMs)*time.Millisecond,
	), nil
}

// loadDatasets assembles the session datasets from --data/--db flags
// or a named workspace.
func loadDatasets(dataPaths []string, dbPath, table, wsName string) (map[string]*dataset.Dataset, error) {
	out := make(map[string]*dataset.Dataset)
	if wsName != "" {
		ws, err := loadWorkspace(wsName)
		if err != nil {
			return nil, err
		}
		loaded, err := ws.LoadDatasets()
		if err != nil {
			return nil, err
		}
		for name, d := range loaded {
			out[name] = d
		}
	}
	for _, p := range dataPaths {
		d, err := dataset.LoadCSV(p, 0)
		if err != nil {
			return nil, err
		}
		out[d.Name()] = d
	}
	if dbPath != "" {
		if table == "" {
			return nil, fmt.Errorf("--table is required with --db")
		}
		d, err := dataset.LoadSQLite(dbPath, table)
		if err != nil {
			return nil, err
		}
		out[d.Name()] = d
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no datasets given: use --data, --db, or --workspace")
	}
	return out, nil
}

// ensureConfig lazily loads the global config for commands that can
// run before loadConfig succeeded (or after it warned and left cfg
// nil).
func ensureConfig() error {
	if cfg != nil {
		return nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return err
	}
	cfg = c
	return nil
}

func loadWorkspace(name string) (*workspace.Workspace, error) {
	dir, err := workspaceDir(name)
	if err != nil {
		return nil, err
	}
	return workspace.Load(dir)
}

func workspaceDir(name string) (string, error) {
	if err := ensureConfig(); err != nil {
		return "", err
	}
	return filepath.Join(cfg.WorkspacesDir, name), nil
}
