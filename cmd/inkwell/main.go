// Package main is the entry point for the Inkwell blog server. The root
// command runs the server; subcommands apply migrations and manage admin
// membership.
package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"inkwell/internal/config"
)

const configFlag = "config"

// rootFlags are shared by every command.
var rootFlags = map[string]cobraflags.Flag{
	configFlag: &cobraflags.StringFlag{
		Name:  configFlag,
		Value: "",
		Usage: "Path to a config file (overrides INKWELL_CONFIG)",
	},
}

func main() {
	root := &cobra.Command{
		Use:           "inkwell",
		Short:         "Inkwell blogging platform",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.AddCommand(newServeCommand(), newMigrateCommand(), newAdminCommand())
	registerConfigFlag(root)

	if err := root.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// registerConfigFlag adds --config to cmd and every command below it, so
// the flag is accepted wherever it appears on the command line.
func registerConfigFlag(cmd *cobra.Command) {
	cobraflags.RegisterMap(cmd, rootFlags)
	for _, sub := range cmd.Commands() {
		registerConfigFlag(sub)
	}
}

// loadConfig applies the --config flag, loads configuration and installs
// the default logger at the configured level.
func loadConfig() (*config.Config, error) {
	if path := rootFlags[configFlag].GetString(); path != "" {
		os.Setenv("INKWELL_CONFIG", path)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		level = slog.LevelInfo
	}
	// Structured logger. Text output, level from LOG_LEVEL.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"docstore", cfg.Docstore,
	)
	return cfg, nil
}
