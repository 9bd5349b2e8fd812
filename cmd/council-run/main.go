// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

// council-run drives a single council deliberation session end to
// end from a JSONC configuration file and a human prompt, and writes
// the resulting event log, leader summary, and (when configured)
// reviewed documentation under the configured storage root.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/council-engine/council/internal/council"
	"github.com/council-engine/council/internal/memory"
	"github.com/council-engine/council/internal/modelclient"
	"github.com/council-engine/council/internal/orchestrator"
	"github.com/council-engine/council/lib/clock"
	"github.com/council-engine/council/lib/version"
)

func main() {
	if err := run(); err != nil {
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	var prompt string
	var approveExecution bool
	var logLevel string
	var outputType string

	flagSet := pflag.NewFlagSet("council-run", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to a council JSONC configuration file (required)")
	flagSet.StringVar(&prompt, "prompt", "", "the human prompt the council deliberates on (required)")
	flagSet.BoolVar(&approveExecution, "approve-execution", false, "approve the leader's execution brief, if one is produced")
	flagSet.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flagSet.StringVar(&outputType, "output-type", "", "override the config's output type: none or documentation")
	flagSet.BoolP("help", "h", false, "show help")

	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("council-run %s\n", version.Info())
		return nil
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}

	if configPath == "" {
		return &council.ConfigError{Issues: []string{"--config is required"}}
	}
	if prompt == "" {
		return &council.ConfigError{Issues: []string{"--prompt is required"}}
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(logLevel)}))

	config, err := council.LoadConfig(configPath)
	if err != nil {
		return err
	}

	if outputType != "" {
		switch council.OutputType(outputType) {
		case council.OutputNone, council.OutputDocumentation:
			config.Output.Type = council.OutputType(outputType)
		default:
			return &council.ConfigError{Issues: []string{fmt.Sprintf("--output-type must be %q or %q, got %q", council.OutputNone, council.OutputDocumentation, outputType)}}
		}
	}

	clients, err := modelclient.BuildClients(config, modelclient.EnvAPIKeys)
	if err != nil {
		return err
	}

	var memStore *memory.Store
	if config.Storage.MemoryDir != "" {
		memStore, err = memory.Open(memory.Config{MemoryDir: config.Storage.MemoryDir, Clock: clock.Real(), Logger: logger})
		if err != nil {
			return fmt.Errorf("opening memory store: %w", err)
		}
		defer memStore.Close()
	}

	logger.Info("starting session", "council", config.CouncilName, "members", len(config.Members))

	result, err := orchestrator.Run(context.Background(), config, clients, memStore, clock.Real(), prompt, approveExecution)
	if err != nil {
		return fmt.Errorf("running session: %w", err)
	}

	logger.Info("session closed",
		"session_id", result.SessionID,
		"session_dir", result.SessionDir,
		"leader", result.LeaderID,
		"phases", len(result.PhaseResults),
	)
	fmt.Printf("session %s complete: %s\n", result.SessionID, result.Summary.FinalResolution)
	if result.Documentation != nil {
		fmt.Printf("documentation: approved=%v revisions=%d (%s/documentation.md)\n",
			result.Documentation.Approved, result.Documentation.Revisions, result.SessionDir)
	}
	if result.Execution != nil {
		fmt.Printf("execution handoff: approved=%v profile=%s\n", result.Execution.Approved, result.Execution.DefaultExecutorProfile)
	}

	return nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `council-run drives one council deliberation session to completion.

Usage:
  council-run --config PATH --prompt TEXT [flags]

Examples:
  council-run --config council.jsonc --prompt "Should we adopt the new API design?"
  council-run --config council.jsonc --prompt "Plan the migration." --approve-execution
  council-run --config council.jsonc --prompt "Plan the migration." --output-type documentation

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
