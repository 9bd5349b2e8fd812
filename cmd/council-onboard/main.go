// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

// council-onboard validates a council configuration file and reports
// which credential environment variables its configured providers
// need, without starting a session. It exists so an operator can
// check a new configuration in CI or before handing it to
// council-run.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/council-engine/council/internal/council"
	"github.com/council-engine/council/internal/modelclient"
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

	flagSet := pflag.NewFlagSet("council-onboard", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to a council JSONC configuration file (required)")
	flagSet.BoolP("help", "h", false, "show help")

	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("council-onboard %s\n", version.Info())
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

	config, err := council.LoadConfig(configPath)
	if err != nil {
		return err
	}

	fmt.Printf("config valid: %s (%d members, %d phases)\n", config.CouncilName, len(config.Members), len(config.Phases))

	envVars := modelclient.RequiredCredentialEnvVars(config)
	if len(envVars) == 0 {
		fmt.Println("no provider credentials required")
		return nil
	}

	fmt.Println("required credential environment variables:")
	missing := 0
	for _, envVar := range envVars {
		status := "set"
		if os.Getenv(envVar) == "" {
			status = "MISSING"
			missing++
		}
		fmt.Printf("  %-24s %s\n", envVar, status)
	}
	if missing > 0 {
		return fmt.Errorf("%d required credential(s) not set in the environment", missing)
	}
	return nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `council-onboard validates a council configuration and reports required credentials.

Usage:
  council-onboard --config PATH

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
