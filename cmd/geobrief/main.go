package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/geobrief/geobrief/config"
	"github.com/geobrief/geobrief/internal/agent"
	"github.com/geobrief/geobrief/internal/agent/telemetry"
	srv "github.com/geobrief/geobrief/internal/server"
)

func main() {
	var configPath string

	var root = &cobra.Command{Use: "geobrief"}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	var serveAddr string
	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if serveAddr != "" {
				cfg.Server.Address = serveAddr
			}
			return srv.Run(*cfg)
		},
	}
	serve.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")

	var ask = &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer one question and print the result as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			question := strings.Join(args, " ")

			ctx := context.Background()
			if cfg.General.DefaultTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, cfg.General.DefaultTimeout)
				defer cancel()
			}

			tele := telemetry.NewTelemetry(cfg.Telemetry)
			orch := agent.NewOrchestrator(*cfg, tele)
			result := orch.ProcessQuestion(ctx, question)

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			if !result.Success {
				os.Exit(1)
			}
			return nil
		},
	}

	root.AddCommand(serve, ask)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
