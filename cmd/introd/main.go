// Command introd runs the introduction broker.
//
//	introd serve            start the HTTP API
//	introd migrate          create or update the schema and exit
//	introd templates check  lint the template set (defaults + TEMPLATES_PATH)
//
// Configuration comes from the environment (see internal/config); a .env
// file in the working directory is loaded first when present.
//
// @title          Introduction Broker API
// @version        1.0
// @description    Contacts, connection requests, introductions and batch dispatch of templated messages.
// @BasePath       /api/v1
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-intro-broker/internal/config"
	"github.com/tbourn/go-intro-broker/internal/sysutil"
)

const (
	appName = "introd"
	Version = "0.1.0"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, buf[:n])
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Introduction brokering engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// a missing .env is normal outside development
			if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("load %s: %w", envFile, err)
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	cmd.AddCommand(serveCmd(), migrateCmd(), templatesCmd(), &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	})
	return cmd
}

// loadConfig reads the configuration and installs the global logger.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	sysutil.ConfigureLogger(cfg.LogPretty, os.Stderr)
	sysutil.SetLogLevel(cfg.LogLevel)
	log.Debug().Str("db_driver", cfg.DBDriver).Str("outbound", cfg.Outbound.Kind).Msg("config loaded")
	return cfg, nil
}
