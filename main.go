package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lander/config"
	"lander/server"
)

var cfgFile string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "lander",
		Short: "Landing page builder backend for anonymous devices",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// config.Load смотрит на CONFIG_FILE
			if cfgFile != "" {
				return os.Setenv("CONFIG_FILE", cfgFile)
			}
			return nil
		},
		RunE:          func(cmd *cobra.Command, args []string) error { return serve() },
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file (default: ./config.yaml)")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE:  func(cmd *cobra.Command, args []string) error { return serve() },
	})
	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := server.Migrate(cfg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	})
	return root
}

func serve() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	app := &server.App{}
	if err := app.Initialize(cfg); err != nil {
		return err
	}
	return app.Run()
}
