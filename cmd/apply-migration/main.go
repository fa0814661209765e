package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/undesputed/senior-care-central-sub001/common/database"
	"github.com/undesputed/senior-care-central-sub001/internal/config"
	"github.com/undesputed/senior-care-central-sub001/migrations"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var only string

	cmd := &cobra.Command{
		Use:   "apply-migration",
		Short: "Apply the embedded carecentral schema migrations",
		Long: `Apply the SQL migrations compiled into this binary, in file-name order.

Connection settings come from the same DB_* variables (and CONFIG_FILE) as carecentral-api.
Each file runs as one statement batch; files are written to be re-runnable.

Examples:
  apply-migration                       # apply every migration
  apply-migration --only 0001_init.sql  # apply a single file
  apply-migration list                  # show the embedded files
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return apply(cmd, only)
		},
	}
	cmd.Flags().StringVar(&only, "only", "", "apply a single migration file by name")
	cmd.AddCommand(listCmd())
	return cmd
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List embedded migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			all, err := migrations.All()
			if err != nil {
				return err
			}
			for _, m := range all {
				fmt.Fprintln(cmd.OutOrStdout(), m.Name)
			}
			return nil
		},
	}
}

func apply(cmd *cobra.Command, only string) error {
	all, err := migrations.All()
	if err != nil {
		return fmt.Errorf("failed to read embedded migrations: %w", err)
	}
	if only != "" {
		var picked []migrations.Migration
		for _, m := range all {
			if m.Name == only {
				picked = append(picked, m)
			}
		}
		if len(picked) == 0 {
			return fmt.Errorf("migration %q not found", only)
		}
		all = picked
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		return err
	}
	defer database.Close(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Connected to database: %s\n\n", cfg.Database.Database)
	for i, m := range all {
		if strings.TrimSpace(m.SQL) == "" {
			continue
		}
		fmt.Fprintf(out, "Applying %d/%d %s...\n", i+1, len(all), m.Name)
		// lib/pq runs a parameterless multi-statement string in one round trip.
		if _, err := db.ExecContext(ctx, m.SQL); err != nil {
			return fmt.Errorf("migration %s failed: %w", m.Name, err)
		}
	}
	fmt.Fprintln(out, "Migration completed successfully")
	return nil
}
