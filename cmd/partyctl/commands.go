package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"partyrooms/internal/config"
	"partyrooms/internal/logger"
	"partyrooms/internal/service"
	"partyrooms/internal/store"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// flagKeys maps persistent flags to the configuration keys they override
var flagKeys = map[string]string{
	"database-type":   "DATABASE_TYPE",
	"db-path":         "DB_PATH",
	"database-url":    "DATABASE_URL",
	"migrations-path": "MIGRATIONS_PATH",
	"log-level":       "LOG_LEVEL",
}

type cli struct {
	open    opener
	store   store.Maintainer
	release func() error
}

func newRootCmd(open opener) *cobra.Command {
	c := &cli{open: open}
	v := config.NewViper()

	cmd := &cobra.Command{
		Use:           "partyctl",
		Short:         "Inspect and maintain party room state.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromViper(v)
			logger.SetupWriter(cmd.ErrOrStderr(), cfg.LogLevel, true)

			m, release, err := c.open(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			c.store = m
			c.release = release
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.release == nil {
				return nil
			}
			return c.release()
		},
	}

	fs := cmd.PersistentFlags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.String("database-type", "sqlite", "sqlite, postgres or mysql (env: DATABASE_TYPE)")
	fs.String("db-path", "./partyrooms.db", "SQLite database file (env: DB_PATH)")
	fs.String("database-url", "", "Postgres or MySQL connection string (env: DATABASE_URL)")
	fs.String("migrations-path", "./migrations", "migrations directory (env: MIGRATIONS_PATH)")
	fs.String("log-level", "info", "log level (env: LOG_LEVEL)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(flagKeys[f.Name], f)
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.AddCommand(c.purgeCmd(), c.inspectCmd(), c.roomsCmd(), c.exportCmd(), c.importCmd())
	return cmd
}

func (c *cli) purgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete expired entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := c.store.PurgeExpired(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d expired entries\n", n)
			return nil
		},
	}
}

func (c *cli) inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <key>",
		Short: "Print a live entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			records, err := c.store.Entries(cmd.Context(), key)
			if err != nil {
				return err
			}
			for _, rec := range records {
				if rec.Key != key {
					continue
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rec)
			}
			return fmt.Errorf("no live entry for %q", key)
		},
	}
}

func (c *cli) roomsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rooms",
		Short: "List rooms that have a roster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := c.store.Keys(cmd.Context(), "room_")
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, key := range keys {
				code, ok := strings.CutSuffix(strings.TrimPrefix(key, "room_"), "_players")
				if !ok {
					continue
				}
				fmt.Fprintln(out, code)
			}
			return nil
		},
	}
}

func (c *cli) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write every live entry to a JSON snapshot (default: stdout)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var w io.Writer = cmd.OutOrStdout()
			if len(args) == 1 {
				f, err := os.Create(args[0])
				if err != nil {
					return fmt.Errorf("failed to create snapshot file: %w", err)
				}
				defer f.Close()
				w = f
			}

			start := time.Now()
			n, err := service.NewSnapshotService(c.store).Export(cmd.Context(), w)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "exported %d entries in %s\n", n, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}

func (c *cli) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Restore a JSON snapshot, skipping entries that have expired (default: stdin)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open snapshot file: %w", err)
				}
				defer f.Close()
				r = f
			}

			n, err := service.NewSnapshotService(c.store).Import(cmd.Context(), r)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "imported %d entries\n", n)
			return nil
		},
	}
}
