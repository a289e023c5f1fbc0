package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-voice/internal/audit"
	"github.com/nerrad567/gray-logic-voice/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-voice/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-voice/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-voice/internal/item"
	"github.com/nerrad567/gray-logic-voice/migrations"
)

// loadOnce loads the configuration and one item graph snapshot.
func loadOnce(ctx context.Context, configPath string) (*item.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return loadStore(ctx, cfg)
}

// loadStore fetches one snapshot. Logs go to stderr so stdout carries only
// the JSON result.
func loadStore(ctx context.Context, cfg *config.Config, recorders ...item.Recorder) (*item.Store, error) {
	log := logging.NewWithWriter(cfg.Logging, version, os.Stderr)

	g, err := newGraph(cfg.OpenHAB, recorders, log)
	if err != nil {
		return nil, err
	}
	if err := g.Reload(ctx); err != nil {
		return nil, fmt.Errorf("loading item graph: %w", err)
	}
	return g.Store(), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newResolveCmd(configPath *string) *cobra.Command {
	var (
		room     string
		itemType string
		all      bool
	)
	cmd := &cobra.Command{
		Use:   "resolve PHRASE...",
		Short: "Print the items the spoken phrases refer to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := loadOnce(cmd.Context(), *configPath)
			if err != nil {
				return err
			}

			q := item.Query{Type: itemType}
			if room != "" {
				if q.Location = store.FindLocation(room); q.Location == nil {
					return fmt.Errorf("unknown room %q", room)
				}
			}

			var items []*item.Item
			if all {
				items = store.ResolveAll(args, q)
			} else {
				items = store.ResolveAny(args, q)
			}
			return printJSON(cmd.OutOrStdout(), items)
		},
	}
	cmd.Flags().StringVar(&room, "room", "", "restrict to items in this spoken room")
	cmd.Flags().StringVar(&itemType, "type", "", "restrict to this item type (Switch, Dimmer, ...)")
	cmd.Flags().BoolVar(&all, "all", false, "require every phrase to be a synonym of the item")
	return cmd
}

func newLocateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "locate ROOM",
		Short: "Print the location a spoken room name refers to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := loadOnce(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			loc := store.FindLocation(args[0])
			if loc == nil {
				return fmt.Errorf("no location matches %q", args[0])
			}
			return printJSON(cmd.OutOrStdout(), loc)
		},
	}
}

func newVocabularyCmd(configPath *string) *cobra.Command {
	var sorted bool
	cmd := &cobra.Command{
		Use:   "vocabulary",
		Short: "Print the device and room names injected into the recogniser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := loadOnce(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			vocab := store.Vocabulary()
			if sorted {
				sort.Strings(vocab.Devices)
				sort.Strings(vocab.Locations)
			}
			return printJSON(cmd.OutOrStdout(), vocab)
		},
	}
	cmd.Flags().BoolVar(&sorted, "sort", false, "sort the word lists")
	return cmd
}

// newSendCmd dispatches a command like the voice handlers do and records
// it in the command log with source "cli".
func newSendCmd(configPath *string) *cobra.Command {
	var expand bool
	cmd := &cobra.Command{
		Use:   "send COMMAND ITEM...",
		Short: "Send a command to items and log the outcome",
		Args:  cobra.MinimumNArgs(2), //nolint:mnd // command plus at least one item
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := audit.WithSource(cmd.Context(), audit.SourceCLI)

			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			db, err := database.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close()
			if _, err := db.Migrate(ctx, migrations.FS); err != nil {
				return fmt.Errorf("running migrations: %w", err)
			}

			store, err := loadStore(ctx, cfg, audit.NewRecorder(audit.NewSQLiteRepository(db.DB)))
			if err != nil {
				return err
			}

			command, names := args[0], args[1:]
			items := make([]*item.Item, 0, len(names))
			var unknown []string
			for _, name := range names {
				if it, ok := store.Item(name); ok {
					items = append(items, it)
				} else {
					unknown = append(unknown, name)
				}
			}
			if len(unknown) > 0 {
				return fmt.Errorf("unknown items: %s", strings.Join(unknown, ", "))
			}
			if expand {
				items = store.SwitchTargets(items)
			}

			report := store.SendCommand(ctx, items, command)
			if err := printJSON(cmd.OutOrStdout(), map[string]any{
				"command":   report.Command,
				"delivered": report.Delivered,
				"failed":    len(report.Failed),
			}); err != nil {
				return err
			}
			if !report.OK() {
				return fmt.Errorf("%d of %d items did not receive %s", len(report.Failed), len(items), command)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&expand, "expand", false, "expand equipment groups to their switch points")
	return cmd
}
