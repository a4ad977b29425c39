package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ariefcatur/go-skip-selector/internal/postgres"
	"github.com/ariefcatur/go-skip-selector/internal/redisx"
	"github.com/ariefcatur/go-skip-selector/internal/selection"
	"github.com/ariefcatur/go-skip-selector/internal/skips"
)

func selectionCmd() *cobra.Command {
	var clientID string
	cmd := &cobra.Command{
		Use:   "selection",
		Short: "Inspect or reset a client's persisted selection",
	}
	cmd.PersistentFlags().StringVar(&clientID, "client", "", "client id (required)")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the persisted selection",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSlot(cmd.Context(), func(slot selection.Slot) error {
				if clientID == "" {
					return errors.New("--client is required")
				}
				store := selection.Open(cmd.Context(), slot, selection.Key(clientID))
				if store.Degraded() {
					return errors.New("selection storage unavailable")
				}
				s, ok := store.Selected()
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "no selection")
					return nil
				}
				total, err := s.TotalPrice()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "skip %d: %d yard, %d days, %s\n", s.ID, s.Size, s.HirePeriodDays, skips.FormatGBP(total))
				return nil
			})
		},
	}
	reset := &cobra.Command{
		Use:   "clear",
		Short: "Delete the persisted selection",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSlot(cmd.Context(), func(slot selection.Slot) error {
				if clientID == "" {
					return errors.New("--client is required")
				}
				if err := slot.Delete(cmd.Context(), selection.Key(clientID)); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "cleared")
				return nil
			})
		},
	}
	cmd.AddCommand(show, reset)
	return cmd
}

func withSlot(ctx context.Context, fn func(selection.Slot) error) error {
	switch cfg.SelectionBackend {
	case "file":
		return fn(&selection.FileSlot{Dir: cfg.SelectionDir})
	case "redis":
		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		return fn(&selection.RedisSlot{Redis: rdb, TTL: redisx.TTLSelection})
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		return fn(&selection.PostgresSlot{DB: db})
	}
	return fmt.Errorf("selection backend %q is not inspectable", cfg.SelectionBackend)
}
