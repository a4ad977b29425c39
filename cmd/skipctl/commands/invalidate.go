package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ariefcatur/go-skip-selector/internal/catalog"
	kafkax "github.com/ariefcatur/go-skip-selector/internal/kafka"
	"github.com/ariefcatur/go-skip-selector/internal/skips"
)

func invalidateCmd() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "invalidate",
		Short: "Tell every API instance to drop its cached catalog for a location",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			prod := kafkax.NewProducer(cfg.KafkaBrokers, skips.TopicCatalogInvalidated, 1)
			prod.Start(ctx)
			ev := catalog.PublishInvalidation(prod, query(), reason, "skipctl")
			prod.Close()
			prod.WaitClosed()

			fmt.Fprintf(cmd.OutOrStdout(), "published %s for %s\n", ev.EventID, ev.CorrelationID)
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "free-text reason recorded on the event")
	return cmd
}
