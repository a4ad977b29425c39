package commands

import (
	"github.com/spf13/cobra"

	"github.com/ariefcatur/go-skip-selector/internal/config"
	"github.com/ariefcatur/go-skip-selector/internal/skips"
)

var (
	cfg      config.Config
	postcode string
	area     string
)

func Execute() error {
	root := &cobra.Command{
		Use:          "skipctl",
		Short:        "Operator tool for the skip selector",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg = config.Load()
			return nil
		},
	}

	root.PersistentFlags().StringVar(&postcode, "postcode", "", "location postcode (default $DEFAULT_POSTCODE)")
	root.PersistentFlags().StringVar(&area, "area", "", "location area (default $DEFAULT_AREA)")

	root.AddCommand(catalogCmd(), invalidateCmd(), selectionCmd())
	return root.Execute()
}

func query() skips.Query {
	return skips.Query{Postcode: postcode, Area: area}.WithDefaults(skips.Query{
		Postcode: cfg.DefaultPostcode,
		Area:     cfg.DefaultArea,
	})
}
