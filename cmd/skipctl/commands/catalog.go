package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ariefcatur/go-skip-selector/internal/catalog"
	"github.com/ariefcatur/go-skip-selector/internal/skips"
)

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Fetch and print the skips offered for a location",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache := catalog.NewCache(catalog.NewClient(cfg.CatalogBaseURL), catalog.Options{
				MaxAttempts: cfg.MaxAttempts,
				RetryBase:   cfg.RetryBase,
			})
			q := query()
			cat, err := cache.GetCatalog(cmd.Context(), q)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s, %s: %d skip(s)\n", q.Postcode, q.Area, len(cat))
			return printCatalog(cmd.OutOrStdout(), cat.SortedBySize())
		},
	}
	return cmd
}

func printCatalog(out io.Writer, cat skips.Catalog) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSIZE\tDAYS\tNET\tTOTAL\tROAD\tHEAVY")
	for _, s := range cat {
		total := "n/a"
		if t, err := s.TotalPrice(); err == nil {
			total = skips.FormatGBP(t)
		}
		fmt.Fprintf(tw, "%d\t%d yd\t%d\t%s\t%s\t%s\t%s\n",
			s.ID, s.Size, s.HirePeriodDays, skips.FormatGBP(s.PriceBeforeVAT), total,
			yesNo(s.AllowedOnRoad), yesNo(s.AllowsHeavyWaste))
	}
	return tw.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
