package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"buyerradar/server/config"
	"buyerradar/server/internal/geometry"
	"buyerradar/server/internal/models"
	"buyerradar/server/internal/search"
)

type searchFlags struct {
	lat      float64
	lng      float64
	market   string
	radius   float64
	months   int
	category string
	now      string
	output   string
}

func (f *searchFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.lat, "lat", 0, "Center latitude")
	cmd.Flags().Float64Var(&f.lng, "lng", 0, "Center longitude")
	cmd.Flags().StringVar(&f.market, "market", "", "Use a market preset as the center")
	cmd.Flags().Float64Var(&f.radius, "radius", 2, "Search radius in miles")
	cmd.Flags().IntVar(&f.months, "months", 12, "Lookback window in months")
	cmd.Flags().StringVar(&f.category, "category", string(models.CategoryAll), "Buyer category: flipper|landlord|cash|unknown|all")
	cmd.Flags().StringVar(&f.now, "now", "", "Evaluate the window as of this date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "table", "Output format: table|json")
}

func (f *searchFlags) params(cmd *cobra.Command) (search.Params, error) {
	p := search.Params{
		Center:      models.GeoPoint{Latitude: f.lat, Longitude: f.lng},
		RadiusMiles: f.radius,
		Months:      f.months,
		Category:    models.Category(f.category),
		Now:         time.Now(),
	}

	if f.market != "" {
		market, ok := config.GetMarketByName(f.market)
		if !ok {
			return search.Params{}, fmt.Errorf("unknown market %q (available: %s)", f.market, strings.Join(config.GetMarketNames(), ", "))
		}
		p.Center = market.Center
		if !cmd.Flags().Changed("radius") {
			p.RadiusMiles = market.DefaultRadius
		}
	} else if !cmd.Flags().Changed("lat") || !cmd.Flags().Changed("lng") {
		return search.Params{}, fmt.Errorf("either --market or both --lat and --lng are required")
	}

	if f.now != "" {
		d, err := models.ParseDate(f.now)
		if err != nil {
			return search.Params{}, err
		}
		p.Now = d.Time
	}

	switch f.output {
	case "table", "json":
	default:
		return search.Params{}, fmt.Errorf("unknown output format %q", f.output)
	}
	return p, nil
}

func newQueryCmd(opts *globalOptions) *cobra.Command {
	flags := &searchFlags{}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "List buyers active around a point",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := flags.params(cmd)
			if err != nil {
				return err
			}

			logger := opts.logger(cmd.ErrOrStderr())
			store, err := opts.loadStore(cmd.Context(), logger)
			if err != nil {
				return err
			}

			results, err := search.NewService(store, nil, logger).Query(cmd.Context(), p)
			if err != nil {
				return err
			}

			if flags.output == "json" {
				return writeJSON(cmd.OutOrStdout(), results.Summaries)
			}
			renderSummaries(cmd.OutOrStdout(), results)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func renderSummaries(w io.Writer, results *search.Results) {
	fmt.Fprintf(w, "Buyers within %g mi of %.4f,%.4f since %s (%s)\n",
		results.RadiusMiles, results.Center.Latitude, results.Center.Longitude, results.Since, results.Category)

	if len(results.Summaries) == 0 {
		fmt.Fprintln(w, "(0 buyers)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Buyer", "Name", "Category", "Deals", "Most Recent", "Median Price", "Contact"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})

	for i, s := range results.Summaries {
		t.AppendRow(table.Row{
			i + 1,
			s.BuyerID,
			s.Name,
			s.Category,
			s.DealCount,
			s.MostRecentDealDate.String(),
			fmt.Sprintf("$%.0f", s.MedianPrice),
			primaryContact(s.Contacts),
		})
	}
	t.Render()
	fmt.Fprintf(w, "(%d buyers)\n", len(results.Summaries))
}

func primaryContact(contacts []models.Contact) string {
	if len(contacts) == 0 {
		return ""
	}
	if contacts[0].Phone != "" {
		return contacts[0].Phone
	}
	return contacts[0].Email
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newFootprintCmd(opts *globalOptions) *cobra.Command {
	flags := &searchFlags{}
	var buyerID string

	cmd := &cobra.Command{
		Use:   "footprint",
		Short: "Show where one buyer purchased inside the search area",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := flags.params(cmd)
			if err != nil {
				return err
			}

			logger := opts.logger(cmd.ErrOrStderr())
			store, err := opts.loadStore(cmd.Context(), logger)
			if err != nil {
				return err
			}

			points, err := search.NewService(store, nil, logger).Footprint(cmd.Context(), p, buyerID)
			if err != nil {
				return err
			}

			if flags.output == "json" {
				return writeJSON(cmd.OutOrStdout(), geometry.FootprintFeature(buyerID, points))
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"#", "Latitude", "Longitude", "Miles From Center"})
			for i, point := range points {
				t.AppendRow(table.Row{
					i + 1,
					fmt.Sprintf("%.5f", point.Latitude),
					fmt.Sprintf("%.5f", point.Longitude),
					fmt.Sprintf("%.2f", geometry.Distance(p.Center, point)),
				})
			}
			t.Render()
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&buyerID, "buyer", "", "Buyer id")
	_ = cmd.MarkFlagRequired("buyer")
	return cmd
}
