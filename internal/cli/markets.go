package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"buyerradar/server/config"
)

func newMarketsCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "markets",
		Short: "List market presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			if path != "" {
				if err := config.LoadMarkets(path); err != nil {
					return err
				}
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Name", "Display Name", "Center", "Radius (mi)", "Zoom"})
			for _, m := range config.GetMarkets() {
				t.AppendRow(table.Row{
					m.Name,
					m.DisplayName,
					fmt.Sprintf("%.4f,%.4f", m.Center.Latitude, m.Center.Longitude),
					m.DefaultRadius,
					m.ZoomLevel,
				})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "file", "", "Load presets from a JSON file first")
	return cmd
}
