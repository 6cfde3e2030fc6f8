package cli

import (
	"github.com/spf13/cobra"

	"buyerradar/server/internal/geometry"
	"buyerradar/server/internal/models"
)

func newBoundaryCmd() *cobra.Command {
	var (
		center   models.GeoPoint
		radius   float64
		segments int
	)

	cmd := &cobra.Command{
		Use:   "boundary",
		Short: "Print the search circle as a GeoJSON feature",
		RunE: func(cmd *cobra.Command, args []string) error {
			ring, err := geometry.Boundary(center, radius, segments)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), geometry.BoundaryFeature(center, radius, ring))
		},
	}
	cmd.Flags().Float64Var(&center.Latitude, "lat", 0, "Center latitude")
	cmd.Flags().Float64Var(&center.Longitude, "lng", 0, "Center longitude")
	cmd.Flags().Float64Var(&radius, "radius", 2, "Radius in miles")
	cmd.Flags().IntVar(&segments, "segments", geometry.DefaultSegments, "Number of ring segments")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")
	return cmd
}
