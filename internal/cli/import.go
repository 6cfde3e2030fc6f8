package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"buyerradar/server/internal/database"
	"buyerradar/server/internal/geocoding"
)

func newImportCmd(opts *globalOptions) *cobra.Command {
	var (
		from     string
		geocode  bool
		cacheDir string
		country  string
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load a JSON dataset into the SQLite reference database",
		Long: `Migrates the schema and upserts buyers, properties and purchase events in a
single transaction. Properties without coordinates can be geocoded afterwards
with --geocode.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.dbPath == "" {
				return fmt.Errorf("--db is required")
			}
			logger := opts.logger(cmd.ErrOrStderr())

			doc, err := database.ReadImportFile(from)
			if err != nil {
				return err
			}

			if dir := filepath.Dir(opts.dbPath); dir != "" {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return fmt.Errorf("failed to create database directory: %w", err)
				}
			}
			db, err := database.NewDatabase(opts.dbPath)
			if err != nil {
				return err
			}
			defer database.Close(db)

			if err := database.MigrateSchema(db); err != nil {
				return err
			}

			stats, err := database.UpsertDocument(cmd.Context(), db, doc)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d buyers, %d properties (%d without coordinates), %d events\n",
				stats.Buyers, stats.Properties, stats.Unlocated, stats.Events)

			if !geocode {
				return nil
			}
			geocoder := geocoding.NewGeocoder(geocoding.Options{CacheDir: cacheDir, Country: country}, logger)
			gstats, err := database.UpdateMissingCoordinates(cmd.Context(), db, geocoder, logger)
			if err != nil {
				return err
			}
			logger.WithFields(logrus.Fields{"total": gstats.Total, "failed": gstats.Failed}).Info("Geocoding finished")
			fmt.Fprintf(cmd.OutOrStdout(), "Geocoded %d of %d properties\n", gstats.Processed, gstats.Total)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "JSON dataset to import")
	cmd.Flags().BoolVar(&geocode, "geocode", false, "Geocode properties without coordinates")
	cmd.Flags().StringVar(&cacheDir, "geocode-cache", "data/geocache", "Geocoder cache directory")
	cmd.Flags().StringVar(&country, "country", "us", "Restrict geocoding to this country code")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}
