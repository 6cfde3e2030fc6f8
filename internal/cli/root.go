// Package cli implements buyerctl, the operator command line for the buyer
// activity dataset.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"buyerradar/server/internal/database"
	"buyerradar/server/internal/dataset"
)

var Version = "0.1.0"

type globalOptions struct {
	dataPath string
	dbPath   string
	verbose  bool
}

// NewRootCmd creates the buyerctl command tree.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           "buyerctl",
		Short:         "Query and maintain buyer activity reference data",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.dataPath, "data", "data/reference.json", "JSON reference dataset")
	rootCmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "SQLite reference database (takes precedence over --data)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log progress to stderr")

	rootCmd.AddCommand(
		newQueryCmd(opts),
		newFootprintCmd(opts),
		newBoundaryCmd(),
		newImportCmd(opts),
		newMarketsCmd(),
		newCacheCmd(opts),
	)
	return rootCmd
}

func (o *globalOptions) logger(w io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	logger.SetLevel(logrus.WarnLevel)
	if o.verbose {
		logger.SetLevel(logrus.InfoLevel)
	}
	return logger
}

// loadStore reads the configured source into a fresh store.
func (o *globalOptions) loadStore(ctx context.Context, logger *logrus.Logger) (*dataset.Store, error) {
	var source dataset.Source = dataset.NewFileSource(o.dataPath)
	if o.dbPath != "" {
		db, err := database.NewDatabase(o.dbPath)
		if err != nil {
			return nil, err
		}
		defer database.Close(db)
		source = database.NewSource(db, o.dbPath, logger)
	}

	collections, err := source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", source.Name(), err)
	}

	store := dataset.NewStore()
	snap, err := store.Replace(collections, source.Name())
	if err != nil {
		return nil, err
	}
	buyers, properties, events := snap.Counts()
	logger.WithFields(logrus.Fields{
		"source":     snap.Source,
		"buyers":     buyers,
		"properties": properties,
		"events":     events,
	}).Info("Reference data loaded")
	return store, nil
}
