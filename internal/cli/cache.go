package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"buyerradar/server/internal/cache"
)

func newCacheCmd(opts *globalOptions) *cobra.Command {
	var (
		addr     string
		password string
		db       int
	)

	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the Redis result cache",
	}
	cacheCmd.PersistentFlags().StringVar(&addr, "redis-addr", "localhost:6379", "Redis address")
	cacheCmd.PersistentFlags().StringVar(&password, "redis-password", "", "Redis password")
	cacheCmd.PersistentFlags().IntVar(&db, "redis-db", 0, "Redis database number")

	flushCmd := &cobra.Command{
		Use:   "flush",
		Short: "Drop every cached query result",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				return fmt.Errorf("--redis-addr is required")
			}
			client, err := cache.Open(cmd.Context(), addr, password, db)
			if err != nil {
				return err
			}
			defer client.Close()

			removed, err := cache.NewRedisCache(client, 0, opts.logger(cmd.ErrOrStderr())).Flush(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached results\n", removed)
			return nil
		},
	}

	cacheCmd.AddCommand(flushCmd)
	return cacheCmd
}
