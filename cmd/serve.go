package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/KaramelBytes/metricdeck-cli/internal/dataset"
	"github.com/KaramelBytes/metricdeck-cli/internal/registry"
	"github.com/KaramelBytes/metricdeck-cli/internal/server"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var (
	serveAddr string
	serveData string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve metrics over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		defaults, err := c.Params()
		if err != nil {
			return err
		}
		addr := c.ServerAddr
		if serveAddr != "" {
			addr = serveAddr
		}
		cache := dataset.NewCache(newSource(c, serveData), c.CacheTTL())
		// warm the cache so a bad dataset fails at startup
		snap, err := cache.Get(context.Background())
		if err != nil {
			return err
		}
		if !debug {
			gin.SetMode(gin.ReleaseMode)
		}
		srv := server.NewServer(cache, registry.Default(), defaults)
		slog.Info("serving metrics", "addr", addr, "snapshot", snap.ID, "rows", snap.Table.Len())
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Loaded %d rows; listening on http://%s/api\n", snap.Table.Len(), addr)
		return srv.Start(addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server_addr)")
	serveCmd.Flags().StringVarP(&serveData, "data", "d", "", "dataset file (overrides dataset_path)")
}
