package mealplan

import (
	"database/sql"
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"github.com/chasemp/mealplanner/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the planner as a local JSON API until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := cfg.Server.Addr
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}
		return withDB(func(sqldb *sql.DB) error {
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", addr, err)
			}
			srv := server.New(server.Options{
				DB:      sqldb,
				Logger:  logger,
				Planner: configPlannerSettings(),
			})
			fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", ln.Addr())
			return srv.Serve(cmd.Context(), ln)
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: server.addr from config)")
}
