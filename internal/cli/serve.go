package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/distrohub/mediadesk/internal/dashboard"
	"github.com/distrohub/mediadesk/internal/reports"
)

// newServeCmd creates the 'serve' command.
func newServeCmd() *cobra.Command {
	var addr string
	var origins string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the distributor report dashboard",
		Long: `Serve the report dashboard over HTTP.

Pages:
  /reports/commitments              members with commitments
  /reports/members/{id}             one member's commitments
  .../export?format=csv|pdf         download the shown page (scope=all for every page)
  /api/reports/...                  the same data as JSON
  /metrics                          Prometheus metrics
  /healthz                          liveness

Examples:
  mediadesk serve
  mediadesk serve --addr 127.0.0.1:9090 --cors-origins https://admin.example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()

			client, cfg, err := getAPIClient()
			if err != nil {
				return err
			}
			sess, err := getSession(cfg)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Dashboard.Addr
			}
			allowed := cfg.Dashboard.Origins()
			if origins != "" {
				allowed = strings.Split(origins, ",")
			}

			srv, err := dashboard.New(reports.NewService(client, logger), sess, dashboard.Options{
				Addr:        addr,
				CORSOrigins: allowed,
				Logger:      logger,
			})
			if err != nil {
				return fmt.Errorf("failed to start dashboard: %w", err)
			}

			fmt.Printf("Dashboard listening on http://%s/reports/commitments\n", addr)
			fmt.Println("Press Ctrl+C to stop.")
			return srv.ListenAndServe(GetContext())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	cmd.Flags().StringVar(&origins, "cors-origins", "", "Comma-separated origins allowed to call the JSON API")

	return cmd
}
