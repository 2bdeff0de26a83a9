package cli

import (
	"fmt"

	"github.com/law-makers/bounty/internal/config"
	"github.com/law-makers/bounty/internal/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP scrape service",
	Long: `Serve exposes GET /scrape?url=<listing page>. Each request loads the page,
stores any bounties not seen before, and answers with every bounty grouped by tag
plus the newly added ones.`,
	Example: `  # Listen on the default port
  bounty serve

  # Custom port and a single allowed origin
  bounty serve --port 8080 --allowed-origin https://dashboard.example.com`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", config.DefaultPort, "Port to listen on")
	serveCmd.Flags().String("allowed-origin", config.DefaultAllowedOrigin, "Value of Access-Control-Allow-Origin")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a := GetAppFromCmd(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}

	srv := server.New(server.Options{
		Addr:            a.Config.Addr(),
		AllowedOrigin:   a.Config.AllowedOrigin,
		Scraper:         a.Pipeline,
		Browser:         a.Session,
		Store:           a.Store,
		ShutdownTimeout: config.DefaultShutdownTimeout,
	})

	log.Info().Str("allowed_origin", a.Config.AllowedOrigin).Msg("Starting scrape service")
	return srv.ListenAndServe(cmd.Context())
}
