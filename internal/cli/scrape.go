package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/law-makers/bounty/internal/app"
	"github.com/law-makers/bounty/internal/ui"
	"github.com/law-makers/bounty/internal/utils/output"
	urlutil "github.com/law-makers/bounty/internal/utils/url"
	"github.com/law-makers/bounty/pkg/models"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape <url>",
	Short: "Scrape a listing page once",
	Long: `Scrape loads the page, prints every bounty grouped by tag and marks the new ones.
With --output the result is written to a .json or .csv file instead.`,
	Example: `  # Print a table
  bounty scrape https://earn.example.com/bounties

  # Save the full payload
  bounty scrape https://earn.example.com/bounties -o bounties.json`,
	Args: cobra.ExactArgs(1),
	RunE: runScrape,
}

func init() {
	scrapeCmd.Flags().StringP("output", "o", "", "Write the result to a file (.json or .csv)")
	scrapeCmd.Flags().Bool("no-color", false, "Disable colored table output")
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
	a := GetAppFromCmd(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}

	target := strings.TrimSpace(args[0])
	if err := urlutil.ValidateURL(target); err != nil {
		return err
	}

	outputFile, _ := cmd.Flags().GetString("output")
	noColor, _ := cmd.Flags().GetBool("no-color")

	payload, err := a.Pipeline.Run(cmd.Context(), target)
	if err != nil {
		return err
	}

	if outputFile != "" {
		if err := save(payload, outputFile); err != nil {
			return err
		}
		log.Info().Str("file", outputFile).Int("new", len(payload.NewlyAddedBounties)).Msg("Saved scrape result")
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("%s, saved to %s", payload.Message, outputFile)))
		return nil
	}

	output.WriteTable(cmd.OutOrStdout(), payload, !noColor && !a.Config.JSONLog)
	return nil
}

func save(payload models.ResponsePayload, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return output.SaveJSON(payload, path)
	case ".csv":
		return output.SaveCSV(payload, path)
	default:
		return fmt.Errorf("unsupported output format %q (use .json or .csv)", filepath.Ext(path))
	}
}

// writeSummary prints a one-line result for scheduled runs
func writeSummary(a *app.Application, target string, payload models.ResponsePayload) {
	var tags []string
	for _, tag := range output.SortedTags(payload.BountiesByTag) {
		tags = append(tags, fmt.Sprintf("%s=%d", tag, len(payload.BountiesByTag[tag])))
	}
	fmt.Fprintf(os.Stdout, "%s %s (%d new, %d stored) %s\n",
		target, payload.Message, len(payload.NewlyAddedBounties), a.Store.Len(), strings.Join(tags, " "))
}
