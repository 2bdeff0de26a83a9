// internal/cli/root.go
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/law-makers/bounty/internal/app"
	"github.com/law-makers/bounty/internal/config"
	"github.com/law-makers/bounty/internal/ui"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bounty",
	Short: "Scrape bounty listings and report the new ones",
	Long: `Bounty loads a listing page in a headless browser, extracts every bounty card,
marks each one expired or active, and remembers what it has already seen.

Run it as an HTTP service, as a one-off scrape, or on a schedule.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. ctx is cancelled on SIGINT/SIGTERM.
func Execute(ctx context.Context) int {
	err := rootCmd.ExecuteContext(ctx)
	closeApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.Error("Error: "+err.Error()))
		return 1
	}
	return 0
}

// Shutdown releases the browser held by the running command, if any
func Shutdown() {
	closeApp()
}

func closeApp() {
	a := GetApp()
	if a == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), config.DefaultShutdownTimeout)
	defer cancel()
	_ = a.Close(ctx)
}

func init() {
	// Initialize the application lazily so -h/--help never touches config or NATS
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if GetAppFromCmd(cmd) != nil {
			return nil
		}

		cfg, err := config.Load(cmd)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.LaunchTimeout+5*time.Second)
		defer cancel()
		a, err := app.New(ctx, cfg)
		if err != nil {
			return err
		}

		SetApp(cmd, a)
		log.Debug().Str("command", cmd.Name()).Msg("Configuration loaded")
		return nil
	}

	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		closeApp()
		SetApp(cmd, nil)
	}

	config.RegisterFlags(rootCmd)

	rootCmd.Flags().BoolP("help", "h", false, "Help for Bounty")
	rootCmd.Flags().Bool("version", false, "Version for Bounty")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetHelpFunc(customHelpFunc)
}

// customHelpFunc provides a colorized help output
func customHelpFunc(cmd *cobra.Command, args []string) {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "\n%s%s%s\n", ui.ColorBold+ui.ColorCyan, strings.ToUpper(cmd.Name()), ui.ColorReset)
	if cmd.Short != "" {
		fmt.Fprintf(w, "%s\n", cmd.Short)
	}
	if cmd.Long != "" && cmd.Long != cmd.Short {
		fmt.Fprintf(w, "\n%s\n", cmd.Long)
	}

	section(w, "Usage")
	if cmd.Runnable() {
		fmt.Fprintf(w, "  %s%s%s\n", ui.ColorCyan, cmd.UseLine(), ui.ColorReset)
	}
	if cmd.HasAvailableSubCommands() {
		fmt.Fprintf(w, "  %s%s%s %s<command>%s %s[flags]%s\n",
			ui.ColorCyan, cmd.CommandPath(), ui.ColorReset,
			ui.ColorYellow, ui.ColorReset,
			ui.ColorDim, ui.ColorReset)
	}

	if cmd.HasExample() {
		section(w, "Examples")
		for _, line := range strings.Split(cmd.Example, "\n") {
			trimmed := strings.TrimSpace(line)
			switch {
			case trimmed == "":
			case strings.HasPrefix(trimmed, "#"):
				fmt.Fprintf(w, "  %s%s%s\n", ui.ColorDim, trimmed, ui.ColorReset)
			default:
				fmt.Fprintf(w, "  %s$ %s%s\n", ui.ColorGreen, trimmed, ui.ColorReset)
			}
		}
	}

	if cmd.HasAvailableSubCommands() {
		section(w, "Commands")
		maxLen := 0
		for _, c := range cmd.Commands() {
			if c.IsAvailableCommand() && len(c.Name()) > maxLen {
				maxLen = len(c.Name())
			}
		}
		for _, c := range cmd.Commands() {
			if !c.IsAvailableCommand() || c.Name() == "help" {
				continue
			}
			fmt.Fprintf(w, "  %s%s%s%s%s%s%s\n",
				ui.ColorCyan, c.Name(), ui.ColorReset,
				strings.Repeat(" ", maxLen-len(c.Name())+2),
				ui.ColorDim, c.Short, ui.ColorReset)
		}
	}

	if cmd.HasAvailableLocalFlags() {
		section(w, "Flags")
		printFlags(w, cmd.LocalFlags().FlagUsages())
	}
	if cmd.HasAvailableInheritedFlags() {
		section(w, "Global Flags")
		printFlags(w, cmd.InheritedFlags().FlagUsages())
	}
	fmt.Fprintln(w)
}

func section(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s%s%s\n", ui.ColorBold+ui.ColorWhite, title, ui.ColorReset)
}

// printFlags colors the flag names of cobra's usage block
func printFlags(w io.Writer, flagUsages string) {
	for _, line := range strings.Split(flagUsages, "\n") {
		trimmed := strings.TrimLeft(line, " ")
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, "-") {
			fmt.Fprintf(w, "      %s%s%s\n", ui.ColorDim, trimmed, ui.ColorReset)
			continue
		}
		parts := strings.SplitN(trimmed, "  ", 2)
		if len(parts) != 2 {
			fmt.Fprintf(w, "  %s%s%s\n", ui.ColorGreen, trimmed, ui.ColorReset)
			continue
		}
		flagPart := strings.TrimSpace(parts[0])
		pad := 30 - len(flagPart)
		if pad < 2 {
			pad = 2
		}
		fmt.Fprintf(w, "  %s%s%s%s%s%s%s\n",
			ui.ColorGreen, flagPart, ui.ColorReset,
			strings.Repeat(" ", pad),
			ui.ColorDim, strings.TrimSpace(parts[1]), ui.ColorReset)
	}
}
