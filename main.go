// Command nova7 streams 100-question interview drill documents from a
// generative-text service, in the browser or in the terminal.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"interview_protocol/config"
	"interview_protocol/export"
	"interview_protocol/generator"
	"interview_protocol/logging"
)

// version is set at build time via ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "nova7",
	Short: "Interview protocol generator",
	Long: `nova7 sends a job role or topic to a generative-text service and streams
back a 100-question interview drill document. "serve" runs the web interface;
"generate" streams a single document to the terminal.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./config/config.{json,yaml} or ./config.{json,yaml})")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logs")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadRuntime reads the configuration and builds the logger every command shares.
func loadRuntime(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, nil, err
	}
	level := logging.ParseLevel(cfg.LogLevel)
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	logger := logging.New(level)
	if used := config.Used(path); used != "" {
		logger.Debug("using config file", "path", used)
	}
	return cfg, logger, nil
}

func buildProducer(cfg config.LLMConfig) (generator.Producer, error) {
	return generator.NewProducer(generator.Settings{
		Provider: cfg.Provider,
		Model:    cfg.Model,
		APIKey:   cfg.APIKey,
		BaseURL:  cfg.BaseURL,
	})
}

// buildCapture picks the capture facility for cfg.Capture. In auto mode a
// configured converter wins, then a Chrome found on the machine, then the
// print-ready HTML writer.
func buildCapture(cfg config.ExportConfig) export.Capability {
	switch cfg.Capture {
	case config.CapturePrint:
		return export.PrintCapture{Dir: cfg.Dir}
	case config.CaptureCommand:
		return export.CommandCapture{Binary: cfg.Command, Dir: cfg.Dir}
	case config.CaptureChrome:
		return export.ChromeCapture{Browser: cfg.Browser, Dir: cfg.Dir}
	}
	if cfg.Command != "" {
		return export.CommandCapture{Binary: cfg.Command, Dir: cfg.Dir}
	}
	if export.FindBrowser(cfg.Browser) != "" {
		return export.ChromeCapture{Browser: cfg.Browser, Dir: cfg.Dir}
	}
	return export.PrintCapture{Dir: cfg.Dir}
}
