package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/MikeSquared-Agency/procstop/internal/completion"
	"github.com/MikeSquared-Agency/procstop/internal/config"
	"github.com/MikeSquared-Agency/procstop/internal/extractor"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "procstop",
	Short:         "procstop - emotionally aware conversational support",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the session sweeper",
	RunE:  runServe,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a user's history tables as CSV or XLSX",
	RunE:  runExport,
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the analytics summary of a user's history as JSON",
	RunE:  runReport,
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Follow conversation events on NATS",
	RunE:  runEvents,
}

var (
	userFlag   string
	dirFlag    string
	formatFlag string
)

func init() {
	exportCmd.Flags().StringVar(&userFlag, "user", "", "user id whose history is exported")
	exportCmd.Flags().StringVar(&dirFlag, "dir", "", "output directory (default EXPORT_DIR)")
	exportCmd.Flags().StringVar(&formatFlag, "format", "csv", "output format: csv or xlsx")
	exportCmd.MarkFlagRequired("user")

	reportCmd.Flags().StringVar(&userFlag, "user", "", "user id to summarise")
	reportCmd.MarkFlagRequired("user")

	rootCmd.AddCommand(serveCmd, exportCmd, reportCmd, eventsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("procstop failed", "error", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration and installs the logger.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	setupLogging(cfg.LogLevel)
	return cfg, nil
}

func setupLogging(level string) {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(level)})
	slog.SetDefault(slog.New(handler))
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newCompleter builds the reply backend named by LLM_PROVIDER.
func newCompleter(cfg config.Config) (completion.Completer, error) {
	var c completion.Completer
	switch cfg.LLMProvider {
	case "openai", "":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
		c = completion.NewOpenAI(cfg.OpenAIAPIKey, cfg.Model)
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for the anthropic provider")
		}
		c = completion.NewAnthropic(cfg.AnthropicAPIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLMProvider)
	}
	return completion.WithTimeout(c, cfg.CompletionTimeout), nil
}

// newExtractor prefers the inference service when one is configured and
// falls back to the OpenAI extractor.
func newExtractor(cfg config.Config, logger *slog.Logger) (extractor.Extractor, error) {
	if cfg.InferenceURL != "" {
		return extractor.NewInferenceClient(cfg.InferenceURL, logger), nil
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("INFERENCE_URL or OPENAI_API_KEY is required for feature extraction")
	}
	return extractor.NewLLMExtractor(cfg.OpenAIAPIKey, cfg.ExtractorModel, logger), nil
}
