package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/terra-clan/domain-lists/internal/config"
	"github.com/terra-clan/domain-lists/internal/lists"
	"github.com/terra-clan/domain-lists/internal/resolver"
)

var (
	logLevel  string
	logFormat string
	cfg       *config.Config
)

func Execute() error {
	root := &cobra.Command{
		Use:          "domain-lists",
		Short:        "Serve and browse paginated domain valuation lists",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := setupLogging(cmd.Name()); err != nil {
				return err
			}

			loaded, err := config.Load()
			if err != nil {
				return err
			}
			cfg = loaded
			return nil
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (json, text; default json for serve, text otherwise)")

	root.AddCommand(serveCmd(), pageCmd(), resolveCmd())

	return root.Execute()
}

func setupLogging(command string) error {
	format := strings.ToLower(logFormat)
	if format == "" {
		format = "text"
		if command == "serve" {
			format = "json"
		}
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("invalid log level %q", logLevel)
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	case "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("invalid log format %q", logFormat)
	}

	slog.SetDefault(slog.New(handler))
	return nil
}

// newResolver builds a resolver from the mapping file, or the built-in
// tables when none is configured
func newResolver(mappingFile string) (*resolver.Resolver, error) {
	if mappingFile == "" {
		return resolver.New(resolver.DefaultTables()), nil
	}
	tables, err := resolver.LoadTables(mappingFile)
	if err != nil {
		return nil, err
	}
	return resolver.New(tables), nil
}

func newLoader(baseURL string) (*lists.HTTPLoader, error) {
	return lists.NewHTTPLoader(baseURL,
		lists.WithTimeout(cfg.Lists.RequestTimeout),
		lists.WithMaxBodyBytes(cfg.Lists.MaxBodyBytes),
	)
}
