// Package cli provides the cobra commands of the pdf-ocr-worker binary.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mahirjain10/pdf-ocr-worker/config"
	"github.com/mahirjain10/pdf-ocr-worker/internal/muhimbi"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// NewRootCmd builds the command tree. The configuration is loaded once
// before any subcommand runs.
func NewRootCmd() *cobra.Command {
	var cfg config.Config

	rootCmd := &cobra.Command{
		Use:   "pdf-ocr-worker",
		Short: "Make scanned PDFs searchable with the Muhimbi PDF Online OCR service",
		Long: `pdf-ocr-worker sends PDF documents to the Muhimbi PDF Online ocr_pdf
operation and stores the searchable result.

Run a single document:
  pdf-ocr-worker ocr scan.pdf scan-ocr.pdf

Or consume OCR jobs from RabbitMQ with documents stored in S3:
  pdf-ocr-worker worker`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.InitializeEnvs()
			if err != nil {
				return fmt.Errorf("failed to initialize environment config: %w", err)
			}
			cfg = *loaded
			return setupLogging(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
		},
	}

	rootCmd.AddCommand(newOCRCmd(&cfg))
	rootCmd.AddCommand(newWorkerCmd(&cfg))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// Execute runs the CLI until ctx is cancelled.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func setupLogging(level, format string, w io.Writer) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)

	switch strings.ToLower(format) {
	case "console":
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339})
	case "json", "":
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
	default:
		return fmt.Errorf("invalid LOG_FORMAT %q: want json or console", format)
	}
	return nil
}

// newClient builds a Muhimbi client from the OCR settings.
func newClient(cfg config.OCR) (*muhimbi.Client, error) {
	return muhimbi.New(cfg.APIKey,
		muhimbi.WithBaseURL(cfg.BaseURL),
		muhimbi.WithTimeout(cfg.Timeout),
		muhimbi.WithInsecureSkipVerify(cfg.SkipCertValidation),
		muhimbi.WithPollInterval(cfg.PollInterval),
	)
}

func ocrOptions(cfg config.OCR) muhimbi.Options {
	return muhimbi.Options{
		Language:         cfg.Language,
		Performance:      cfg.Performance,
		CharactersOption: cfg.CharactersOption,
		Paginate:         cfg.Paginate,
		FailOnError:      cfg.FailOnError,
	}
}
