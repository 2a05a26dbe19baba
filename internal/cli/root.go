package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	appanalyses "github.com/bryanwahyu/aegis-console/internal/application/analyses"
	"github.com/bryanwahyu/aegis-console/internal/application/lifecycle"
	"github.com/bryanwahyu/aegis-console/internal/infra/aegis"
	"github.com/bryanwahyu/aegis-console/internal/infra/transport"
	"github.com/bryanwahyu/aegis-console/internal/logging"
)

// Options global flags shared by every subcommand
type Options struct {
	APIURL       string
	Token        string
	Interval     time.Duration
	MaxWait      time.Duration
	OutputFormat string
	Verbose      bool
}

func NewRootCmd(version string) *cobra.Command {
	opts := &Options{}

	rootCmd := &cobra.Command{
		Use:   "aegisctl",
		Short: "Drive Aegis security analyses from the terminal",
		Long: `aegisctl submits repositories to the Aegis analysis service, waits for
the result, shows the compliance score and applies suggested fixes.`,
		SilenceUsage: true,
	}

	// Disable automatic 'completion' command added by cobra
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.APIURL, "api", envOr("AEGIS_API_URL", "http://localhost:3001"), "Base URL of the analysis service")
	pf.StringVar(&opts.Token, "token", os.Getenv("AEGIS_TOKEN"), "Bearer token (defaults to $AEGIS_TOKEN)")
	pf.DurationVar(&opts.Interval, "interval", lifecycle.DefaultInterval, "Delay between status checks")
	pf.DurationVar(&opts.MaxWait, "max-wait", 0, "Give up waiting after this long (0 waits forever)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", "human", "Output format (human, json, yaml)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(
		newAnalyzeCmd(opts),
		newWatchCmd(opts),
		newResultCmd(opts),
		newFixCmd(opts),
		newListCmd(opts),
		newDashboardCmd(opts),
		newVersionCmd(version),
	)
	return rootCmd
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "aegisctl version %s\n", version)
		},
	}
}

// service builds the use-case layer without local persistence.
func (o *Options) service(errOut io.Writer) *appanalyses.Service {
	level := "warn"
	if o.Verbose {
		level = "debug"
	}
	logger := logging.New(level, "console").Output(zerolog.ConsoleWriter{Out: errOut})

	tc := transport.New(o.APIURL, transport.WithLogger(logger))
	backend := aegis.NewClient(tc)
	poller := lifecycle.NewPoller(backend, logger)
	poller.Interval = o.Interval
	poller.MaxWait = o.MaxWait
	return appanalyses.NewService(backend, poller, logger)
}

func (o *Options) validate() error {
	switch o.OutputFormat {
	case "human", "json", "yaml":
	default:
		return fmt.Errorf("unknown output format %q (human, json, yaml)", o.OutputFormat)
	}
	if o.Interval <= 0 {
		return fmt.Errorf("--interval must be positive")
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
