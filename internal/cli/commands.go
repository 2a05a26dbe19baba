package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	appanalyses "github.com/bryanwahyu/aegis-console/internal/application/analyses"
	domain "github.com/bryanwahyu/aegis-console/internal/domain/analysis"
)

func newAnalyzeCmd(opts *Options) *cobra.Command {
	var noWait bool
	cmd := &cobra.Command{
		Use:   "analyze REPO_URL",
		Short: "Submit a repository and wait for its analysis",
		Long: `Submit a repository to the analysis service. By default aegisctl keeps
checking the status until the analysis completes or fails.

Examples:
  # Analyze and wait for the result
  aegisctl analyze https://github.com/acme/payments

  # Only submit, print the analysis id
  aegisctl analyze https://github.com/acme/payments --no-wait -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
			svc := opts.service(errOut)

			s := opts.spinner(errOut, " Submitting repository...")
			res, err := svc.Submit(cmd.Context(), args[0], opts.Token)
			s.Stop()
			if err != nil {
				return describe(err)
			}
			if noWait {
				return render(out, opts.OutputFormat, res, func(w io.Writer) {
					printSuccess(w, fmt.Sprintf("Analysis %s started (%s)", res.AnalysisID, res.Status))
				})
			}
			if opts.OutputFormat == "human" {
				printSuccess(errOut, fmt.Sprintf("Analysis %s started", res.AnalysisID))
			}
			return watch(cmd, opts, svc, res.AnalysisID)
		},
	}
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "Return right after the analysis is submitted")
	return cmd
}

func newWatchCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch ID",
		Short: "Wait for a running analysis to finish",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			return watch(cmd, opts, opts.service(cmd.ErrOrStderr()), domain.AnalysisID(args[0]))
		},
	}
}

func watch(cmd *cobra.Command, opts *Options, svc *appanalyses.Service, id domain.AnalysisID) error {
	errOut := cmd.ErrOrStderr()
	s := opts.spinner(errOut, " Waiting for analysis "+string(id)+"...")
	started := time.Now()

	res, err := svc.Watch(cmd.Context(), id, opts.Token, func(st domain.Status) {
		s.Lock()
		s.Suffix = fmt.Sprintf(" Analysis %s: %s (%s)", id, st, time.Since(started).Round(time.Second))
		s.Unlock()
	})
	s.Stop()
	if err != nil {
		return describe(err)
	}
	return render(cmd.OutOrStdout(), opts.OutputFormat, res, func(w io.Writer) {
		displayResult(w, id, res.Score, res.Result)
	})
}

func newResultCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "result ID",
		Short: "Show the result of a completed analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			svc := opts.service(cmd.ErrOrStderr())
			res, err := svc.Result(cmd.Context(), domain.AnalysisID(args[0]), opts.Token)
			if err != nil {
				return describe(err)
			}
			return render(cmd.OutOrStdout(), opts.OutputFormat, res, func(w io.Writer) {
				displayResult(w, res.AnalysisID, res.Score, res.Result)
			})
		},
	}
}

func newFixCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "fix ID FIX",
		Short: "Apply a suggested fix",
		Long: `Apply one of the auto fixes of a completed analysis. FIX is the fix id
shown by "aegisctl result" or its position in the list, starting at 0.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
			svc := opts.service(errOut)

			s := opts.spinner(errOut, " Applying fix...")
			rep, err := svc.ApplyFix(cmd.Context(), domain.AnalysisID(args[0]), args[1], opts.Token)
			s.Stop()
			if err != nil && !rep.Outcome.Success {
				return describe(err)
			}
			if rerr := render(out, opts.OutputFormat, rep, func(w io.Writer) {
				displayFix(w, rep.Notification(), rep.Rejected(), rep.Refreshed)
			}); rerr != nil {
				return rerr
			}
			if err != nil {
				// fix went through, the refresh did not
				return describe(err)
			}
			return rep.Err()
		},
	}
}

func newListCmd(opts *Options) *cobra.Command {
	var page, limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List past analyses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			svc := opts.service(cmd.ErrOrStderr())
			p, err := svc.History(cmd.Context(), page, limit, opts.Token)
			if err != nil {
				return describe(err)
			}
			return render(cmd.OutOrStdout(), opts.OutputFormat, p, func(w io.Writer) {
				displayPage(w, p)
			})
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&limit, "limit", 10, "Analyses per page")
	return cmd
}

func newDashboardCmd(opts *Options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show aggregate numbers over recent analyses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			svc := opts.service(cmd.ErrOrStderr())
			st, err := svc.Dashboard(cmd.Context(), 1, limit, opts.Token)
			if err != nil {
				return describe(err)
			}
			return render(cmd.OutOrStdout(), opts.OutputFormat, st, func(w io.Writer) {
				displayStats(w, st)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of recent analyses to aggregate")
	return cmd
}

func (o *Options) spinner(w io.Writer, suffix string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = suffix
	if o.OutputFormat == "human" {
		s.Start()
	}
	return s
}

// describe turns lifecycle errors into one readable line.
func describe(err error) error {
	switch domain.Classify(err) {
	case domain.ClassCancelled:
		return errors.New("cancelled")
	case domain.ClassAnalysisFailed:
		return err
	case domain.ClassTimeout:
		return fmt.Errorf("gave up waiting: %w", err)
	case domain.ClassTransport:
		apiErr, _ := domain.AsAPIError(err)
		return fmt.Errorf("%s (%s)", strings.TrimSpace(apiErr.Message), apiErr.Code)
	}
	return err
}
