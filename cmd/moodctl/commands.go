package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/moodpulse/internal/adapter/filestore"
	"github.com/pscheid92/moodpulse/internal/adapter/inference"
	"github.com/pscheid92/moodpulse/internal/adapter/prose"
	"github.com/pscheid92/moodpulse/internal/adapter/vader"
	"github.com/pscheid92/moodpulse/internal/app"
	"github.com/pscheid92/moodpulse/internal/domain"
	"github.com/pscheid92/moodpulse/internal/platform/crypto"
	"github.com/pscheid92/moodpulse/internal/platform/version"
	"github.com/pscheid92/moodpulse/internal/sentiment"
	"github.com/spf13/cobra"
)

const maxLineBytes = 1 << 20

// globalFlags are shared by every subcommand.
type globalFlags struct {
	dataDir       string
	user          string
	inferenceURL  string
	encryptionKey string
	linguistic    bool
}

func buildRootCmd() *cobra.Command {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:   "moodctl",
		Short: "Score text and inspect mood history against a local data directory",
		Long: `moodctl runs the sentiment pipeline locally. State, mood history and the
crisis audit log live in a file store under --data-dir, the same layout the
server uses with STORE_BACKEND=file.`,
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.dataDir, "data-dir", envOr("DATA_DIR", "./data"), "Data directory of the file store")
	pf.StringVarP(&flags.user, "user", "u", sentiment.DefaultUserID, "User whose state and history are used")
	pf.StringVar(&flags.inferenceURL, "inference-url", os.Getenv("INFERENCE_URL"), "Optional transformer inference server")
	pf.StringVar(&flags.encryptionKey, "encryption-key", os.Getenv("ENCRYPTION_KEY"), "Hex AES-256 key for mood history and crisis records")
	pf.BoolVar(&flags.linguistic, "linguistic", true, "Enable part-of-speech analysis")

	rootCmd.AddCommand(
		buildScoreCmd(&flags),
		buildStatsCmd(&flags),
		buildSummaryCmd(&flags),
		buildAlertCmd(&flags),
		buildCrisisCmd(&flags),
		buildClearCmd(&flags),
		buildVersionCmd(),
	)
	return rootCmd
}

// openService builds the service over the file store. Idle eviction is off for a
// one-shot process.
func openService(ctx context.Context, flags *globalFlags) (*app.Service, error) {
	clock := clockwork.NewRealClock()

	cipher, err := crypto.New(flags.encryptionKey)
	if err != nil {
		return nil, err
	}
	store, err := filestore.New(flags.dataDir, clock, cipher)
	if err != nil {
		return nil, fmt.Errorf("failed to open data directory: %w", err)
	}

	opts := sentiment.Options{
		Lexicon:   vader.NewScorer(),
		Baselines: store,
		CrisisLog: store,
		Clock:     clock,
	}
	if flags.linguistic {
		opts.Linguistic = prose.NewAnalyzer()
	}
	if flags.inferenceURL != "" {
		client, err := inference.NewClient(inference.Config{URL: flags.inferenceURL, Clock: clock})
		if err != nil {
			return nil, err
		}
		opts.Primary = client
	}

	analyzer, err := sentiment.NewAnalyzer(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create analyzer: %w", err)
	}

	cfg := app.DefaultConfig()
	cfg.IdleTTL = 0
	return app.NewService(analyzer, store, store, store, cfg, clock, nil), nil
}

func buildScoreCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "score [file]",
		Short: "Score each non-empty line of a file (stdin by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open input: %w", err)
				}
				defer func() { _ = f.Close() }()
				in = f
			}

			svc, err := openService(cmd.Context(), flags)
			if err != nil {
				return err
			}
			return runScore(cmd.Context(), svc, flags.user, in, cmd.OutOrStdout())
		},
	}
}

func runScore(ctx context.Context, svc *app.Service, user string, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		ts := time.Now()
		res, err := svc.Analyze(ctx, user, line, ts)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %.4f\n", ts.Format(time.RFC3339), res.Score)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

func buildStatsCmd(flags *globalFlags) *cobra.Command {
	var period string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print bucketed mood statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := domain.ParsePeriod(period)
			if err != nil {
				return fmt.Errorf("%w: %q", err, period)
			}
			svc, err := openService(cmd.Context(), flags)
			if err != nil {
				return err
			}
			stats, err := svc.Statistics(cmd.Context(), flags.user, p)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, s := range stats {
				fmt.Fprintf(out, "%-12s %+.4f %d\n", s.Label, s.Value, s.Count)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&period, "period", "p", string(domain.PeriodDaily), "Bucket period (daily, weekly, monthly)")
	return cmd
}

func buildSummaryCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print totals over the whole mood history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := openService(cmd.Context(), flags)
			if err != nil {
				return err
			}
			sum, err := svc.Summary(cmd.Context(), flags.user)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "entries:  %d\n", sum.TotalEntries)
			fmt.Fprintf(out, "average:  %+.4f\n", sum.AverageScore)
			fmt.Fprintf(out, "positive: %d\n", sum.PositiveCount)
			fmt.Fprintf(out, "negative: %d\n", sum.NegativeCount)
			fmt.Fprintf(out, "neutral:  %d\n", sum.NeutralCount)
			return nil
		},
	}
}

func buildAlertCmd(flags *globalFlags) *cobra.Command {
	var ack bool
	cmd := &cobra.Command{
		Use:   "alert",
		Short: "Show the alert status, or acknowledge it with --ack",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := openService(cmd.Context(), flags)
			if err != nil {
				return err
			}
			if ack {
				if err := svc.AcknowledgeAlert(cmd.Context(), flags.user); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "alert acknowledged")
				return nil
			}
			status, err := svc.AlertStatus(cmd.Context(), flags.user)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "alert: %t (%d of %d entries below threshold)\n",
				status.Alert, status.BelowThreshold, status.Total)
			return nil
		},
	}
	cmd.Flags().BoolVar(&ack, "ack", false, "Acknowledge the current alert")
	return cmd
}

func buildCrisisCmd(flags *globalFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "crisis",
		Short: "List crisis audit records, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := openService(cmd.Context(), flags)
			if err != nil {
				return err
			}
			records, err := svc.CrisisRecords(cmd.Context(), flags.user, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, r := range records {
				fmt.Fprintf(out, "%s %+.4f %s [%s]\n", r.Timestamp.Format(time.RFC3339), r.Score, r.TextRef, strings.Join(r.Matched, ", "))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of records (0 for all)")
	return cmd
}

func buildClearCmd(flags *globalFlags) *cobra.Command {
	var stateOnly, historyOnly bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear the user's mood history and circadian state",
		Long:  "Clear the user's mood history and circadian state. The crisis log is never cleared.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if stateOnly && historyOnly {
				return fmt.Errorf("--state and --history are mutually exclusive")
			}
			svc, err := openService(cmd.Context(), flags)
			if err != nil {
				return err
			}
			if !historyOnly {
				if err := svc.ResetState(cmd.Context(), flags.user); err != nil {
					return err
				}
			}
			if !stateOnly {
				if err := svc.ClearHistory(cmd.Context(), flags.user); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", flags.user)
			return nil
		},
	}
	cmd.Flags().BoolVar(&stateOnly, "state", false, "Only reset circadian state")
	cmd.Flags().BoolVar(&historyOnly, "history", false, "Only clear mood history")
	return cmd
}

func buildVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Get().String())
		},
	}
}
