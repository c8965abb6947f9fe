package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/citecheck/internal/bibtex"
	"github.com/pdiddy/citecheck/internal/httputil"
	"github.com/pdiddy/citecheck/internal/provider"
	"github.com/pdiddy/citecheck/internal/report"
	"github.com/pdiddy/citecheck/internal/run"
	"github.com/pdiddy/citecheck/internal/secrets"
	"github.com/pdiddy/citecheck/internal/texscan"
	"github.com/pdiddy/citecheck/internal/verify"
	"github.com/pdiddy/citecheck/pkg/types"
)

const (
	defaultTexPath   = "./temp/tex"
	defaultBibPath   = "./temp/bib"
	defaultOutputDir = "output"
	historyDBName    = "citecheck.db"
)

// errIssuesFound is returned by check --fail-on-issues when the run found
// at least one issue.
var errIssuesFound = errors.New("citation issues found")

var checkCmd = &cobra.Command{
	Use:   "check [tex_path] [bib_path]",
	Short: "Verify every cited key against DBLP and OpenAlex",
	Long: `Check scans tex_path (a .tex file or a directory searched recursively) for
\cite keys and loads bib_path (a .bib file or directory). Each key is
classified as Verified, Missing in Bib, Not Found, Title Mismatch, or
Author Mismatch. The full list is written to <output>/all_citations.json
and the issues to <output>/hallucination_report.json.

DBLP is asked first; OpenAlex is asked when DBLP has no match or only a
weak one. Set a contact e-mail with --email, CITECHECK_EMAIL,
OPENALEX_EMAIL in .env, or .secrets/openalex-email to use the OpenAlex
polite pool.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		bindFlags(cmd, checkFlagKeys)
		opts := checkOptionsFromConfig(args)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runCheck(ctx, opts, cmd.OutOrStdout(), logger)
	},
}

// checkFlagKeys maps viper keys to check flags.
var checkFlagKeys = map[string]string{
	"output":           "output",
	"format":           "format",
	"workers":          "workers",
	"threshold":        "threshold",
	"prefilter":        "prefilter",
	"author_threshold": "author-threshold",
	"delay":            "delay",
	"email":            "email",
	"db":               "db",
	"no_history":       "no-history",
	"quiet":            "quiet",
	"fail_on_issues":   "fail-on-issues",
	"dblp_url":         "dblp-url",
	"openalex_url":     "openalex-url",
	"dblp_timeout":     "dblp-timeout",
	"openalex_timeout": "openalex-timeout",
	"user_agent":       "user-agent",
}

func init() {
	f := checkCmd.Flags()
	f.String("output", defaultOutputDir, "directory for report files")
	f.String("format", string(types.FormatJSON), "report format: json or yaml")
	f.Int("workers", types.DefaultWorkers, "number of keys verified concurrently")
	f.Float64("threshold", types.DefaultAcceptanceThreshold, "title similarity (0-100) required to accept a match")
	f.Float64("prefilter", types.DefaultPrefilterThreshold, "title similarity at which a DBLP match skips the OpenAlex fallback")
	f.Float64("author-threshold", types.DefaultAuthorThreshold, "partial similarity a candidate author must exceed to match the first author")
	f.Duration("delay", types.DefaultInterRequestDelay, "minimum spacing between requests to one provider (0 disables)")
	f.String("email", "", "contact e-mail sent to OpenAlex")
	f.String("db", "", "run history database (default <output>/"+historyDBName+")")
	f.Bool("no-history", false, "do not record the run in the history database")
	f.Bool("quiet", false, "suppress per-key progress lines")
	f.Bool("fail-on-issues", false, "exit with status 2 when any issue is found")
	f.String("dblp-url", "", "DBLP search endpoint override")
	f.String("openalex-url", "", "OpenAlex works endpoint override")
	f.Duration("dblp-timeout", types.DefaultPrimaryTimeout, "DBLP request timeout")
	f.Duration("openalex-timeout", types.DefaultSecondaryTimeout, "OpenAlex request timeout")
	f.String("user-agent", types.DefaultUserAgent, "User-Agent sent when no contact e-mail is set")

	rootCmd.AddCommand(checkCmd)
}

// bindFlags binds viper keys to cmd's flags. Binding happens when the
// command runs so subcommands sharing a key do not steal each other's flag.
func bindFlags(cmd *cobra.Command, keys map[string]string) {
	for key, flag := range keys {
		_ = viper.BindPFlag(key, cmd.Flags().Lookup(flag))
	}
}

// checkOptions is the resolved configuration of one check invocation.
type checkOptions struct {
	TexPath      string
	BibPath      string
	OutputDir    string
	Format       types.OutputFormat
	DBPath       string
	FailOnIssues bool

	Verifier  types.VerifierConfig
	Providers types.ProviderConfig
	Run       types.RunConfig
}

// checkOptionsFromConfig resolves options from positional args and viper.
// The contact address falls back from flag or CITECHECK_EMAIL to
// OPENALEX_EMAIL (possibly from .env) to .secrets/openalex-email.
func checkOptionsFromConfig(args []string) checkOptions {
	opts := checkOptions{
		TexPath:      defaultTexPath,
		BibPath:      defaultBibPath,
		OutputDir:    viper.GetString("output"),
		Format:       types.OutputFormat(viper.GetString("format")),
		DBPath:       viper.GetString("db"),
		FailOnIssues: viper.GetBool("fail_on_issues"),
		Verifier: types.VerifierConfig{
			AcceptanceThreshold: viper.GetFloat64("threshold"),
			PrefilterThreshold:  viper.GetFloat64("prefilter"),
			AuthorThreshold:     viper.GetFloat64("author_threshold"),
			InterRequestDelay:   viper.GetDuration("delay"),
			ContactAddress: secrets.First(
				viper.GetString("email"),
				os.Getenv("OPENALEX_EMAIL"),
				loadedSecrets[secrets.OpenAlexEmail],
			),
		},
		Providers: types.ProviderConfig{
			Primary: types.HTTPConfig{
				Timeout:   viper.GetDuration("dblp_timeout"),
				UserAgent: viper.GetString("user_agent"),
				BaseURL:   viper.GetString("dblp_url"),
			},
			Secondary: types.HTTPConfig{
				Timeout:   viper.GetDuration("openalex_timeout"),
				UserAgent: viper.GetString("user_agent"),
				BaseURL:   viper.GetString("openalex_url"),
			},
		},
		Run: types.RunConfig{
			Workers: viper.GetInt("workers"),
			Quiet:   viper.GetBool("quiet"),
		},
	}
	if len(args) > 0 {
		opts.TexPath = args[0]
	}
	if len(args) > 1 {
		opts.BibPath = args[1]
	}
	if opts.OutputDir == "" {
		opts.OutputDir = defaultOutputDir
	}
	// The verifier reads a zero delay as "use the default".
	if opts.Verifier.InterRequestDelay <= 0 {
		opts.Verifier.InterRequestDelay = -1
	}
	if opts.DBPath == "" && !viper.GetBool("no_history") {
		opts.DBPath = filepath.Join(opts.OutputDir, historyDBName)
	}
	return opts
}

// newVerifier wires DBLP and OpenAlex behind shared per-provider limiters.
func newVerifier(opts checkOptions, logger *zap.Logger) *verify.Verifier {
	limiters := provider.NewLimiters(opts.Verifier.InterRequestDelay)
	retrier := httputil.Retrier{Logger: logger}

	primary := &provider.DBLP{
		Client:    &http.Client{Timeout: opts.Providers.Primary.Timeout},
		Limiters:  limiters,
		Retrier:   retrier,
		UserAgent: opts.Providers.Primary.UserAgent,
		BaseURL:   opts.Providers.Primary.BaseURL,
	}
	secondary := &provider.OpenAlex{
		Client:    &http.Client{Timeout: opts.Providers.Secondary.Timeout},
		Limiters:  limiters,
		Retrier:   retrier,
		Email:     opts.Verifier.ContactAddress,
		UserAgent: opts.Providers.Secondary.UserAgent,
		BaseURL:   opts.Providers.Secondary.BaseURL,
	}
	if secondary.Email == "" {
		logger.Info("no contact e-mail configured, OpenAlex requests use the anonymous pool")
	}
	return verify.NewVerifier(primary, secondary, opts.Verifier, logger)
}

// runCheck executes one verification run and writes its reports. Progress,
// the summary table, and the banner go to w.
func runCheck(ctx context.Context, opts checkOptions, w io.Writer, logger *zap.Logger) error {
	switch opts.Format {
	case types.FormatJSON, types.FormatYAML:
	default:
		return fmt.Errorf("unsupported format %q (want json or yaml)", opts.Format)
	}

	keys, err := texscan.ScanPath(opts.TexPath, logger)
	if err != nil {
		return err
	}
	bib, err := bibtex.LoadPath(opts.BibPath, logger)
	if err != nil {
		return err
	}

	lock, err := report.Lock(opts.OutputDir)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release output lock", zap.Error(err))
		}
	}()

	if len(keys) > 0 && len(bib) > 0 && !opts.Run.Quiet {
		fmt.Fprintf(w, "Checking %d citation keys against %d bib entries...\n", len(keys), len(bib))
	}
	res, err := run.Run(ctx, keys, bib, newVerifier(opts, logger), opts.Run, w)
	switch {
	case errors.Is(err, run.ErrNoKeys):
		return fmt.Errorf("%w in %s", err, opts.TexPath)
	case errors.Is(err, run.ErrNoEntries):
		return fmt.Errorf("%w in %s", err, opts.BibPath)
	case err != nil:
		return err
	}

	paths, err := report.Write(opts.OutputDir, opts.Format, res)
	if err != nil {
		return err
	}

	if opts.DBPath != "" {
		if err := saveHistory(ctx, opts, res); err != nil {
			logger.Warn("could not record run history", zap.String("db", opts.DBPath), zap.Error(err))
		}
	}

	report.Summary(w, res)
	report.Banner(w, res, paths, isTerminal(w))

	if opts.FailOnIssues && res.HasIssues() {
		return fmt.Errorf("%d %w", len(res.Issues), errIssuesFound)
	}
	return nil
}

func saveHistory(ctx context.Context, opts checkOptions, res *run.Result) error {
	store, err := report.OpenStore(opts.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.SaveRun(ctx, res, report.RunInputs{TexPath: opts.TexPath, BibPath: opts.BibPath})
}

// isTerminal reports whether w is a terminal, for ANSI styling.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	if errors.Is(err, errIssuesFound) {
		return 2
	}
	return 1
}
