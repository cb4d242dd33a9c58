package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"apodget/pkg/apoddate"
	"apodget/pkg/config"
	errs "apodget/pkg/errors"
	"apodget/pkg/logger"
	"apodget/pkg/scraper"
	"apodget/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// notFoundMessage is shown when random mode gives up
const notFoundMessage = "Could not find picture. Check your internet or the date."

// options holds the parsed command line
type options struct {
	// Global flags
	configFile string
	logLevel   string
	noColor    bool
	verbose    bool

	// Lookup flags
	mode        string
	date        string
	download    string
	description bool
	hd          bool
	timeout     time.Duration
	maxAttempts int

	// now is the reference time for "today" and century inference
	now func() time.Time
}

// app carries the streams shared by every command
type app struct {
	opts   options
	stdout io.Writer
	stderr io.Writer
	term   *ui.Terminal
}

// Execute runs the command line and returns the process exit code
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{
		opts:   options{now: time.Now},
		stdout: stdout,
		stderr: stderr,
	}
	return a.execute(ctx, args)
}

func (a *app) execute(ctx context.Context, args []string) int {
	rootCmd := a.newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return errs.ExitOK
	}

	a.printError(err)
	return errs.ExitCode(err)
}

func (a *app) terminal() *ui.Terminal {
	if a.term == nil {
		a.term = ui.NewTerminal(a.stdout, a.stderr, !a.opts.noColor)
	}
	return a.term
}

func (a *app) printError(err error) {
	term := a.terminal()
	switch errs.TypeOf(err) {
	case errs.ErrorTypeRetryExhausted:
		term.PrintError(notFoundMessage)
	case errs.ErrorTypeNoPicture:
		term.PrintError("No picture found", err)
	default:
		term.PrintError("Error", err)
		var usage *usageError
		if errors.As(err, &usage) {
			term.PrintDim("Run 'apodget --help' for usage.")
		}
	}
}

// usageError marks a bad flag or argument rejected by cobra
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }

func flagError(cmd *cobra.Command, err error) error {
	return &usageError{err: err}
}

// noArgs is cobra.NoArgs reported as a usage error
func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return &usageError{err: err}
	}
	return nil
}

func (a *app) newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "apodget",
		Short: "Fetch NASA's Astronomy Picture of the Day",
		Long: `apodget finds the image published on NASA's Astronomy Picture of the Day
site and prints its URL, or downloads it into a directory.

In "today" mode the picture of --date (default: today) is fetched. In "random"
mode dates between --date and now are sampled until one has a picture; days
showing a video are skipped.

Output is a single line on stdout: the image URL, or the saved file path when
--download is given. Everything else goes to stderr.

Exit codes:
  0  success
  1  invalid arguments or configuration
  2  no picture found
  3  fetch or download failure`,
		Example: `  # URL of today's picture
  apodget

  # Picture of 1 January 2024 with its explanation
  apodget --date 240101 --description

  # A random picture published since 2020, saved into ./pics
  apodget --type random --date 200101 --download ./pics`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
		Args:          noArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          a.runFetch,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&a.opts.configFile, "config", "c", "", "config file (default is ./.apodget.yaml or ~/.config/apodget/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&a.opts.logLevel, "log-level", "", "log level (debug, info, warn, error, disabled)")
	rootCmd.PersistentFlags().BoolVar(&a.opts.noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&a.opts.verbose, "verbose", "v", false, "debug logs and download progress on stderr")

	// Lookup flags
	rootCmd.Flags().StringVarP(&a.opts.mode, "type", "t", string(scraper.ModeToday), "lookup type: random or today")
	rootCmd.Flags().StringVarP(&a.opts.date, "date", "d", "", "date as YYMMDD; earliest date in random mode (default today)")
	rootCmd.Flags().StringVarP(&a.opts.download, "download", "o", "", "download the image into this existing directory")
	rootCmd.Flags().BoolVar(&a.opts.description, "description", false, "print the picture's explanation")
	rootCmd.Flags().BoolVar(&a.opts.hd, "hd", false, "prefer the full-size image when the page links to one")
	rootCmd.Flags().DurationVar(&a.opts.timeout, "timeout", config.DefaultTimeout, "timeout for each HTTP request")
	rootCmd.Flags().IntVar(&a.opts.maxAttempts, "max-attempts", config.DefaultMaxAttempts, "dates to try in random mode")

	rootCmd.SetVersionTemplate(`apodget {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetFlagErrorFunc(flagError)

	rootCmd.AddCommand(a.newConfigCmd())

	return rootCmd
}

// flagOverrides collects the flags the user actually set
func (a *app) flagOverrides(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}

	if changed("timeout") {
		flags["timeout"] = a.opts.timeout
	}
	if changed("max-attempts") {
		flags["max-attempts"] = a.opts.maxAttempts
	}
	if changed("hd") {
		flags["hd"] = a.opts.hd
	}
	if a.opts.logLevel != "" {
		flags["log-level"] = a.opts.logLevel
	}
	if a.opts.verbose {
		flags["log-level"] = "debug"
	}
	if a.opts.noColor {
		flags["no-color"] = true
	}
	return flags
}

// loadConfig loads configuration and sets up logging
func (a *app) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(a.opts.configFile, a.flagOverrides(cmd))
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeValidation, err, "failed to load configuration")
	}

	logger.Output = a.stderr
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeValidation, err, "failed to initialize logger")
	}
	a.term = ui.NewTerminal(a.stdout, a.stderr, cfg.UI.Color)

	return cfg, nil
}

func (a *app) runFetch(cmd *cobra.Command, args []string) error {
	mode, err := scraper.ParseMode(a.opts.mode)
	if err != nil {
		return err
	}

	now := a.opts.now()
	date := apoddate.Midnight(now)
	if a.opts.date != "" {
		date, err = apoddate.Parse(a.opts.date, now)
		if err != nil {
			return err
		}
	}

	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return err
	}

	log := logger.GetLogger()
	log.DebugWithFields("apodget starting", map[string]interface{}{
		"version": version,
		"mode":    string(mode),
		"date":    apoddate.Format(date),
	})

	s := scraper.New(cfg, log)
	s.SetClock(a.opts.now)

	var bar *ui.ProgressBar
	if a.opts.verbose && cfg.UI.Progress && a.opts.download != "" && ui.IsTerminal(a.stderr) {
		bar = ui.NewProgressBar(a.stderr, "downloading", a.terminal().ColorEnabled())
		s.SetProgress(bar.Update)
	}

	result, err := s.Run(cmd.Context(), scraper.Request{
		Mode:        mode,
		Date:        date,
		DownloadDir: a.opts.download,
		Description: a.opts.description,
		HD:          cfg.Output.PreferHD,
	})
	if bar != nil {
		bar.Done()
	}
	if err != nil {
		log.WithError(err).Debug("Lookup failed")
		return err
	}

	term := a.terminal()
	if a.opts.description {
		term.PrintDescription(result.Picture.Description)
	}
	term.PrintResult(result.Line())

	return nil
}
