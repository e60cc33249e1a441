package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/ivoronin/dupehound/internal/budget"
	"github.com/ivoronin/dupehound/internal/cache"
	"github.com/ivoronin/dupehound/internal/config"
	"github.com/ivoronin/dupehound/internal/engine"
	"github.com/ivoronin/dupehound/internal/exclude"
	"github.com/ivoronin/dupehound/internal/progress"
	"github.com/ivoronin/dupehound/internal/status"
	"github.com/ivoronin/dupehound/internal/types"
)

const pollInterval = 200 * time.Millisecond

// scanOptions holds CLI flags that are not backed by config keys.
type scanOptions struct {
	excludes       []string
	noExcludes     bool
	keepExt        bool
	noProgress     bool
	verbose        bool
	nonInteractive bool
}

// newScanCmd creates the scan subcommand.
func newScanCmd() *cobra.Command {
	opts := &scanOptions{}

	cmd := &cobra.Command{
		Use:   "scan [root]",
		Short: "Scan a directory tree for duplicate files",
		Long: `Walks root (default: current directory) and reports groups of duplicate files.

Content mode groups files by size, then by SHA-256. Hashing runs against a time
budget: when the estimated completion exceeds it, the scan pauses and asks whether
to continue or to raise the minimum file size, which skips smaller files.

Name mode groups files whose names match after stripping a leading
YYYYMMDD[-HHMM] timestamp, punctuation and case. It never reads file content.

Settings can also come from ./dupehound.yaml or DUPEHOUND_* environment variables
(e.g. DUPEHOUND_SCAN_MIN_SIZE=100MiB). Flags take precedence.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			return runScan(cmd, root, opts)
		},
	}

	f := cmd.Flags()
	f.String("mode", "content", "Grouping mode: content or name")
	f.StringP("min-size", "m", "10MiB", "Minimum file size (e.g., 100, 1K, 10M, 1G)")
	f.Duration("time-budget", 60*time.Minute, "Advisory time budget for hashing (0 disables)")
	f.StringArrayVarP(&opts.excludes, "exclude", "e", nil, "Path prefix or glob to exclude (can be repeated)")
	f.BoolVar(&opts.noExcludes, "no-excludes", false, "Do not apply default system/OneDrive excludes")
	f.Bool("include-cloud", false, "Read cloud placeholder files (may trigger downloads)")
	f.BoolVar(&opts.keepExt, "keep-ext", false, "Name mode: keep file extensions when comparing names")
	f.String("cache-file", "", "Path to digest cache file (enables caching)")
	f.String("log-file", "", "Log file path (default .dupehound.log)")
	f.BoolVar(&opts.noProgress, "no-progress", false, "Disable progress output")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Debug logging and per-file errors on stderr")
	f.BoolVar(&opts.nonInteractive, "non-interactive-continue", false, "Continue automatically when the budget is exceeded")

	return cmd
}

// flagKeys maps flags to the config keys they override.
var flagKeys = map[string]string{
	"mode":          config.ModeKey,
	"min-size":      config.MinSizeKey,
	"time-budget":   config.TimeBudgetKey,
	"include-cloud": config.IncludeCloudKey,
	"cache-file":    config.CacheFileKey,
	"log-file":      config.LogFilenameKey,
}

// loadSettings layers flags over config file and environment.
func loadSettings(cmd *cobra.Command, opts *scanOptions) (*viper.Viper, config.Scan, error) {
	v := config.New()
	configFile, _ := cmd.Flags().GetString("config")
	if err := config.Load(v, configFile); err != nil {
		return nil, config.Scan{}, err
	}
	for name, key := range flagKeys {
		if err := bindFlag(v, cmd.Flags().Lookup(name), key); err != nil {
			return nil, config.Scan{}, err
		}
	}
	if opts.noExcludes {
		v.Set(config.DefaultExcludesKey, false)
	}
	if opts.keepExt {
		v.Set(config.IgnoreExtKey, false)
	}

	settings, err := config.ScanSettings(v)
	if err != nil {
		return nil, config.Scan{}, err
	}
	if err := exclude.Validate(opts.excludes); err != nil {
		return nil, config.Scan{}, fmt.Errorf("invalid --exclude: %w", err)
	}
	settings.Excludes = append(settings.Excludes, opts.excludes...)
	return v, settings, nil
}

// bindFlag wires a flag to a config key; an unset flag leaves config and env in charge.
func bindFlag(v *viper.Viper, flag *pflag.Flag, key string) error {
	if flag == nil {
		return fmt.Errorf("flag for config key %q not found", key)
	}
	return v.BindPFlag(key, flag)
}

// drainErrors consumes errors from a channel and writes them to w.
// Clears progress bar line before printing to avoid visual collision.
func drainErrors(errs <-chan error, w io.Writer, show bool) {
	for err := range errs {
		if show {
			fmt.Fprintf(w, "\r\033[Kerror: %v\n", err)
		}
	}
}

// runScan executes a scan and prints the ranked groups.
func runScan(cmd *cobra.Command, root string, opts *scanOptions) error {
	v, settings, err := loadSettings(cmd, opts)
	if err != nil {
		return err
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}

	logger, logCloser := config.NewLogger(v, opts.verbose)
	defer func() { _ = logCloser.Close() }()

	hashCache, err := cache.Open(settings.CacheFile)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer func() { _ = hashCache.Close() }()

	errCh := make(chan error, 100)
	go drainErrors(errCh, cmd.ErrOrStderr(), opts.verbose)

	sess := engine.New(
		engine.WithLogger(logger),
		engine.WithCache(hashCache),
		engine.WithErrCh(errCh),
	)

	ctx := cmd.Context()
	err = sess.Start(ctx, engine.Options{
		Root:         root,
		MinSize:      settings.MinSize,
		TimeBudget:   settings.TimeBudget,
		Excludes:     settings.Excludes,
		IncludeCloud: settings.IncludeCloud,
		Mode:         settings.Mode,
		IgnoreExt:    settings.IgnoreExt,
	})
	if err != nil {
		return err
	}

	bar := progress.New(!opts.noProgress)
	n := &negotiator{
		sess:           sess,
		bar:            bar,
		in:             readLines(cmd.InOrStdin()),
		out:            cmd.ErrOrStderr(),
		nonInteractive: opts.nonInteractive,
	}
	if err := watch(ctx, sess, bar, n); err != nil {
		return err
	}
	close(errCh) // Worker has exited, nothing sends anymore

	st := sess.Status()
	bar.Finish(st)
	if st.Phase == types.PhaseError {
		return errors.New(st.Error)
	}

	groups, err := sess.Results()
	if err != nil {
		return err
	}
	renderGroups(cmd.OutOrStdout(), st.Mode, groups)
	return nil
}

// watch polls the session until its worker exits, handing pauses to n.
// The poller and the negotiator run as one errgroup so an interrupt stops both.
func watch(ctx context.Context, sess *engine.Session, bar *progress.Bar, n *negotiator) error {
	pauses := make(chan status.ScanStatus)
	acks := make(chan struct{})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(pauses)
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			st := sess.Status()
			if st.Phase == types.PhaseNeedsTuning {
				select {
				case pauses <- st:
				case <-gctx.Done():
					return gctx.Err()
				}
				// Keep the spinner off the prompt until it is answered
				select {
				case <-acks:
				case <-gctx.Done():
					return gctx.Err()
				}
				continue
			}
			bar.Describe(st)

			select {
			case <-sess.Done():
				return nil
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
			}
		}
	})
	g.Go(func() error {
		for st := range pauses {
			if err := n.negotiate(gctx, st); err != nil {
				return err
			}
			select {
			case acks <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	return g.Wait()
}

// readLines feeds lines from r into a channel closed at EOF.
func readLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()
	return lines
}

// negotiator answers budget pauses from the terminal.
type negotiator struct {
	sess           *engine.Session
	bar            *progress.Bar
	in             <-chan string
	out            io.Writer
	nonInteractive bool
}

// negotiate prompts until a decision is accepted by the session.
func (n *negotiator) negotiate(ctx context.Context, st status.ScanStatus) error {
	n.bar.Clear()
	fmt.Fprintf(n.out, "\n%s\n", progress.Snapshot(st))

	if n.nonInteractive {
		return n.submit(budget.Continue())
	}

	for {
		fmt.Fprintf(n.out, "[c]ontinue (asks again while over budget), or [r]aise min size [size] (Enter = raise to %s): ",
			fmtBytes(uint64(st.TuningSuggestion)))

		var line string
		var ok bool
		select {
		case line, ok = <-n.in:
		case <-ctx.Done():
			return ctx.Err()
		}
		if !ok {
			fmt.Fprintln(n.out, "\nno input, continuing")
			return n.submit(budget.Continue())
		}

		d, err := parseDecision(line, st.TuningSuggestion)
		if err != nil {
			fmt.Fprintf(n.out, "%v\n", err)
			continue
		}
		if err := n.submit(d); err != nil {
			if errors.Is(err, budget.ErrThresholdTooSmall) {
				fmt.Fprintf(n.out, "%v\n", err)
				continue
			}
			return err
		}
		return nil
	}
}

// submit delivers d. A pause already answered elsewhere is not an error.
func (n *negotiator) submit(d budget.Decision) error {
	err := n.sess.Resume(d)
	if errors.Is(err, budget.ErrNotPaused) {
		return nil
	}
	if err == nil {
		fmt.Fprintf(n.out, "resuming: %s\n", d)
	}
	return err
}
