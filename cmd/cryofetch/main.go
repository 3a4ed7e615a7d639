// Package main is the entry point for the cryofetch application.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term" //nolint:depguard // Required for TTY detection and password prompts

	"github.com/xinlongliu0307/cryo2ice-snow-thickness-antarctic-2020-2025/internal/config"
	"github.com/xinlongliu0307/cryo2ice-snow-thickness-antarctic-2020-2025/internal/discovery"
	"github.com/xinlongliu0307/cryo2ice-snow-thickness-antarctic-2020-2025/internal/fetchengine"
	"github.com/xinlongliu0307/cryo2ice-snow-thickness-antarctic-2020-2025/internal/tui"
	pkgerrors "github.com/xinlongliu0307/cryo2ice-snow-thickness-antarctic-2020-2025/pkg/errors"
	"github.com/xinlongliu0307/cryo2ice-snow-thickness-antarctic-2020-2025/pkg/formatters"
	"github.com/xinlongliu0307/cryo2ice-snow-thickness-antarctic-2020-2025/pkg/memguard"
	"github.com/xinlongliu0307/cryo2ice-snow-thickness-antarctic-2020-2025/pkg/remote"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		if suggestions := pkgerrors.FormatSuggestions(err); suggestions != "" {
			fmt.Fprintln(os.Stderr, suggestions)
		}

		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.ParseFlags()
	if err != nil {
		return err
	}

	endpoint, err := remote.ParseEndpoint(cfg.ServerURL)
	if err != nil {
		return err
	}

	if endpoint.Scheme == "sftp" && !endpoint.HasPassword {
		resolvePassword(endpoint)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	guard := memguard.NewSystemGuard(cfg.MemoryThreshold)
	fmt.Fprintln(os.Stderr, guard.Describe())

	interactive := !cfg.Plain && term.IsTerminal(int(os.Stdout.Fd()))

	var (
		snapshot fetchengine.Snapshot
		failures []fetchengine.FileError
	)

	if interactive {
		snapshot, failures, err = runInteractive(ctx, cfg, endpoint, guard)
	} else {
		reporter := tui.NewPlainReporter(os.Stdout)
		snapshot, failures, err = executePipeline(ctx, cfg, endpoint, guard, reporter)
	}

	if err != nil {
		return err
	}

	printSummary(os.Stdout, snapshot, failures)

	if snapshot.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", snapshot.Failed, snapshot.TotalFiles) //nolint:err113 // exit status summary, not matched by callers
	}

	return nil
}

// runInteractive drives the pipeline under the full-screen dashboard. The
// engine runs in a background goroutine and streams events over the bridge;
// ctrl+c cancels the pipeline context and the run drains to completion.
func runInteractive(ctx context.Context, cfg *config.Config, endpoint *remote.Endpoint, guard *memguard.Guard) (fetchengine.Snapshot, []fetchengine.FileError, error) {
	bridge := tui.NewEventBridge()
	defer bridge.Close()

	pipelineCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type pipelineResult struct {
		snapshot fetchengine.Snapshot
		failures []fetchengine.FileError
		err      error
	}

	resultChan := make(chan pipelineResult, 1)

	go func() {
		snapshot, failures, err := executePipeline(pipelineCtx, cfg, endpoint, guard, bridge)
		if err != nil {
			// The dashboard quits on RunComplete. A pipeline that dies
			// before the engine starts never emits one, so emit it here
			// to unblock the UI.
			bridge.Emit(fetchengine.RunComplete{})
		}

		resultChan <- pipelineResult{snapshot: snapshot, failures: failures, err: err}
	}()

	_, _, uiErr := tui.Run(bridge, cancel)
	if uiErr != nil {
		cancel()
	}

	// The dashboard stops reading once it exits (force quit or UI error);
	// keep draining so the pipeline's final blocking emit cannot wedge it.
	// The drainer ends when the deferred Close closes the channel.
	go func() {
		for range bridge.Subscribe() { //nolint:revive // drain only
		}
	}()

	result := <-resultChan

	if uiErr != nil {
		return fetchengine.Snapshot{}, nil, uiErr
	}

	return result.snapshot, result.failures, result.err
}

// executePipeline performs discovery and then the transfer run, emitting
// progress through the given emitter.
func executePipeline(ctx context.Context, cfg *config.Config, endpoint *remote.Endpoint, guard *memguard.Guard, emitter fetchengine.EventEmitter) (fetchengine.Snapshot, []fetchengine.FileError, error) {
	dialer := buildDialer(cfg, endpoint)

	paths, err := discoverPlan(ctx, cfg, endpoint, dialer, emitter)
	if err != nil {
		return fetchengine.Snapshot{}, nil, err
	}

	pool, err := remote.NewPool(dialer, cfg.Sessions, cfg.ConnectDelay)
	if err != nil {
		return fetchengine.Snapshot{}, nil, err
	}

	engine := fetchengine.NewEngine(pool, guard, fetchengine.Config{
		DestRoot:               cfg.DestPath,
		Workers:                cfg.Workers,
		SessionCapacity:        cfg.Sessions,
		MaxAttempts:            cfg.Retries,
		RetryBaseDelay:         cfg.RetryDelay,
		VerifySizes:            cfg.VerifySizes,
		MemoryThresholdPercent: cfg.MemoryThreshold,
	})
	engine.SetEventEmitter(emitter)

	snapshot, err := engine.Run(ctx, paths)
	if err != nil {
		return fetchengine.Snapshot{}, nil, err
	}

	return snapshot, engine.Stats.Failures(), nil
}

// discoverPlan dials a dedicated session, walks the month folders in the
// requested range, and closes the session before the transfer run begins.
func discoverPlan(ctx context.Context, cfg *config.Config, endpoint *remote.Endpoint, dialer remote.Dialer, emitter fetchengine.EventEmitter) ([]fetchengine.RemotePath, error) {
	session, err := dialer.Dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", endpoint.Redacted(), err)
	}

	defer func() {
		// Best effort: the session is single-purpose and about to be replaced
		_ = session.Close()
	}()

	planner := discovery.NewPlanner(session, endpoint.Path, fetchengine.NewPatternFilter(cfg.Pattern))
	planner.SetEventEmitter(emitter)

	start := discovery.Month{Year: cfg.From.Year, Mon: cfg.From.Month}
	end := discovery.Month{Year: cfg.To.Year, Mon: cfg.To.Month}

	return planner.Discover(ctx, start, end)
}

func buildDialer(cfg *config.Config, endpoint *remote.Endpoint) remote.Dialer {
	if endpoint.Scheme == "sftp" {
		return remote.NewSFTPDialer(endpoint, cfg.Timeout)
	}

	return remote.NewFTPDialer(endpoint, cfg.Timeout)
}

// resolvePassword fills in an sftp password from the environment or, on a
// terminal, an interactive prompt. Leaving it unset is fine: the dialer then
// falls back to the SSH agent and default key files.
func resolvePassword(endpoint *remote.Endpoint) {
	if password := os.Getenv(config.PasswordEnvVar); password != "" {
		endpoint.Password = password
		endpoint.HasPassword = true

		return
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return
	}

	fmt.Fprintf(os.Stderr, "Password for %s@%s (empty to use SSH keys): ", endpoint.User, endpoint.Host)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))

	fmt.Fprintln(os.Stderr)

	if err == nil && len(raw) > 0 {
		endpoint.Password = string(raw)
		endpoint.HasPassword = true
	}
}

// printSummary writes the final counters and, for each failed file, the
// enriched error with recovery suggestions.
func printSummary(out io.Writer, snapshot fetchengine.Snapshot, failures []fetchengine.FileError) {
	fmt.Fprintf(out, "\nFinished in %s: %d completed, %d skipped, %d failed, %d retries, %s transferred\n",
		formatters.FormatDuration(snapshot.Elapsed()),
		snapshot.Completed, snapshot.Skipped, snapshot.Failed, snapshot.Retries,
		formatters.FormatBytes(snapshot.TransferredBytes))

	if len(failures) == 0 {
		return
	}

	enricher := pkgerrors.NewEnricher()

	fmt.Fprintf(out, "\nFailed files:\n")

	for _, failure := range failures {
		enriched := enricher.Enrich(failure.Err, failure.Path)

		var actionable pkgerrors.ActionableError
		if errors.As(enriched, &actionable) {
			fmt.Fprintf(out, "  %s [%s]: %s\n", failure.Path, actionable.Category(), actionable.OriginalError())

			if suggestions := pkgerrors.FormatSuggestions(enriched); suggestions != "" {
				fmt.Fprintln(out, suggestions)
			}
		} else {
			fmt.Fprintf(out, "  %s: %v\n", failure.Path, failure.Err)
		}
	}
}
