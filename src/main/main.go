package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/spf13/cobra"

	"screen-timer-llm/src/config"
	"screen-timer-llm/src/countdown"
	"screen-timer-llm/src/eventloop"
	"screen-timer-llm/src/history"
	"screen-timer-llm/src/hotkey"
	"screen-timer-llm/src/logutil"
	"screen-timer-llm/src/overlay"
	"screen-timer-llm/src/platform"
	"screen-timer-llm/src/runtimeinit"
	"screen-timer-llm/src/singleinstance"
	"screen-timer-llm/src/tray"
)

const appID = "io.github.screen-timer-llm"

type mainOptions struct {
	configPath string
	apiKeyPath string
	reset      bool
	status     bool
	once       bool
	history    int
}

// errNoResident is returned by --reset/--status when no overlay runs.
var errNoResident = errors.New("no running overlay found")

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	args := normalizeLegacyArgs(os.Args)
	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "screen-timer",
		Short:         "Countdown overlay that captures the screen and asks a vision model about it",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(cmd.Context(), *opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "Path to config.json (default: next to the executable)")
	cmd.Flags().StringVar(&opts.apiKeyPath, "api-key-path", "", "Path to API key file (highest precedence)")
	cmd.Flags().BoolVar(&opts.reset, "reset", false, "Reset the countdown of the running overlay and exit")
	cmd.Flags().BoolVar(&opts.status, "status", false, "Print the state of the running overlay and exit")
	cmd.Flags().BoolVar(&opts.once, "once", false, "Capture and query once without the overlay, print the response and exit")
	cmd.Flags().IntVar(&opts.history, "history", 0, "Print the last N recorded outcomes and exit (needs history_path)")
	cmd.MarkFlagsMutuallyExclusive("reset", "status", "once", "history")

	return cmd
}

func runWithOptions(ctx context.Context, opts mainOptions, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	platform.EnableDPIAwareness()

	switch {
	case opts.reset:
		return delegate(ctx, singleinstance.NewClient(), singleinstance.CommandReset, stdout)
	case opts.status:
		return delegate(ctx, singleinstance.NewClient(), singleinstance.CommandStatus, stdout)
	case opts.once:
		return runOnce(ctx, opts, stdout)
	case opts.history > 0:
		return runHistory(ctx, opts, stdout)
	default:
		return runOverlay(opts)
	}
}

// delegate sends command to the resident overlay and prints its reply.
func delegate(ctx context.Context, client singleinstance.Client, command string, stdout io.Writer) error {
	// SCREEN_TIMER_PORT_* may live in .env.
	config.LoadDotenv()
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	delegated, text, err := client.Send(ctx, command)
	if err != nil {
		return fmt.Errorf("%s failed: %w", strings.ToLower(command), err)
	}
	if !delegated {
		return errNoResident
	}
	if text != "" {
		fmt.Fprintln(stdout, text)
	}
	return nil
}

func bootstrap(opts mainOptions) (*runtimeinit.Runtime, error) {
	return runtimeinit.Bootstrap(runtimeinit.Options{
		LoadOptions: config.LoadOptions{
			ConfigPath:         opts.configPath,
			APIKeyPathOverride: opts.apiKeyPath,
		},
		SetupLogging: logutil.Setup,
	})
}

// runOnce performs a single capture-and-query cycle without the overlay.
func runOnce(ctx context.Context, opts mainOptions, stdout io.Writer) error {
	rt, err := bootstrap(opts)
	if err != nil {
		return err
	}
	outputs, closeOutputs := newOutputs(rt.Config)
	defer closeOutputs()

	log.Printf("Running one capture-and-query cycle (--once)")
	out := rt.Pipeline.Run(ctx, rt.Config.Prompt, nil)
	outputs.Handle(out)

	text := countdown.DisplayText(out)
	if out.Err != nil {
		return errors.New(text)
	}
	fmt.Fprint(stdout, text)
	log.Printf("Response (%d chars): %s", len(text), logutil.SanitizeForLog(text))
	return nil
}

func runOverlay(opts mainOptions) error {
	config.LoadDotenv()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Claim the resident port before touching the display.
	srv := singleinstance.NewServer()
	if err := srv.Start(ctx); err != nil {
		return residentError(ctx, err)
	}
	defer srv.Close()

	rt, err := bootstrap(opts)
	if err != nil {
		return err
	}
	cfg := rt.Config
	outputs, closeOutputs := newOutputs(cfg)
	defer closeOutputs()

	a := app.NewWithID(appID)
	a.SetIcon(tray.Icon)

	var loop *eventloop.Loop
	reset := func() { loop.Reset() }
	ov := overlay.New(a, overlay.Options{OnReset: reset})

	loop = eventloop.New(eventloop.Options{
		Seconds:   cfg.TimerSeconds,
		Prompt:    cfg.Prompt,
		Sink:      ov,
		Hover:     ov,
		Cycle:     rt.Pipeline,
		OnOutcome: outputs.Handle,
		Server:    srv,
	})

	tray.Setup(a, tray.Actions{
		Reset: reset,
		CopyResponse: func() {
			if err := outputs.CopyLast(); err != nil {
				log.Printf("copy last response: %v", err)
			}
		},
	})

	if err := hotkey.Listen(ctx, cfg.ResetHotkey, reset); err != nil {
		log.Printf("Reset hotkey disabled: %v", err)
	}

	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-ch:
			log.Printf("Signal received, shutting down")
			fyne.Do(a.Quit)
		case <-ctx.Done():
		}
	}()

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("event loop stopped: %v", err)
		}
	}()

	log.Printf("Resident listening on 127.0.0.1:%d", srv.Port())
	ov.Show()
	a.Run()

	cancel()
	<-loopDone
	return nil
}

// residentError explains why the resident port could not be claimed.
func residentError(ctx context.Context, startErr error) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if port, ok := singleinstance.DetectResidentPort(ctx); ok {
		return fmt.Errorf("another overlay is already running on port %d (use --reset or --status)", port)
	}
	start, _ := singleinstance.PortRange()
	return fmt.Errorf("port %d is in use by another program (set %s): %w", start, singleinstance.PortStartEnvVar, startErr)
}

// runHistory prints the most recent recorded outcomes.
func runHistory(ctx context.Context, opts mainOptions, stdout io.Writer) error {
	cfg, err := config.LoadWithOptions(config.LoadOptions{
		ConfigPath:         opts.configPath,
		APIKeyPathOverride: opts.apiKeyPath,
	})
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.HistoryPath == "" {
		return fmt.Errorf("history is disabled; set history_path in %s", cfg.Path)
	}
	store, err := history.Open(cfg.HistoryPath)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	entries, err := store.Recent(ctx, opts.history)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	writeHistory(stdout, entries)
	return nil
}

func writeHistory(w io.Writer, entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "no outcomes recorded yet")
		return
	}
	for _, e := range entries {
		status, text := "ok", e.Response
		if !e.OK() {
			status, text = "failed", e.Error
		}
		fmt.Fprintf(w, "%s  %-6s %6dms  %s\n",
			e.StartedAt.Local().Format("2006-01-02 15:04:05"), status, e.DurationMs, logutil.SanitizeForLog(text))
	}
}

// normalizeLegacyArgs maps single-dash long flags (-once) to cobra's --once.
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return []string{"screen-timer"}
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	long := []string{"config", "api-key-path", "reset", "status", "once", "history"}
	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range long {
			if arg == "-"+name || strings.HasPrefix(arg, "-"+name+"=") {
				normalized[i] = "-" + arg
				break
			}
		}
	}

	return normalized
}
