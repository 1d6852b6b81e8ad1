package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"screen-timer-llm/src/singleinstance"
)

type stressOptions struct {
	n        int
	command  string
	deadline time.Duration
}

type tally struct {
	ok, absent, failed int32
	elapsed            time.Duration
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := &stressOptions{}
	return newRootCmd(opts, singleinstance.NewClient).Execute()
}

func newRootCmd(opts *stressOptions, newClient func() singleinstance.Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stress-delegate",
		Short:         "Fire concurrent commands at a running overlay",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			command, err := parseCommand(opts.command)
			if err != nil {
				return err
			}
			t := stress(cmd.Context(), *opts, command, newClient)
			fmt.Fprintf(cmd.OutOrStdout(), "launched=%d ok=%d absent=%d err=%d elapsed=%s\n", opts.n, t.ok, t.absent, t.failed, t.elapsed)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.n, "n", 50, "number of clients to launch")
	cmd.Flags().StringVar(&opts.command, "command", "status", "reset|status")
	cmd.Flags().DurationVar(&opts.deadline, "deadline", 5*time.Second, "per-client timeout")

	return cmd
}

func parseCommand(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "reset":
		return singleinstance.CommandReset, nil
	case "status":
		return singleinstance.CommandStatus, nil
	default:
		return "", fmt.Errorf("unknown command %q (want reset or status)", s)
	}
}

func stress(ctx context.Context, opts stressOptions, command string, newClient func() singleinstance.Client) tally {
	if ctx == nil {
		ctx = context.Background()
	}
	var wg sync.WaitGroup
	var t tally

	start := time.Now()
	for i := 0; i < opts.n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(ctx, opts.deadline)
			defer cancel()
			delegated, _, err := newClient().Send(ctx, command)
			switch {
			case err != nil:
				atomic.AddInt32(&t.failed, 1)
			case !delegated:
				atomic.AddInt32(&t.absent, 1)
			default:
				atomic.AddInt32(&t.ok, 1)
			}
		}()
	}
	wg.Wait()
	t.elapsed = time.Since(start)
	return t
}
