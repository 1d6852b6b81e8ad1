package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"screen-timer-llm/src/config"
	"screen-timer-llm/src/llm"
	"screen-timer-llm/src/screenshot"
)

const (
	maxFileSizeMB = 10
	maxFileSize   = maxFileSizeMB * 1024 * 1024
)

type cliOptions struct {
	filePath   string
	prompt     string
	jsonOutput bool
	verbose    bool
	apiKeyPath string
	configPath string
}

// newClient is replaced in tests.
var newClient = llm.New

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return runWithArgs(os.Args, os.Stdin, os.Stdout, os.Stderr)
}

func runWithArgs(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		args = []string{"screen-timer-cli"}
	}
	cmd := newRootCmd(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(stdin io.Reader) *cobra.Command {
	root := &cobra.Command{
		Use:           "screen-timer-cli",
		Short:         "Tools around the screen timer's vision model",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newAskImageCmd(&cliOptions{}, stdin))
	return root
}

func newAskImageCmd(opts *cliOptions, stdin io.Reader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask-image",
		Short: "Send an image and a prompt to the configured model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(cmd.Context(), *opts, stdin, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&opts.filePath, "file", "", "Path to PNG or JPEG file (use '-' for stdin)")
	cmd.Flags().StringVarP(&opts.prompt, "prompt", "p", "", "Prompt to send (default: configured prompt)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")
	cmd.Flags().StringVar(&opts.apiKeyPath, "api-key-path", "", "Path to API key file (highest precedence)")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "Path to config.json")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runWithOptions(ctx context.Context, opts cliOptions, stdin io.Reader, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	// Configure logging BEFORE any other operations.
	if !opts.verbose {
		log.SetOutput(io.Discard)
	} else {
		log.SetOutput(stderr)
		fmt.Fprintf(stderr, "[verbose] Starting ask-image\n")
	}

	cfg, err := config.LoadWithOptions(config.LoadOptions{
		ConfigPath:         opts.configPath,
		APIKeyPathOverride: opts.apiKeyPath,
	})
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.verbose {
		fmt.Fprintf(stderr, "[verbose] Config loaded: provider=%s model=%s key from %s\n", cfg.Provider, cfg.Model, cfg.APIKeySource)
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("API key not found. Set api_key in %s or pass --api-key-path", cfg.Path)
	}

	client, err := newClient(llm.Config{
		Provider:  cfg.Provider,
		APIKey:    cfg.APIKey,
		Model:     cfg.Model,
		Providers: cfg.Providers,
	})
	if err != nil {
		return err
	}

	img, err := readImage(opts.filePath, stdin)
	if err != nil {
		return err
	}
	if opts.verbose {
		fmt.Fprintf(stderr, "[verbose] Read %d bytes (%s)\n", len(img.Data), img.MIMEType)
	}

	prompt := strings.TrimSpace(opts.prompt)
	if prompt == "" {
		prompt = cfg.Prompt
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(cfg.QueryDeadlineSec)*time.Second)
	defer cancel()

	startTime := time.Now()
	text, err := client.Query(ctx, img, prompt)
	elapsed := time.Since(startTime)
	if err != nil {
		if opts.verbose {
			fmt.Fprintf(stderr, "[verbose] Query failed after %v: %v\n", elapsed, err)
		}
		return fmt.Errorf("query failed: %w", err)
	}
	if opts.verbose {
		fmt.Fprintf(stderr, "[verbose] Query completed in %v, %d characters\n", elapsed, len(text))
	}

	return outputResult(stdout, Result{
		Text:      text,
		Prompt:    prompt,
		Source:    opts.filePath,
		Model:     cfg.Model,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Duration:  elapsed.Seconds(),
		CharCount: len(text),
	}, opts.jsonOutput)
}

func readImage(filePath string, stdin io.Reader) (screenshot.Image, error) {
	var data []byte
	var err error
	if filePath == "-" {
		data, err = io.ReadAll(io.LimitReader(stdin, maxFileSize+1))
		if err != nil {
			return screenshot.Image{}, fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(filePath)
		if err != nil {
			return screenshot.Image{}, fmt.Errorf("failed to read file %s: %w", filePath, err)
		}
	}

	if len(data) == 0 {
		return screenshot.Image{}, fmt.Errorf("input file is empty")
	}
	if len(data) > maxFileSize {
		return screenshot.Image{}, fmt.Errorf("input file exceeds maximum size of %d MB", maxFileSizeMB)
	}

	mime := http.DetectContentType(data)
	switch mime {
	case "image/png", "image/jpeg":
	default:
		return screenshot.Image{}, fmt.Errorf("input is not a PNG or JPEG image (detected %s)", mime)
	}
	return screenshot.Image{Data: data, MIMEType: mime, Path: filePath}, nil
}

type Result struct {
	Text      string  `json:"text"`
	Prompt    string  `json:"prompt"`
	Source    string  `json:"source"`
	Model     string  `json:"model"`
	Timestamp string  `json:"timestamp"`
	Duration  float64 `json:"duration_seconds"`
	CharCount int     `json:"character_count"`
}

func outputResult(w io.Writer, result Result, jsonOutput bool) error {
	if !jsonOutput {
		_, err := fmt.Fprint(w, result.Text)
		return err
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	return nil
}
