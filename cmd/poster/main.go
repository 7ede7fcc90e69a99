package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joelklabo/molt/internal/app"
	"github.com/joelklabo/molt/internal/config"
	"github.com/joelklabo/molt/internal/core"
)

// Swappable in tests.
var httpClient *http.Client

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("poster", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { usage(stdout) }
	platform := fs.String("platform", "", "posting platform: x, nostr, or mock")
	replyTo := fs.String("reply-to", "", "id of the post to reply to")
	configPath := fs.String("config", "", "path to config.json")
	verbose := fs.Bool("v", false, "verbose logging to stderr")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	text := strings.Join(fs.Args(), " ")
	if fs.NArg() == 0 {
		fmt.Fprintln(stdout, "Error: Please provide the content to post")
		usage(stdout)
		return 1
	}

	path := *configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(stdout, "Failed to post: load config: %v\n", err)
		return 0
	}

	logger := slog.New(slog.DiscardHandler)
	if *verbose {
		logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	// The poster never needs the agent, but Build validates the whole config
	// and gives us the history and metrics sinks.
	a, err := app.Build(cfg, logger, app.Overrides{Platform: *platform, HTTPClient: httpClient})
	if err != nil {
		fmt.Fprintf(stdout, "Failed to post: %v\n", err)
		return 0
	}
	defer func() { _ = a.Close() }()

	poster, err := a.Poster()
	if err != nil {
		fmt.Fprintf(stdout, "Failed to post: %v\n", err)
		return 0
	}
	fmt.Fprintln(stdout, core.Publish(ctx, poster, text, *replyTo, logger, a.PostSink()))
	return 0
}

func usage(w io.Writer) {
	fmt.Fprint(w, `Usage: poster [--platform x|nostr|mock] [--reply-to ID] [--config PATH] [-v] "Your post content"
`)
}
