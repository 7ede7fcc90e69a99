package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/joelklabo/molt/internal/app"
	"github.com/joelklabo/molt/internal/assets"
	"github.com/joelklabo/molt/internal/check"
	"github.com/joelklabo/molt/internal/config"
	"github.com/joelklabo/molt/internal/core"
	"github.com/joelklabo/molt/internal/presets"
	"github.com/joelklabo/molt/internal/store"
	"github.com/joelklabo/molt/internal/wizard"
)

// Set via -ldflags "-X main.version=...".
var version = ""

// Swappable in tests.
var (
	httpClient *http.Client
	sleeper    core.Sleeper
	prompter   wizard.Prompter
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd, rest := parseSubcommand(args)
	switch cmd {
	case "version":
		fmt.Fprintf(stdout, "reply %s\n", buildVersion())
		return 0
	case "presets":
		return runPresets(stdout)
	case "configure":
		return runConfigure(ctx, rest, stdout, stderr)
	case "history":
		return runHistory(rest, stdout, stderr)
	case "check":
		return runCheck(rest, stdout, stderr)
	case "help":
		usage(stdout)
		return 0
	default:
		return runReply(ctx, rest, stdout, stderr)
	}
}

func parseSubcommand(args []string) (string, []string) {
	if len(args) == 0 {
		return "run", args
	}
	switch args[0] {
	case "run":
		return "run", args[1:]
	case "version", "presets", "configure", "history", "check", "help":
		return args[0], args[1:]
	}
	return "run", args
}

type replyFlags struct {
	tweet, author, tweetID string
	model, preset          string
	platform, configPath   string
	post, dryRun, verbose  bool
}

func parseReplyFlags(args []string, stderr io.Writer) (replyFlags, error) {
	var f replyFlags
	fs := flag.NewFlagSet("reply", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { usage(stderr) }
	fs.StringVar(&f.tweet, "t", "", "tweet content to reply to")
	fs.StringVar(&f.tweet, "tweet", "", "tweet content to reply to")
	fs.StringVar(&f.author, "a", "", "original tweet author handle")
	fs.StringVar(&f.author, "author", "", "original tweet author handle")
	fs.StringVar(&f.tweetID, "tweet-id", "", "id of the post being replied to")
	fs.BoolVar(&f.post, "post", false, "publish the reply (requires --tweet-id)")
	fs.StringVar(&f.model, "model", "", "model name (default from config)")
	fs.StringVar(&f.preset, "preset", "", "reply preset (see `reply presets`)")
	fs.StringVar(&f.platform, "platform", "", "posting platform: x, nostr, or mock")
	fs.StringVar(&f.configPath, "config", "", "path to config.json")
	fs.BoolVar(&f.dryRun, "dry-run", false, "generate but do not publish")
	fs.BoolVar(&f.verbose, "v", false, "verbose logging to stderr")
	fs.BoolVar(&f.verbose, "verbose", false, "verbose logging to stderr")
	if err := fs.Parse(args); err != nil {
		return f, err
	}
	if fs.NArg() > 0 {
		return f, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if f.post && strings.TrimSpace(f.tweetID) == "" {
		return f, errors.New("--post requires --tweet-id")
	}
	return f, nil
}

func runReply(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	f, err := parseReplyFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	cfg, err := loadConfig(f.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	logger, closeLog := setupLogger(cfg, f.verbose, stderr)
	defer closeLog()

	a, err := app.Build(cfg, logger, app.Overrides{
		Preset:     f.preset,
		Platform:   f.platform,
		Model:      f.model,
		HTTPClient: httpClient,
		Sleeper:    sleeper,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("shutdown", slog.String("err", err.Error()))
		}
	}()

	res := a.Generator.Generate(ctx, a.Request(f.tweet, f.author))
	if !res.Success {
		if res.Kind == core.KindEmptyInput {
			fmt.Fprintf(stderr, "Error: %s\n", res.ErrorMessage)
		} else {
			fmt.Fprintf(stderr, "Generation failed: %s\n", res.ErrorMessage)
		}
		return 1
	}
	fmt.Fprintln(stdout, res.Text)
	if res.LengthWarning != "" {
		fmt.Fprintf(stderr, "Warning: %s\n", res.LengthWarning)
	}

	if !f.post {
		return 0
	}
	if f.dryRun {
		fmt.Fprintf(stderr, "Dry run: not posting reply to %s on %s\n", f.tweetID, a.Platform())
		return 0
	}
	poster, err := a.Poster()
	if err != nil {
		fmt.Fprintf(stderr, "Failed to post: %v\n", err)
		return 0
	}
	fmt.Fprintln(stderr, core.Publish(ctx, poster, res.Text, f.tweetID, logger, a.PostSink()))
	return 0
}

func runPresets(stdout io.Writer) int {
	list := presets.List()
	names := make([]string, 0, len(list))
	for name := range list {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		marker := " "
		if name == presets.Default {
			marker = "*"
		}
		fmt.Fprintf(stdout, "%s %-12s %s\n", marker, name, list[name])
	}
	return 0
}

func runConfigure(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("configure", flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("config", "", "where to write config.json")
	example := fs.Bool("example", false, "print an example config and exit")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if *example {
		_, _ = stdout.Write(assets.ConfigExample)
		return 0
	}
	written, err := wizard.Run(ctx, *path, prompter, wizard.Options{Out: stdout})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Config written to %s\n", written)
	return 0
}

func runHistory(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(stderr)
	n := fs.Int("n", 20, "number of entries")
	configPath := fs.String("config", "", "path to config.json")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if cfg.Storage.Path == "" {
		fmt.Fprintln(stderr, "Error: history is disabled; set storage.path in the config")
		return 1
	}
	st, err := store.New(cfg.Storage.Path)
	if err != nil {
		fmt.Fprintf(stderr, "Error: open history: %v\n", err)
		return 1
	}
	defer func() { _ = st.Close() }()

	entries, err := st.Recent(*n)
	if err != nil {
		fmt.Fprintf(stderr, "Error: read history: %v\n", err)
		return 1
	}
	for _, e := range entries {
		fmt.Fprintln(stdout, formatEntry(e))
	}
	return 0
}

func formatEntry(e store.Entry) string {
	at := e.At.Local().Format(time.DateTime)
	switch {
	case e.Generation != nil:
		g := e.Generation
		if g.Result.Success {
			return fmt.Sprintf("%s  reply  @%s [%s/%s] %s", at, g.Author, g.Preset, g.Model, g.Result.Text)
		}
		return fmt.Sprintf("%s  reply  @%s [%s/%s] FAILED %s: %s", at, g.Author, g.Preset, g.Model, g.Result.Kind, g.Result.ErrorMessage)
	case e.Post != nil:
		p := e.Post
		if p.Error != "" {
			return fmt.Sprintf("%s  post   %s FAILED: %s", at, p.Platform, p.Error)
		}
		return fmt.Sprintf("%s  post   %s %s", at, p.Platform, p.Permalink)
	}
	return at
}

func runCheck(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to config.json")
	platform := fs.String("platform", "", "posting platform to check")
	asJSON := fs.Bool("json", false, "print results as JSON")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	p := strings.ToLower(*platform)
	if p == "" {
		p = cfg.Posting.Platform
	}
	results := check.Run(check.Plan(cfg, p), map[string]check.Checker{
		"secret":   check.SecretChecker{Lookup: config.Lookup(cfg.Sources()...)},
		"url":      check.URLChecker{Client: httpClient},
		"relay":    check.RelayChecker{},
		"dirwrite": check.DirWriteChecker{},
	})

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return 1
		}
	} else {
		for _, r := range results {
			line := fmt.Sprintf("%-7s %s (%s)", r.Status, r.Name, r.Type)
			if r.Details != "" {
				line += " " + r.Details
			}
			fmt.Fprintln(stdout, line)
		}
	}
	if n := check.Missing(results); n > 0 {
		fmt.Fprintf(stderr, "%d required checks failed\n", n)
		return 1
	}
	return 0
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// setupLogger is silent unless -v is given or a log file is configured.
func setupLogger(cfg *config.Config, verbose bool, stderr io.Writer) (*slog.Logger, func()) {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	var out io.Writer
	closer := func() {}
	switch {
	case cfg.Logging.File != "":
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			fmt.Fprintf(stderr, "Warning: open log file: %v\n", err)
			out = stderr
			break
		}
		out = f
		closer = func() { _ = f.Close() }
	case verbose:
		out = stderr
	default:
		return slog.New(slog.DiscardHandler), closer
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewTextHandler(out, opts)
	if strings.EqualFold(cfg.Logging.Format, "json") {
		h = slog.NewJSONHandler(out, opts)
	}
	return slog.New(h), closer
}

func buildVersion() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func usage(w io.Writer) {
	fmt.Fprint(w, `Usage:
  reply [run] -t TEXT -a HANDLE [--tweet-id ID --post] [--model NAME] [--preset NAME]
              [--platform x|nostr|mock] [--config PATH] [--dry-run] [-v]
  reply presets                 list reply presets
  reply configure [--example]   write config.json interactively
  reply history [-n N]          show recent generations and posts
  reply check [--json]          verify secrets and endpoints
  reply version

Examples:
  reply -t "AI is going to replace a lot of jobs" -a cz_binance
  reply -t "Welcome to the Binance ecosystem" -a heyibinance --model qwen-plus
  reply -t "gm" -a alice --tweet-id 1790 --post
`)
}
