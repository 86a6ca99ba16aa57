package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/docopt/docopt-go"
	"golang.org/x/term"

	"github.com/MrSnakeDoc/marks/internal/client"
	"github.com/MrSnakeDoc/marks/internal/logger"
	"github.com/MrSnakeDoc/marks/internal/version"
	"github.com/MrSnakeDoc/marks/internal/view"
	"github.com/MrSnakeDoc/marks/internal/viewhost"
)

const usage = `marks-view: live bookmark views backed by a marks server.

Runs one or more view instances for a single owner. Instances on this
machine notify each other through an in-process channel and a shared
signal file, and every instance follows the server's change feed.

Usage:
  marks-view --token=<token> --owner=<owner> [options]
  marks-view -h | --help
  marks-view --version

Options:
  --server=<url>     Server base URL [default: http://localhost:8080].
  --token=<token>    Bearer token issued by "marks token <owner>".
  --owner=<owner>    Owner the token was issued for.
  --slot-dir=<dir>   Directory of the fallback signal file, "off" to disable.
                     Defaults to marks-view under the system temp dir.
  --instances=<n>    Number of view instances [default: 1].
  --import=<file>    Import a Homepage bookmarks.yaml or services.yaml, then
                     keep running.
  --feed-ping=<d>    Server feed ping interval (MARKS_FEED_PING_INTERVAL); a
                     feed silent for twice this long is redialed [default: 30s].
  --log-level=<lvl>  debug, info, warn or error [default: warn].
  -h --help          Show this screen.
  --version          Show version.
`

type cliOptions struct {
	Server    string
	Token     string
	Owner     string
	SlotDir   string
	Instances string
	Import    string
	FeedPing  string
	LogLevel  string
}

// Unset options come back as nil, which read as "".
func parseOptions(opts docopt.Opts) cliOptions {
	str := func(key string) string {
		v, _ := opts.String(key)
		return v
	}
	return cliOptions{
		Server:    str("--server"),
		Token:     str("--token"),
		Owner:     str("--owner"),
		SlotDir:   str("--slot-dir"),
		Instances: str("--instances"),
		Import:    str("--import"),
		FeedPing:  str("--feed-ping"),
		LogLevel:  str("--log-level"),
	}
}

func main() {
	opts, err := docopt.ParseArgs(usage, os.Args[1:], version.String())
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	if err := run(parseOptions(opts)); err != nil {
		log.Fatalf("❌ marks-view: %v", err)
	}
}

func run(cli cliOptions) error {
	n, err := strconv.Atoi(cli.Instances)
	if err != nil || n < 1 {
		return fmt.Errorf("--instances must be a positive integer, got %q", cli.Instances)
	}

	ping, err := time.ParseDuration(cli.FeedPing)
	if err != nil || ping <= 0 {
		return fmt.Errorf("--feed-ping must be a positive duration, got %q", cli.FeedPing)
	}

	slotDir := cli.SlotDir
	switch slotDir {
	case "":
		slotDir = filepath.Join(os.TempDir(), "marks-view")
	case "off":
		slotDir = ""
	}

	log := logger.NewConsole(cli.LogLevel)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	host, err := viewhost.Open(ctx, viewhost.Options{
		Owner:     cli.Owner,
		Instances: n,
		SlotDir:   slotDir,
		Logger:    log,
		Out:       os.Stdout,
		Prompt:    term.IsTerminal(int(os.Stdin.Fd())),
		NewStore: func(int) (view.RemoteStore, error) {
			return client.New(cli.Server, cli.Token, cli.Owner,
				client.WithLogger(log), client.WithFeedPing(ping))
		},
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := host.Close(); err != nil {
			log.Warn("teardown failed", logger.Error(err))
		}
	}()

	if cli.Import != "" {
		if _, err := host.Import(ctx, cli.Import); err != nil {
			return fmt.Errorf("import: %w", err)
		}
	}

	return host.Run(ctx, os.Stdin)
}
