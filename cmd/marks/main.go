package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/docopt/docopt-go"

	"github.com/MrSnakeDoc/marks/internal/app"
	"github.com/MrSnakeDoc/marks/internal/auth"
	"github.com/MrSnakeDoc/marks/internal/version"
)

const usage = `marks: bookmark server with a live change feed.

Usage:
  marks [serve]
  marks token <owner> [--ttl=<duration>]
  marks keygen
  marks -h | --help
  marks --version

Commands:
  serve    Run the HTTP server (default). Configured through MARKS_* variables.
  token    Print a bearer token for <owner>, signed with MARKS_TOKEN_KEY.
  keygen   Print a fresh value for MARKS_TOKEN_KEY.

Options:
  --ttl=<duration>  Token lifetime, defaults to MARKS_TOKEN_TTL or 24h.
  -h --help         Show this screen.
  --version         Show version.
`

func main() {
	opts, err := docopt.ParseArgs(usage, os.Args[1:], version.String())
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	switch {
	case flag(opts, "keygen"):
		fmt.Println(auth.GenerateKey())
	case flag(opts, "token"):
		if err := printToken(opts); err != nil {
			log.Fatalf("❌ token: %v", err)
		}
	default:
		a, err := app.New()
		if err != nil {
			log.Fatalf("❌ marks failed to start: %v", err)
		}
		if err := a.Run(); err != nil {
			log.Fatalf("❌ marks failed: %v", err)
		}
	}
}

func printToken(opts docopt.Opts) error {
	key := os.Getenv("MARKS_TOKEN_KEY")
	if key == "" {
		return fmt.Errorf("MARKS_TOKEN_KEY is not set (generate one with `marks keygen`)")
	}

	ttl := 24 * time.Hour
	raw, _ := opts.String("--ttl")
	if raw == "" {
		raw = os.Getenv("MARKS_TOKEN_TTL")
	}
	if raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid ttl %q: %w", raw, err)
		}
		ttl = d
	}

	tokens, err := auth.NewTokenService(key, ttl)
	if err != nil {
		return err
	}
	owner, _ := opts.String("<owner>")
	tok, err := tokens.Issue(owner)
	if err != nil {
		return err
	}
	fmt.Println(tok)
	return nil
}

func flag(opts docopt.Opts, name string) bool {
	v, _ := opts.Bool(name)
	return v
}
