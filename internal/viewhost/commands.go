package viewhost

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/marks/internal/sources/homepage"
	"github.com/MrSnakeDoc/marks/internal/view"
)

// ErrQuit is returned by Exec for the quit command.
var ErrQuit = errors.New("quit")

const help = `commands:
  ls                     list the active view
  add <title...> <url>   create a bookmark
  rm <id>                delete a bookmark
  use <n>                switch the active view
  status                 show every view
  import <file>          import a Homepage bookmarks.yaml or services.yaml
  quit
`

// Run reads commands from in until EOF, quit or ctx is done.
func (h *Host) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
		close(lines)
	}()

	h.printf("%s", help)
	h.showPrompt()
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return <-scanErr
			}
			if err := h.Exec(ctx, line); err != nil {
				if errors.Is(err, ErrQuit) {
					return nil
				}
				h.printf("error: %v\n", err)
			}
			h.showPrompt()
		}
	}
}

// Exec runs one command line against the active instance.
func (h *Host) Exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch cmd, args := fields[0], fields[1:]; cmd {
	case "ls":
		h.list()
	case "add":
		if len(args) < 2 {
			return errors.New("usage: add <title...> <url>")
		}
		title := strings.Join(args[:len(args)-1], " ")
		b, err := h.Active().Create(ctx, title, args[len(args)-1])
		if err != nil {
			return err
		}
		h.printf("added %s\n", b.ID)
	case "rm":
		if len(args) != 1 {
			return errors.New("usage: rm <id>")
		}
		return h.Active().Delete(ctx, args[0])
	case "use":
		if len(args) != 1 {
			return errors.New("usage: use <n>")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 || n > len(h.instances) {
			return fmt.Errorf("view must be between 1 and %d", len(h.instances))
		}
		h.active = n - 1
	case "status":
		for i, v := range h.instances {
			s := v.Snapshot()
			marker := " "
			if i == h.active {
				marker = "*"
			}
			h.printf("%s view %d [%s] %s\n", marker, i+1, s.Phase, summary(s))
		}
	case "import":
		if len(args) != 1 {
			return errors.New("usage: import <file>")
		}
		_, err := h.Import(ctx, args[0])
		return err
	case "help", "?":
		h.printf("%s", help)
	case "quit", "exit", "q":
		return ErrQuit
	default:
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}
	return nil
}

// Import creates every entry of a Homepage file through the active
// instance, so siblings converge the same way they do for typed adds.
func (h *Host) Import(ctx context.Context, path string) (homepage.Result, error) {
	entries, format, err := homepage.NewLoader(path).Load()
	if err != nil {
		return homepage.Result{}, err
	}
	h.printf("importing %d %s entries\n", len(entries), format)

	v := h.Active()
	res, err := homepage.NewImporter(v, h.log).Import(ctx, entries, v.Snapshot().Items)
	if err != nil {
		return res, err
	}
	h.printf("imported %d, skipped %d duplicate(s), %d invalid, %d failed\n",
		res.Created, res.Duplicates, res.Invalid, res.Failed)
	return res, nil
}

func (h *Host) showPrompt() {
	if h.prompt {
		h.printf("view %d> ", h.active+1)
	}
}

func (h *Host) list() {
	s := h.Active().Snapshot()
	if s.LastError != "" {
		h.printf("! %s\n", s.LastError)
	}
	if len(s.Items) == 0 {
		h.printf("no bookmarks\n")
		return
	}
	for _, b := range s.Items {
		h.printf("  %s  %-24s %s\n", b.ID, truncate(b.Title, 24), b.URL)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

var _ homepage.Creator = (*view.Instance)(nil)
