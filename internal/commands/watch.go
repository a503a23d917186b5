package commands

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gerunddev/duomark/internal/config"
	"github.com/gerunddev/duomark/internal/logger"
	"github.com/gerunddev/duomark/internal/styles"
	"github.com/gerunddev/duomark/internal/surface"
	"github.com/gerunddev/duomark/internal/sync"
	"github.com/gerunddev/duomark/internal/transcode"
	"github.com/gerunddev/duomark/internal/tui"
)

// watchPair is the editor pair behind the dashboard
type watchPair struct {
	*sync.Syncer
	rich *surface.RichBuffer
}

// Normalize feeds the current tree back as a tree edit so the file is
// rewritten in canonical form
func (p *watchPair) Normalize() {
	p.rich.Edit(p.rich.Tree())
}

// Watch keeps a markdown file and an in-memory document tree in sync and
// shows the live state in a dashboard
func Watch(args []string) {
	opts, err := parseArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(opts.files) != 1 || opts.files[0] == "-" {
		fmt.Fprintln(os.Stderr, "Usage: duomark watch <file.md>")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	opts.apply(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log, cleanup := openLogger(cfg)
	defer cleanup()
	log.ConfigLoaded(config.ConfigPath(), cfg.Debounce, string(cfg.CursorStrategy))

	if err := runWatch(cfg, log, opts.files[0]); err != nil {
		fmt.Println(styles.ErrorStyle.Render("✗ " + err.Error()))
		os.Exit(1)
	}
}

func runWatch(cfg *config.Config, log *logger.Logger, path string) error {
	file, err := surface.OpenFile(path)
	if err != nil {
		return err
	}
	defer file.Close()

	tc := transcode.NewMarkdown()
	tree, err := tc.Parse(file.Text())
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	rich := surface.NewRichBuffer(tree)

	// The program is stored after syncer is set. Events that finish before
	// that are dropped.
	var program atomic.Pointer[tea.Program]
	var syncer *sync.Syncer

	syncer = sync.NewSyncer(file, rich, tc,
		sync.WithDelay(cfg.Debounce),
		sync.WithStrategy(cfg.CursorStrategy),
		sync.WithLogger(log),
		sync.WithObserver(func(ev sync.Event) {
			p := program.Load()
			if p == nil {
				return
			}
			current := rich.Tree()
			markdown, err := tc.Serialize(current)
			if err != nil {
				markdown = file.Text()
			}
			p.Send(tui.EventMsg{
				Event:    ev,
				Snapshot: syncer.Snapshot(),
				Tree:     current,
				Markdown: markdown,
				At:       time.Now(),
			})
		}),
	)
	pair := &watchPair{Syncer: syncer, rich: rich}

	log.Info("watching file",
		"file", file.Path(),
		"pair", syncer.ID(),
		"debounce", cfg.Debounce)

	m := tui.NewWatchModel(pair, file.Path(), cfg.PreviewStyle, tree, file.Text())
	p := tea.NewProgram(m, tea.WithInput(os.Stdin), tea.WithAltScreen())
	program.Store(p)

	// Forward watcher errors to the log
	done := make(chan struct{})
	go func() {
		for {
			select {
			case err, ok := <-file.Errors():
				if !ok {
					return
				}
				log.FileError(file.Path(), err)
			case <-done:
				return
			}
		}
	}()

	_, runErr := p.Run()
	program.Store(nil)
	close(done)

	syncer.Close()
	log.Info("watch stopped", "file", file.Path())

	if runErr != nil {
		return fmt.Errorf("failed to run dashboard: %w", runErr)
	}
	return nil
}
