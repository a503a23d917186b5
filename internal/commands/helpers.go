package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gerunddev/duomark/internal/config"
	"github.com/gerunddev/duomark/internal/cursor"
	"github.com/gerunddev/duomark/internal/logger"
)

// options are the command line flags shared by the commands
type options struct {
	delay    time.Duration
	strategy cursor.Strategy
	style    string
	width    int
	files    []string
}

// parseArgs splits args into flags and file arguments
func parseArgs(args []string) (*options, error) {
	opts := &options{}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			opts.files = append(opts.files, arg)
			continue
		}

		name, value, hasValue := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		if !hasValue {
			if i+1 >= len(args) {
				return nil, fmt.Errorf("flag --%s needs a value", name)
			}
			i++
			value = args[i]
		}

		switch name {
		case "delay", "debounce":
			d, err := time.ParseDuration(value)
			if err != nil {
				return nil, fmt.Errorf("invalid delay: %w", err)
			}
			if d <= 0 {
				return nil, fmt.Errorf("invalid delay: must be positive")
			}
			opts.delay = d
		case "strategy":
			s, err := cursor.ParseStrategy(value)
			if err != nil {
				return nil, err
			}
			opts.strategy = s
		case "style":
			opts.style = value
		case "width":
			w, err := strconv.Atoi(value)
			if err != nil || w <= 0 {
				return nil, fmt.Errorf("invalid width: %s", value)
			}
			opts.width = w
		default:
			return nil, fmt.Errorf("unknown flag --%s", name)
		}
	}
	return opts, nil
}

// apply overrides cfg with any flags that were set
func (o *options) apply(cfg *config.Config) {
	if o.delay > 0 {
		cfg.Debounce = o.delay
	}
	if o.strategy != "" {
		cfg.CursorStrategy = o.strategy
	}
	if o.style != "" {
		cfg.PreviewStyle = o.style
	}
}

// openLogger returns the configured file logger, or a discarding one when
// the log file cannot be opened
func openLogger(cfg *config.Config) (*logger.Logger, func()) {
	level, err := cfg.Level()
	if err != nil || cfg.LogFile == "" {
		return logger.Discard(), func() {}
	}
	l, cleanup, err := logger.NewFileLogger(cfg.LogFile, level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
		return logger.Discard(), func() {}
	}
	return l, cleanup
}

// readInput reads a file argument, "-" meaning standard input
func readInput(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}
