package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/gerunddev/duomark/internal/config"
	"github.com/gerunddev/duomark/internal/diff"
	"github.com/gerunddev/duomark/internal/doctree"
	"github.com/gerunddev/duomark/internal/styles"
	"github.com/gerunddev/duomark/internal/transcode"
)

// Roundtrip parses and re-serializes each file and shows what changes
func Roundtrip(args []string) {
	opts, err := parseArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(opts.files) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: duomark roundtrip <file.md>...")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	opts.apply(cfg)

	if err := runRoundtrip(os.Stdout, opts.files, cfg.PreviewStyle, opts.width); err != nil {
		fmt.Println(styles.ErrorStyle.Render("✗ " + err.Error()))
		os.Exit(1)
	}
}

func runRoundtrip(w io.Writer, files []string, style string, width int) error {
	tc := transcode.NewMarkdown()

	for _, file := range files {
		text, err := readInput(file)
		if err != nil {
			return err
		}

		report, err := diff.Roundtrip(tc, file, text)
		if err != nil {
			return err
		}

		if !report.Drift() {
			fmt.Fprintln(w, styles.SuccessStyle.Render("✓ "+file+" is already normalized"))
			continue
		}

		fmt.Fprintln(w, styles.WarningStyle.Render("~ "+file+" changes on save"))
		fmt.Fprintln(w, diff.Render(report.Unified, style, width))
		if !report.Stable {
			fmt.Fprintln(w, styles.ErrorStyle.Render("✗ "+file+" does not parse back to the same tree"))
		}
	}
	return nil
}

// Tree prints the document tree of a file
func Tree(args []string) {
	opts, err := parseArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(opts.files) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: duomark tree <file.md>")
		os.Exit(1)
	}

	if err := runTree(os.Stdout, opts.files[0]); err != nil {
		fmt.Println(styles.ErrorStyle.Render("✗ " + err.Error()))
		os.Exit(1)
	}
}

func runTree(w io.Writer, file string) error {
	text, err := readInput(file)
	if err != nil {
		return err
	}

	tree, err := transcode.NewMarkdown().Parse(text)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", file, err)
	}

	fmt.Fprint(w, doctree.Outline(tree))
	return nil
}

// Format prints each file in normalized form, or rewrites it in place with
// --write
func Format(args []string) {
	write := false
	var rest []string
	for _, arg := range args {
		if arg == "-w" || arg == "--write" {
			write = true
			continue
		}
		rest = append(rest, arg)
	}

	opts, err := parseArgs(rest)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(opts.files) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: duomark fmt [--write] <file.md>...")
		os.Exit(1)
	}

	for _, file := range opts.files {
		if err := runFormat(os.Stdout, file, write); err != nil {
			fmt.Fprintln(os.Stderr, styles.ErrorStyle.Render("✗ "+err.Error()))
			os.Exit(1)
		}
	}
}

func runFormat(w io.Writer, file string, write bool) error {
	text, err := readInput(file)
	if err != nil {
		return err
	}

	tc := transcode.NewMarkdown()
	tree, err := tc.Parse(text)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", file, err)
	}
	normalized, err := tc.Serialize(tree)
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", file, err)
	}

	if !write || file == "-" {
		_, err := io.WriteString(w, normalized)
		return err
	}
	if normalized == text {
		return nil
	}

	info, err := os.Stat(file)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", file, err)
	}
	if err := os.WriteFile(file, []byte(normalized), info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to write %s: %w", file, err)
	}
	fmt.Fprintln(w, file)
	return nil
}
