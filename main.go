package main

import (
	"fmt"
	"os"

	"github.com/gerunddev/duomark/internal/commands"
	"github.com/gerunddev/duomark/internal/config"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "watch", "edit":
		commands.Watch(os.Args[2:])
	case "roundtrip", "check":
		commands.Roundtrip(os.Args[2:])
	case "tree":
		commands.Tree(os.Args[2:])
	case "fmt":
		commands.Format(os.Args[2:])
	case "version", "-v", "--version":
		fmt.Printf("duomark v%s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	usage := fmt.Sprintf(`duomark - Keep a markdown file and its document tree in sync

Usage:
  duomark <command> [options]

Commands:
  watch       Sync a file with a live document tree and show the dashboard
  roundtrip   Show how a file changes when it is parsed and saved again
  tree        Print the document tree of a file
  fmt         Print a file in normalized form (--write to rewrite it)
  version     Show version information
  help        Show this help message

Options:
  --delay <duration>      Quiet period before an edit is synced (default 300ms)
  --strategy <name>       Caret mapping: fraction or diff
  --style <name>          Preview style: auto, dark, light or notty
  --width <columns>       Wrap width for rendered output

Examples:
  duomark watch notes.md
  duomark watch --delay 500ms --strategy diff notes.md
  duomark roundtrip notes.md
  duomark tree notes.md
  duomark fmt --write notes.md
  cat notes.md | duomark fmt -

Configuration:
  Config file: %s
`, config.ConfigPath())
	fmt.Print(usage)
}
