// Command vmirror renders, diffs and serves tree description files.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/vango-dev/vmirror/internal/config"
	"github.com/vango-dev/vmirror/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globals holds the persistent flags shared by all commands.
type globals struct {
	configPath  string
	logLevel    string
	errorFormat string
}

func main() {
	os.Exit(run(newRootCmd(), os.Stderr))
}

// run executes cmd and reports a failure on stderr in the format chosen
// with --error-format. It returns the process exit code.
func run(cmd *cobra.Command, stderr *os.File) int {
	err := cmd.Execute()
	if err == nil {
		return 0
	}
	errors.SetColors(isatty.IsTerminal(stderr.Fd()) || isatty.IsCygwinTerminal(stderr.Fd()))
	format, _ := cmd.PersistentFlags().GetString("error-format")
	style, perr := errors.ParseStyle(format)
	if perr != nil {
		errors.Fprint(stderr, perr, errors.StyleText)
	}
	errors.Fprint(stderr, err, style)
	return 1
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	rootCmd := &cobra.Command{
		Use:   "vmirror",
		Short: "Mirror virtual node trees into a document",
		Long: `vmirror keeps a document in sync with a virtual node tree.

Trees are described in YAML or JSON files. vmirror can render them
to static HTML, show the mutations needed to go from one tree to
the next, and serve a live page that follows a tree file as it changes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Path to vmirror.json (default: ./vmirror.json if present)")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn or error (default from config)")
	rootCmd.PersistentFlags().StringVar(&g.errorFormat, "error-format", "text", "Error output: text, compact or json")

	rootCmd.AddCommand(
		renderCmd(g),
		diffCmd(g),
		serveCmd(g),
		versionCmd(),
	)
	return rootCmd
}

// load returns the configuration selected by the global flags.
func (g *globals) load() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case g.configPath != "":
		cfg, err = config.LoadFile(g.configPath)
	case config.Exists("."):
		cfg, err = config.Load(".")
	default:
		cfg = config.New()
	}
	if err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	return cfg, cfg.Validate()
}

// logger builds the stderr text logger for cfg.
func logger(w io.Writer, cfg *config.Config) *slog.Logger {
	level, _ := config.ParseLevel(cfg.Log.Level)
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}
