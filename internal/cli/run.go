// Package cli implements the charcard command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/autobrr/go-charcard/internal/charcard"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usageErrorf(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

// env carries everything a subcommand needs.
type env struct {
	stdout    io.Writer
	stderr    io.Writer
	cfg       Config
	log       zerolog.Logger
	extractor *charcard.Extractor
}

type command struct {
	name    string
	summary string
	run     func(e *env, args []string) error
}

var commands = []command{
	{name: "extract", summary: "print the character card stored in JSON or PNG files", run: runExtract},
	{name: "embed", summary: "write a character card into a PNG", run: runEmbed},
	{name: "inspect", summary: "list PNG chunks and report card data", run: runInspect},
	{name: "version", summary: "print the version", run: func(e *env, _ []string) error {
		printVersion(e.stdout)
		return nil
	}},
}

func Run(args []string, stdout, stderr io.Writer) int {
	var configPath, logLevel, logFormat string
	var showVersion bool

	prog := "charcard"
	if len(args) > 0 {
		args = args[1:]
	}

	flagSet := pflag.NewFlagSet(prog, pflag.ContinueOnError)
	flagSet.SetInterspersed(false)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVar(&configPath, "config", "", "YAML config file (default: $"+ConfigEnv+")")
	flagSet.StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	flagSet.StringVar(&logFormat, "log-format", "", "log format: console or json")
	flagSet.BoolVar(&showVersion, "version", false, "print the version")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printUsage(stdout, flagSet)
			return exitOK
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		printUsage(stderr, flagSet)
		return exitUsage
	}
	if help, _ := flagSet.GetBool("help"); help {
		printUsage(stdout, flagSet)
		return exitOK
	}
	if showVersion {
		printVersion(stdout)
		return exitOK
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		printUsage(stderr, flagSet)
		return exitUsage
	}

	if configPath == "" {
		configPath = os.Getenv(ConfigEnv)
	}
	cfg, err := LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	if err := cfg.validate(); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}
	log, err := newLogger(stderr, cfg.Log)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}

	e := &env{
		stdout:    stdout,
		stderr:    stderr,
		cfg:       cfg,
		log:       log,
		extractor: charcard.NewExtractor(log),
	}

	name := rest[0]
	for _, cmd := range commands {
		if cmd.name != name {
			continue
		}
		err := cmd.run(e, rest[1:])
		var usage usageError
		switch {
		case err == nil:
			return exitOK
		case errors.Is(err, pflag.ErrHelp):
			return exitOK
		case errors.As(err, &usage):
			fmt.Fprintf(stderr, "error: %s\n", usage.msg)
			return exitUsage
		default:
			fmt.Fprintf(stderr, "error: %v\n", err)
			return exitError
		}
	}
	fmt.Fprintf(stderr, "error: unknown command %q\n", name)
	printUsage(stderr, flagSet)
	return exitUsage
}

func printUsage(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintln(w, "Usage: charcard [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", cmd.name, cmd.summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprint(w, flagSet.FlagUsages())
}

// newSubFlags builds a flag set whose parse errors surface as usage errors.
func newSubFlags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.BoolP("help", "h", false, "show help")
	fs.Usage = func() {}
	return fs
}

func parseSubFlags(e *env, fs *pflag.FlagSet, args []string, synopsis string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printSubUsage(e.stdout, fs, synopsis)
			return err
		}
		return usageErrorf("%s: %v", fs.Name(), err)
	}
	if help, _ := fs.GetBool("help"); help {
		printSubUsage(e.stdout, fs, synopsis)
		return pflag.ErrHelp
	}
	return nil
}

func printSubUsage(w io.Writer, fs *pflag.FlagSet, synopsis string) {
	fmt.Fprintf(w, "Usage: charcard %s %s\n\nFlags:\n", fs.Name(), synopsis)
	fmt.Fprint(w, fs.FlagUsages())
}

func writeOutput(e *env, path, content string) error {
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	if path == "" || path == "-" {
		_, err := io.WriteString(e.stdout, content)
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
