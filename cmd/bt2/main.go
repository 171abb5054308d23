// bt2 is a CLI for building and running trace-conversion pipeline graphs.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/bt2go/bt2/internal/errchain"
)

func main() {
	var (
		ctx    = context.Background()
		stdout = os.Stdout
		stderr = os.Stderr
		args   = os.Args[1:]
	)
	err := exec(ctx, stdout, stderr, args)
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		os.Exit(0)
	default:
		printCLIError(stderr, err)
		os.Exit(1)
	}
}

// printCLIError prints err's causes from the deepest (root) cause, printed
// first, to the most recently appended cause, printed last. Labels follow
// babeltrace2.c's print_error_causes: the most recent cause is labeled
// "ERROR", every earlier cause "CAUSED BY". Errors that never built up an
// errchain.Chain (flag parsing, plain stdlib errors) fall back to a single
// "ERROR" line.
func printCLIError(w io.Writer, err error) {
	var chain *errchain.Chain
	if !errors.As(err, &chain) || chain.IsEmpty() {
		fmt.Fprintf(w, "ERROR: %v\n", err)
		return
	}
	causes := chain.Causes()
	for i := range causes {
		label := "CAUSED BY"
		if i == len(causes)-1 {
			label = "ERROR"
		}
		fmt.Fprintf(w, "%s: %s\n", label, causes[i])
	}
}

func exec(ctx context.Context, stdout, stderr io.Writer, args []string) (err error) {
	rootConfig := &rootConfig{stdout: stdout, stderr: stderr}
	rootFlags := ff.NewFlagSet("bt2")
	rootConfig.registerBaseFlags(rootFlags)
	rootCommand := &ff.Command{
		Name:      "bt2",
		ShortHelp: "build and run trace-conversion pipeline graphs",
		Flags:     rootFlags,
	}

	convertConfig := &convertConfig{rootConfig: rootConfig}
	convertFlags := ff.NewFlagSet("convert").SetParent(rootFlags)
	convertConfig.register(convertFlags)
	rootCommand.Subcommands = append(rootCommand.Subcommands, &ff.Command{
		Name:      "convert",
		ShortHelp: "build a graph from source/filter/sink components and run it",
		LongHelp:  "Wire together source, filter and sink components (explicitly, and/or via auto-source-discovery over --input) and run the resulting graph to completion.",
		Flags:     convertFlags,
		Exec:      convertConfig.Exec,
	})

	listPluginsConfig := &listPluginsConfig{rootConfig: rootConfig}
	listPluginsFlags := ff.NewFlagSet("list-plugins").SetParent(rootFlags)
	listPluginsConfig.register(listPluginsFlags)
	rootCommand.Subcommands = append(rootCommand.Subcommands, &ff.Command{
		Name:      "list-plugins",
		ShortHelp: "list registered plugins and their component classes",
		Flags:     listPluginsFlags,
		Exec:      listPluginsConfig.Exec,
	})

	queryConfig := &queryConfig{rootConfig: rootConfig}
	queryFlags := ff.NewFlagSet("query").SetParent(rootFlags)
	queryConfig.register(queryFlags)
	rootCommand.Subcommands = append(rootCommand.Subcommands, &ff.Command{
		Name:      "query",
		ShortHelp: "run a single query against a component class",
		Flags:     queryFlags,
		Exec:      queryConfig.Exec,
	})

	printCtfMetadataConfig := &printCtfMetadataConfig{rootConfig: rootConfig}
	printCtfMetadataFlags := ff.NewFlagSet("print-ctf-metadata").SetParent(rootFlags)
	printCtfMetadataConfig.register(printCtfMetadataFlags)
	rootCommand.Subcommands = append(rootCommand.Subcommands, &ff.Command{
		Name:      "print-ctf-metadata",
		ShortHelp: "query a component class for metadata-info",
		Flags:     printCtfMetadataFlags,
		Exec:      printCtfMetadataConfig.Exec,
	})

	printLTTngLiveSessionsConfig := &printLTTngLiveSessionsConfig{rootConfig: rootConfig}
	printLTTngLiveSessionsFlags := ff.NewFlagSet("print-lttng-live-sessions").SetParent(rootFlags)
	printLTTngLiveSessionsConfig.register(printLTTngLiveSessionsFlags)
	rootCommand.Subcommands = append(rootCommand.Subcommands, &ff.Command{
		Name:      "print-lttng-live-sessions",
		ShortHelp: "query a component class for its sessions object",
		Flags:     printLTTngLiveSessionsFlags,
		Exec:      printLTTngLiveSessionsConfig.Exec,
	})

	showHelp := true
	defer func() {
		errHelp := errors.Is(err, ff.ErrHelp) || errors.Is(err, ff.ErrNoExec)
		if showHelp || errHelp {
			fmt.Fprintf(stderr, "\n%s\n", ffhelp.Command(rootCommand))
		}
		if errHelp {
			err = nil
		}
	}()

	if err := rootCommand.Parse(args, ff.WithEnvVarPrefix("BT2")); err != nil {
		return err
	}

	logger, err := buildLogger(rootConfig.LogLevel, stderr)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck
	rootConfig.logger = logger

	registry, err := builtinPlugins(logger)
	if err != nil {
		return fmt.Errorf("register builtin plugins: %w", err)
	}
	rootConfig.registry = registry

	warnCommandNameDirectoryClash(args, stderr)

	showHelp = false

	return rootCommand.Run(ctx)
}

// warnCommandNameDirectoryClash mirrors babeltrace2.c's
// BABELTRACE_CLI_WARN_COMMAND_NAME_DIRECTORY_CLASH hint: if the first
// positional argument both names a known subcommand and exists as a
// file/directory in the current working directory, nudge the user that
// they probably meant `convert --input <name>`.
func warnCommandNameDirectoryClash(args []string, stderr io.Writer) {
	if os.Getenv("BABELTRACE_CLI_WARN_COMMAND_NAME_DIRECTORY_CLASH") == "0" {
		return
	}
	if len(args) == 0 {
		return
	}
	first := args[0]
	known := map[string]bool{
		"convert": true, "query": true, "list-plugins": true, "help": true,
		"print-ctf-metadata": true, "print-lttng-live-sessions": true,
	}
	if !known[first] {
		return
	}
	if _, err := os.Stat(first); err == nil {
		fmt.Fprintf(stderr, "warning: %q is both a known command and a file/directory in the current directory; "+
			"if you meant the latter, use `bt2 convert --input %s`\n", first, first)
	}
}
