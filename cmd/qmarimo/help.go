package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: qmarimo <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  to-md        Convert a marimo notebook to Quarto markdown")
	fmt.Fprintln(w, "  to-notebook  Convert Quarto markdown to a marimo notebook")
	fmt.Fprintln(w, "  extract      Render every code cell of a document as JSON")
	fmt.Fprintln(w, "  serve        Run the render service")
	fmt.Fprintln(w, "  endpoint     Call the render service once")
	fmt.Fprintln(w, "  doctor       Check the Python environment and service")
	fmt.Fprintln(w, "  completion   Generate shell completion script")
	fmt.Fprintln(w, "  version      Show version information")
	fmt.Fprintln(w, "  help         Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'qmarimo help <command>' for details on a specific command.")
}

// printCommonFlags prints flags shared by most commands.
func printCommonFlags(w io.Writer) {
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show progress details")
}

// printRunnerFlags prints cell runner flags.
func printRunnerFlags(w io.Writer) {
	fmt.Fprintln(w, "      --python <path>       Python interpreter with marimo installed")
	fmt.Fprintln(w, "  -t, --timeout <d>         Build timeout (e.g., 30s, 2m)")
}

// printConvertUsage prints usage for to-md and to-notebook.
func printConvertUsage(w io.Writer, name string) {
	if name == "to-md" {
		fmt.Fprintln(w, "Usage: qmarimo to-md <notebook.py> [flags]")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Convert a marimo notebook to Quarto markdown.")
	} else {
		fmt.Fprintln(w, "Usage: qmarimo to-notebook <document.md> [flags]")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Convert Quarto markdown to a marimo notebook.")
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file (default: stdout)")
	fmt.Fprintln(w, "  -w, --watch               Convert again whenever the input changes")
	if name != "to-md" {
		fmt.Fprintln(w, "      --marimo-version <v>  Version recorded in the notebook")
	}
	printCommonFlags(w)
}

// printExtractUsage prints usage for the extract command.
func printExtractUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: qmarimo extract <reference-file> <yes|no> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render every code cell of a document and print the result as JSON.")
	fmt.Fprintln(w, "The document is read from stdin, or from reference-file when stdin is empty.")
	fmt.Fprintln(w, "The second argument selects mime-sensitive output.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	printRunnerFlags(w)
	printCommonFlags(w)
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: qmarimo serve [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run the render service used by the Quarto filter.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -a, --addr <host:port>    Listen address (default: localhost:6000)")
	fmt.Fprintln(w, "      --debug-endpoint <u>  Islands dev server URL for page heads")
	fmt.Fprintln(w, "      --debug               Console logs at debug level")
	printRunnerFlags(w)
	printCommonFlags(w)
}

// printEndpointUsage prints usage for the endpoint command.
func printEndpointUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: qmarimo endpoint <app> <endpoint> <yes|no> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Call the render service once and print the reply.")
	fmt.Fprintln(w, "run, execute and lookup read their payload from stdin.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -u, --url <url>           Service base URL (default: config endpoint.url,")
	fmt.Fprintln(w, "                            then $MARIMO_RUN_ENDPOINT)")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: qmarimo doctor [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check the Python interpreter, marimo and the render service.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "      --json                Print results as JSON")
	printRunnerFlags(w)
	printCommonFlags(w)
}

// runHelp prints help for a specific command.
// printCompletionUsage prints usage for the completion command.
func printCompletionUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: qmarimo completion <shell>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Generate a shell completion script.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Shells: bash, zsh, fish, powershell")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  eval \"$(qmarimo completion bash)\"")
	fmt.Fprintln(w, "  qmarimo completion fish > ~/.config/fish/completions/qmarimo.fish")
}

func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	switch args[0] {
	case "to-md", "to-notebook":
		printConvertUsage(env.Stdout, args[0])
	case "extract":
		printExtractUsage(env.Stdout)
	case "serve":
		printServeUsage(env.Stdout)
	case "endpoint":
		printEndpointUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "completion":
		printCompletionUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: qmarimo version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: qmarimo help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}
