package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// runnerFlags holds cell runner flags.
type runnerFlags struct {
	python  string
	timeout string
}

// convertFlags holds flags for to-md and to-notebook.
type convertFlags struct {
	common        commonFlags
	output        string
	watch         bool
	marimoVersion string
}

// extractFlags holds flags for the extract command.
type extractFlags struct {
	common commonFlags
	runner runnerFlags
}

// serveFlags holds flags for the serve command.
type serveFlags struct {
	common        commonFlags
	runner        runnerFlags
	addr          string
	debugEndpoint string
	debug         bool
}

// endpointFlags holds flags for the endpoint command.
type endpointFlags struct {
	url    string
	config string
}

// doctorFlags holds flags for the doctor command.
type doctorFlags struct {
	common commonFlags
	runner runnerFlags
	json   bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show progress details")
}

// addRunnerFlags adds cell runner flags to a FlagSet.
func addRunnerFlags(fs *flag.FlagSet, f *runnerFlags) {
	fs.StringVar(&f.python, "python", "", "python interpreter with marimo installed")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "build timeout (e.g., 30s, 2m)")
}

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}

// parseWith wires usage output into fs and parses args.
func parseWith(fs *flag.FlagSet, args []string, usage func(io.Writer), stderr io.Writer) error {
	fs.SetOutput(stderr)
	fs.Usage = func() { usage(stderr) }
	return fs.Parse(args)
}

// buildConvertFlagSet registers to-md/to-notebook flags.
func buildConvertFlagSet(name string, f *convertFlags) *flag.FlagSet {
	fs := newFlagSet(name)
	fs.StringVarP(&f.output, "output", "o", "", "output file (default: stdout)")
	fs.BoolVarP(&f.watch, "watch", "w", false, "convert again whenever the input changes")
	if name == "to-notebook" {
		fs.StringVar(&f.marimoVersion, "marimo-version", "", "version recorded in generated notebooks")
	}
	addCommonFlags(fs, &f.common)
	return fs
}

// buildExtractFlagSet registers extract flags.
func buildExtractFlagSet(f *extractFlags) *flag.FlagSet {
	fs := newFlagSet("extract")
	addCommonFlags(fs, &f.common)
	addRunnerFlags(fs, &f.runner)
	return fs
}

// buildServeFlagSet registers serve flags.
func buildServeFlagSet(f *serveFlags) *flag.FlagSet {
	fs := newFlagSet("serve")
	fs.StringVarP(&f.addr, "addr", "a", "", "listen address (default: localhost:6000)")
	fs.StringVar(&f.debugEndpoint, "debug-endpoint", "", "islands dev server URL for page heads")
	fs.BoolVar(&f.debug, "debug", false, "console logs at debug level")
	addCommonFlags(fs, &f.common)
	addRunnerFlags(fs, &f.runner)
	return fs
}

// buildEndpointFlagSet registers endpoint flags.
func buildEndpointFlagSet(f *endpointFlags) *flag.FlagSet {
	fs := newFlagSet("endpoint")
	fs.StringVarP(&f.url, "url", "u", "", "service base URL (default: config endpoint.url, then $MARIMO_RUN_ENDPOINT)")
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	return fs
}

// buildDoctorFlagSet registers doctor flags.
func buildDoctorFlagSet(f *doctorFlags) *flag.FlagSet {
	fs := newFlagSet("doctor")
	fs.BoolVar(&f.json, "json", false, "print results as JSON")
	addCommonFlags(fs, &f.common)
	addRunnerFlags(fs, &f.runner)
	return fs
}

// parseConvertFlags parses to-md/to-notebook flags and returns positional args.
func parseConvertFlags(name string, args []string, stderr io.Writer) (*convertFlags, []string, error) {
	f := &convertFlags{}
	fs := buildConvertFlagSet(name, f)
	if err := parseWith(fs, args, func(w io.Writer) { printConvertUsage(w, name) }, stderr); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseExtractFlags parses extract flags and returns positional args.
func parseExtractFlags(args []string, stderr io.Writer) (*extractFlags, []string, error) {
	f := &extractFlags{}
	fs := buildExtractFlagSet(f)
	if err := parseWith(fs, args, printExtractUsage, stderr); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseServeFlags parses serve flags and returns positional args.
func parseServeFlags(args []string, stderr io.Writer) (*serveFlags, []string, error) {
	f := &serveFlags{}
	fs := buildServeFlagSet(f)
	if err := parseWith(fs, args, printServeUsage, stderr); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseEndpointFlags parses endpoint flags and returns positional args.
func parseEndpointFlags(args []string, stderr io.Writer) (*endpointFlags, []string, error) {
	f := &endpointFlags{}
	fs := buildEndpointFlagSet(f)
	if err := parseWith(fs, args, printEndpointUsage, stderr); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseDoctorFlags parses doctor flags.
func parseDoctorFlags(args []string, stderr io.Writer) (*doctorFlags, error) {
	f := &doctorFlags{}
	fs := buildDoctorFlagSet(f)
	if err := parseWith(fs, args, printDoctorUsage, stderr); err != nil {
		return nil, err
	}
	return f, nil
}
