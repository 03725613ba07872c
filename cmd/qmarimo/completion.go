package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"
)

// Shell represents a supported shell for completion generation.
type Shell string

// Supported shells for completion.
const (
	ShellBash       Shell = "bash"
	ShellZsh        Shell = "zsh"
	ShellFish       Shell = "fish"
	ShellPowerShell Shell = "powershell"
)

// ErrUnsupportedShell is returned when an unknown shell is requested.
var ErrUnsupportedShell = errors.New("unsupported shell")

type flagType int

const (
	flagString flagType = iota
	flagBool
	flagFile
)

// flagDef describes a flag for completion purposes.
type flagDef struct {
	Long     string
	Short    string
	Type     flagType
	Desc     string
	FileGlob string
}

// commandDef describes a command for completion.
type commandDef struct {
	Name        string
	Desc        string
	Flags       []flagDef
	TakesFiles  bool
	FilePattern string
}

// flagFileGlobs marks flags whose value is a path. An empty glob accepts any file.
var flagFileGlobs = map[string]string{
	"config": "*.yaml",
	"output": "",
	"python": "",
}

// extractFlagsFromFlagSet turns registered pflag flags into completion defs.
func extractFlagsFromFlagSet(fs *flag.FlagSet) []flagDef {
	var defs []flagDef
	fs.VisitAll(func(f *flag.Flag) {
		fd := flagDef{Long: f.Name, Short: f.Shorthand, Desc: f.Usage}
		if f.Value.Type() == "bool" {
			fd.Type = flagBool
		}
		if glob, ok := flagFileGlobs[f.Name]; ok {
			fd.Type = flagFile
			fd.FileGlob = glob
		}
		defs = append(defs, fd)
	})
	return defs
}

// getCommands returns the command registry for completion. Flags come from
// the same FlagSets the commands parse with.
func getCommands() []commandDef {
	return []commandDef{
		{
			Name:        "to-md",
			Desc:        "Convert a marimo notebook to Quarto markdown",
			Flags:       extractFlagsFromFlagSet(buildConvertFlagSet("to-md", &convertFlags{})),
			TakesFiles:  true,
			FilePattern: "*.py",
		},
		{
			Name:        "to-notebook",
			Desc:        "Convert Quarto markdown to a marimo notebook",
			Flags:       extractFlagsFromFlagSet(buildConvertFlagSet("to-notebook", &convertFlags{})),
			TakesFiles:  true,
			FilePattern: "*.qmd",
		},
		{
			Name:        "extract",
			Desc:        "Render every code cell of a document as JSON",
			Flags:       extractFlagsFromFlagSet(buildExtractFlagSet(&extractFlags{})),
			TakesFiles:  true,
			FilePattern: "*.qmd",
		},
		{
			Name:  "serve",
			Desc:  "Run the render service",
			Flags: extractFlagsFromFlagSet(buildServeFlagSet(&serveFlags{})),
		},
		{
			Name:  "endpoint",
			Desc:  "Call the render service once",
			Flags: extractFlagsFromFlagSet(buildEndpointFlagSet(&endpointFlags{})),
		},
		{
			Name:  "doctor",
			Desc:  "Check the Python environment and service",
			Flags: extractFlagsFromFlagSet(buildDoctorFlagSet(&doctorFlags{})),
		},
		{Name: "completion", Desc: "Generate shell completion script"},
		{Name: "version", Desc: "Show version information"},
		{Name: "help", Desc: "Show help for a command"},
	}
}

// GenerateCompletion writes a shell completion script to w.
func GenerateCompletion(w io.Writer, shell Shell) error {
	var script string
	switch shell {
	case ShellBash:
		script = bashScript(getCommands())
	case ShellZsh:
		script = zshScript(getCommands())
	case ShellFish:
		script = fishScript(getCommands())
	case ShellPowerShell:
		script = powerShellScript(getCommands())
	default:
		return fmt.Errorf("%w: %q (supported: bash, zsh, fish, powershell)", ErrUnsupportedShell, shell)
	}
	_, err := io.WriteString(w, script)
	return err
}

// runCompletionCmd prints the completion script for one shell, or usage
// when no shell is given.
func runCompletionCmd(args []string, env *Environment) error {
	if len(args) == 0 {
		printCompletionUsage(env.Stdout)
		return nil
	}
	if len(args) > 1 {
		return fmt.Errorf("%w: completion takes one shell argument", ErrUsage)
	}
	if err := GenerateCompletion(env.Stdout, Shell(strings.ToLower(args[0]))); err != nil {
		if errors.Is(err, ErrUnsupportedShell) {
			return fmt.Errorf("%w: %v", ErrUsage, err)
		}
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	return nil
}

func commandNames(cmds []commandDef) string {
	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = c.Name
	}
	return strings.Join(names, " ")
}

func flagWords(flags []flagDef) string {
	var words []string
	for _, f := range flags {
		words = append(words, "--"+f.Long)
		if f.Short != "" {
			words = append(words, "-"+f.Short)
		}
	}
	return strings.Join(words, " ")
}

func bashScript(cmds []commandDef) string {
	var b strings.Builder
	b.WriteString("# bash completion for qmarimo\n")
	b.WriteString("_qmarimo_completions() {\n")
	b.WriteString("    local cur prev cmd\n")
	b.WriteString("    cur=\"${COMP_WORDS[COMP_CWORD]}\"\n")
	b.WriteString("    prev=\"${COMP_WORDS[COMP_CWORD-1]}\"\n\n")
	b.WriteString("    if [[ ${COMP_CWORD} -eq 1 ]]; then\n")
	fmt.Fprintf(&b, "        COMPREPLY=($(compgen -W %q -- \"$cur\"))\n", commandNames(cmds))
	b.WriteString("        return\n    fi\n\n")
	b.WriteString("    cmd=\"${COMP_WORDS[1]}\"\n")
	b.WriteString("    case \"$cmd\" in\n")
	for _, c := range cmds {
		if c.Name == "completion" {
			b.WriteString("        completion)\n")
			b.WriteString("            COMPREPLY=($(compgen -W \"bash zsh fish powershell\" -- \"$cur\"))\n")
			b.WriteString("            ;;\n")
			continue
		}
		if len(c.Flags) == 0 && !c.TakesFiles {
			continue
		}
		fmt.Fprintf(&b, "        %s)\n", c.Name)
		b.WriteString("            case \"$prev\" in\n")
		for _, f := range c.Flags {
			if f.Type != flagFile {
				continue
			}
			pattern := "--" + f.Long
			if f.Short != "" {
				pattern += "|-" + f.Short
			}
			fmt.Fprintf(&b, "                %s)\n                    %s\n                    return\n                    ;;\n",
				pattern, bashFiles(f.FileGlob))
		}
		b.WriteString("            esac\n")
		b.WriteString("            if [[ \"$cur\" == -* ]]; then\n")
		fmt.Fprintf(&b, "                COMPREPLY=($(compgen -W %q -- \"$cur\"))\n", flagWords(c.Flags))
		if c.TakesFiles {
			b.WriteString("            else\n")
			fmt.Fprintf(&b, "                %s\n", bashFiles(c.FilePattern))
		}
		b.WriteString("            fi\n            ;;\n")
	}
	b.WriteString("    esac\n}\n\n")
	b.WriteString("complete -F _qmarimo_completions qmarimo\n")
	return b.String()
}

func bashFiles(glob string) string {
	if glob == "" {
		return "COMPREPLY=($(compgen -f -- \"$cur\"))"
	}
	return fmt.Sprintf("COMPREPLY=($(compgen -f -X '!%s' -- \"$cur\"))", glob)
}

func zshScript(cmds []commandDef) string {
	var b strings.Builder
	b.WriteString("#compdef qmarimo\n\n")
	b.WriteString("_qmarimo() {\n")
	b.WriteString("    local -a commands\n")
	b.WriteString("    commands=(\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        '%s:%s'\n", c.Name, zshEscape(c.Desc))
	}
	b.WriteString("    )\n\n")
	b.WriteString("    if (( CURRENT == 2 )); then\n")
	b.WriteString("        _describe 'command' commands\n")
	b.WriteString("        return\n    fi\n\n")
	b.WriteString("    case \"${words[2]}\" in\n")
	for _, c := range cmds {
		if c.Name == "completion" {
			b.WriteString("        completion)\n")
			b.WriteString("            _arguments '1:shell:(bash zsh fish powershell)'\n")
			b.WriteString("            ;;\n")
			continue
		}
		if len(c.Flags) == 0 && !c.TakesFiles {
			continue
		}
		fmt.Fprintf(&b, "        %s)\n", c.Name)
		b.WriteString("            _arguments")
		for _, f := range c.Flags {
			fmt.Fprintf(&b, " \\\n                %s", zshFlag(f))
		}
		if c.TakesFiles {
			fmt.Fprintf(&b, " \\\n                '*:file:_files -g \"%s\"'", c.FilePattern)
		}
		b.WriteString("\n            ;;\n")
	}
	b.WriteString("    esac\n}\n\n")
	b.WriteString("compdef _qmarimo qmarimo\n")
	return b.String()
}

func zshFlag(f flagDef) string {
	var value string
	switch f.Type {
	case flagBool:
	case flagFile:
		if f.FileGlob == "" {
			value = ":" + f.Long + ":_files"
		} else {
			value = fmt.Sprintf(":%s:_files -g \"%s\"", f.Long, f.FileGlob)
		}
	default:
		value = ":" + f.Long + ":"
	}
	desc := "[" + zshEscapeArg(f.Desc) + "]" + value
	if f.Short == "" {
		return "'--" + f.Long + desc + "'"
	}
	return fmt.Sprintf("'(-%s --%s)'{-%s,--%s}'%s'", f.Short, f.Long, f.Short, f.Long, desc)
}

// zshEscape quotes a _describe entry, where a colon ends the name.
func zshEscape(s string) string {
	r := strings.NewReplacer("'", "'\\''", ":", "\\:")
	return r.Replace(s)
}

// zshEscapeArg quotes an _arguments description, which ends at a bracket.
func zshEscapeArg(s string) string {
	r := strings.NewReplacer("'", "'\\''", "[", "\\[", "]", "\\]")
	return r.Replace(s)
}

func fishScript(cmds []commandDef) string {
	var b strings.Builder
	b.WriteString("# fish completion for qmarimo\n\n")
	b.WriteString("function __fish_qmarimo_needs_command\n")
	b.WriteString("    set -l cmd (commandline -opc)\n")
	b.WriteString("    test (count $cmd) -eq 1\nend\n\n")
	b.WriteString("function __fish_qmarimo_using_command\n")
	b.WriteString("    set -l cmd (commandline -opc)\n")
	b.WriteString("    test (count $cmd) -gt 1; and test $cmd[2] = $argv[1]\nend\n\n")
	b.WriteString("complete -c qmarimo -f\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "complete -c qmarimo -n __fish_qmarimo_needs_command -a %s -d '%s'\n", c.Name, fishEscape(c.Desc))
	}
	for _, c := range cmds {
		cond := fmt.Sprintf("'__fish_qmarimo_using_command %s'", c.Name)
		if c.Name == "completion" {
			fmt.Fprintf(&b, "complete -c qmarimo -n %s -a 'bash zsh fish powershell'\n", cond)
			continue
		}
		for _, f := range c.Flags {
			line := fmt.Sprintf("complete -c qmarimo -n %s -l %s", cond, f.Long)
			if f.Short != "" {
				line += " -s " + f.Short
			}
			switch f.Type {
			case flagBool:
			case flagFile:
				line += " -r -F"
			default:
				line += " -r"
			}
			line += fmt.Sprintf(" -d '%s'", fishEscape(f.Desc))
			b.WriteString(line + "\n")
		}
		if c.TakesFiles {
			fmt.Fprintf(&b, "complete -c qmarimo -n %s -F\n", cond)
		}
	}
	return b.String()
}

func fishEscape(s string) string {
	return strings.ReplaceAll(s, "'", "\\'")
}

func powerShellScript(cmds []commandDef) string {
	var b strings.Builder
	b.WriteString("# powershell completion for qmarimo\n")
	b.WriteString("Register-ArgumentCompleter -Native -CommandName qmarimo -ScriptBlock {\n")
	b.WriteString("    param($wordToComplete, $commandAst, $cursorPosition)\n\n")
	b.WriteString("    $words = $commandAst.CommandElements | ForEach-Object { $_.ToString() }\n")
	b.WriteString("    $commands = @{\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        '%s' = '%s'\n", c.Name, psEscape(c.Desc))
	}
	b.WriteString("    }\n")
	b.WriteString("    $flags = @{\n")
	for _, c := range cmds {
		words := flagWords(c.Flags)
		if c.Name == "completion" {
			words = "bash zsh fish powershell"
		}
		fmt.Fprintf(&b, "        '%s' = '%s'\n", c.Name, words)
	}
	b.WriteString("    }\n\n")
	b.WriteString("    if ($words.Count -le 1 -or ($words.Count -eq 2 -and $wordToComplete)) {\n")
	b.WriteString("        $commands.Keys | Where-Object { $_ -like \"$wordToComplete*\" } | Sort-Object | ForEach-Object {\n")
	b.WriteString("            [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $commands[$_])\n")
	b.WriteString("        }\n        return\n    }\n\n")
	b.WriteString("    $cmd = $words[1]\n")
	b.WriteString("    if ($flags.ContainsKey($cmd) -and $flags[$cmd]) {\n")
	b.WriteString("        $flags[$cmd].Split(' ') | Where-Object { $_ -like \"$wordToComplete*\" } | ForEach-Object {\n")
	b.WriteString("            [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterName', $_)\n")
	b.WriteString("        }\n    }\n}\n")
	return b.String()
}

func psEscape(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
