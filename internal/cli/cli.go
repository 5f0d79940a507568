package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/ngstatic/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// explicitKeys maps flags to the build options they override in the project
// file.
var explicitKeys = map[string]string{
	"out":               app.KeyOutputDir,
	"o":                 app.KeyOutputDir,
	"no-auto-remove":    app.KeyAutoRemoveOutputDir,
	"no-warnings":       app.KeyShowWarnings,
	"no-beautify":       app.KeyBeautify,
	"workers":           app.KeyWorkers,
	"indent":            app.KeyIndent,
	"break-around-tags": app.KeyBreakAroundTags,
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("ngstatic", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
ngstatic - Render HTML templates with *ngif, *ngfor and {{expressions}} into a static site.

Usage:
  ngstatic [options] [SOURCE_DIR]

Arguments:
  SOURCE_DIR
    Directory holding the .html templates and the .json/.yaml data files.
    Defaults to the current directory.

Options:
`)
		flagSet.PrintDefaults()
	}

	def := app.DefaultConfig()

	sourceFlag := flagSet.String("source", "", "Directory containing templates and data files.")
	sFlag := flagSet.String("s", "", "Directory containing templates and data files (shorthand).")
	outFlag := flagSet.String("out", def.OutputDir, "Output directory.")
	oFlag := flagSet.String("o", "", "Output directory (shorthand).")
	configFlag := flagSet.String("config", "", "Path to the project file. Defaults to SOURCE_DIR/ngstatic.hcl when present.")
	noAutoRemoveFlag := flagSet.Bool("no-auto-remove", false, "Fail instead of replacing an existing output directory.")
	noWarningsFlag := flagSet.Bool("no-warnings", false, "Do not warn about undefined expressions.")
	noBeautifyFlag := flagSet.Bool("no-beautify", false, "Write the rendered markup without reformatting it.")
	indentFlag := flagSet.String("indent", def.Indent, "Indentation used by the beautifier.")
	breakTagsFlag := flagSet.String("break-around-tags", strings.Join(def.BreakAroundTags, ","), "Comma-separated tags the beautifier puts on their own line.")
	workersFlag := flagSet.Int("workers", def.Workers, "Number of templates rendered concurrently.")
	watchFlag := flagSet.Bool("watch", false, "Rebuild whenever a template or data file changes.")
	servePortFlag := flagSet.Int("serve-port", 0, "Serve the output directory on this port in watch mode. 0 is disabled.")
	liveReloadFlag := flagSet.String("livereload-url", "", "socket.io server notified after every rebuild in watch mode.")
	liveReloadNSFlag := flagSet.String("livereload-namespace", "/", "socket.io namespace for live reload events.")
	logFormatFlag := flagSet.String("log-format", def.LogFormat, "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", def.LogLevel, "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	noColorFlag := flagSet.Bool("no-color", false, "Disable coloured console output.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	if flagSet.NArg() > 1 {
		return nil, false, &ExitError{Code: 2, Message: "too many arguments: expected at most one SOURCE_DIR"}
	}

	source := def.SourceDir
	if *sourceFlag != "" {
		source = *sourceFlag
	} else if *sFlag != "" {
		source = *sFlag
	} else if flagSet.NArg() > 0 {
		source = flagSet.Arg(0)
	}
	slog.Debug("Source directory determined.", "path", source)

	outDir := *outFlag
	if *oFlag != "" {
		outDir = *oFlag
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	explicit := make(map[string]bool)
	flagSet.Visit(func(f *flag.Flag) {
		if key, ok := explicitKeys[f.Name]; ok {
			explicit[key] = true
		}
	})
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		SourceDir:           source,
		ConfigPath:          *configFlag,
		OutputDir:           outDir,
		AutoRemoveOutputDir: !*noAutoRemoveFlag,
		ShowWarnings:        !*noWarningsFlag,
		Beautify:            !*noBeautifyFlag,
		Workers:             *workersFlag,
		Indent:              *indentFlag,
		BreakAroundTags:     splitList(*breakTagsFlag),
		Watch:               *watchFlag,
		ServePort:           *servePortFlag,
		LiveReloadURL:       *liveReloadFlag,
		LiveReloadNamespace: *liveReloadNSFlag,
		LogFormat:           logFormat,
		LogLevel:            logLevel,
		NoColor:             *noColorFlag,
		Explicit:            explicit,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
