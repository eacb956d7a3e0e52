package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"regexp"
	"runtime"
	"strings"

	"github.com/jmurray2011/wgrep/internal/dosbuf"
	"github.com/jmurray2011/wgrep/internal/filesystem"
	"github.com/jmurray2011/wgrep/internal/report"
	"github.com/jmurray2011/wgrep/internal/scan"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// exitStatus ends the process with a grep-style status and no further output.
type exitStatus int

const (
	statusNoMatch exitStatus = 1
	statusTrouble exitStatus = 2
)

func (s exitStatus) Error() string {
	return fmt.Sprintf("exit status %d", int(s))
}

// boundFlags are read through viper, so they can also come from the
// environment (WGREP_BYTE_OFFSET=1) or a config file.
var boundFlags = []string{
	"fixed-strings",
	"ignore-case",
	"invert-match",
	"line-number",
	"byte-offset",
	"unix-byte-offsets",
	"binary",
	"count",
	"with-filename",
	"no-filename",
	"json",
	"jobs",
	"strip-cr",
	"chunk-size",
	"debug",
	"config",
}

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wgrep [flags] PATTERN [file...]",
		Short: "A line-ending aware grep",
		Long: `wgrep searches files for lines matching a regular expression.

With --strip-cr (the default on Windows) DOS text files have their CR
characters removed before matching, so patterns anchored with $ work on
CRLF files. Byte offsets printed with -b still refer to the original file
unless -u is given.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          runGrep,
	}

	flags := cmd.Flags()
	flags.StringArrayP("regexp", "e", nil, "use PATTERN for matching (repeatable)")
	flags.BoolP("fixed-strings", "F", false, "PATTERN is a set of fixed strings")
	flags.BoolP("ignore-case", "i", false, "ignore case distinctions")
	flags.BoolP("invert-match", "v", false, "select non-matching lines")
	flags.BoolP("line-number", "n", false, "print line number with output lines")
	flags.BoolP("byte-offset", "b", false, "print the byte offset with output lines")
	flags.BoolP("unix-byte-offsets", "u", false, "report offsets as if CRs were not there")
	flags.BoolP("binary", "U", false, "do not strip CR characters (treat files as binary)")
	flags.BoolP("count", "c", false, "print only a count of selected lines per file")
	flags.BoolP("with-filename", "H", false, "print the file name for each match")
	flags.BoolP("no-filename", "h", false, "suppress the file name prefix on output")
	flags.Bool("json", false, "print matches and summaries as JSON lines")
	flags.IntP("jobs", "j", runtime.GOMAXPROCS(0), "number of files searched concurrently")
	flags.Bool("strip-cr", dosbuf.TextModeDefault, "strip CR characters from DOS text files before matching")
	flags.Int("chunk-size", scan.DefaultChunkSize, "read size in bytes")
	flags.Bool("debug", false, "log diagnostics to stderr")
	flags.String("config", "", "config file (yaml, toml or json)")

	for _, name := range boundFlags {
		viper.BindPFlag(name, flags.Lookup(name))
	}

	return cmd
}

func Execute() error {
	return rootCmd.Execute()
}

// initConfig layers the environment and an optional config file under the
// command-line flags.
func initConfig() error {
	viper.SetEnvPrefix("WGREP")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if path := viper.GetString("config"); path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", path, err)
		}
	}
	return nil
}

// newLogger returns the diagnostics logger. Only warnings are shown unless
// debug is set.
func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// compilePattern joins patterns into one regular expression. A pattern
// containing newlines counts as one pattern per line.
func compilePattern(patterns []string, fixed, ignoreCase bool) (*regexp.Regexp, error) {
	var parts []string
	for _, p := range patterns {
		for _, line := range strings.Split(p, "\n") {
			if fixed {
				line = regexp.QuoteMeta(line)
			}
			parts = append(parts, "(?:"+line+")")
		}
	}

	expr := strings.Join(parts, "|")
	if ignoreCase {
		expr = "(?i)" + expr
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}
	return re, nil
}

func runGrep(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := initConfig(); err != nil {
		return err
	}

	patterns, err := cmd.Flags().GetStringArray("regexp")
	if err != nil {
		return err
	}
	if len(patterns) == 0 {
		if len(args) == 0 {
			return fmt.Errorf("no pattern given (usage: %s)", cmd.UseLine())
		}
		patterns = args[:1]
		args = args[1:]
	}

	re, err := compilePattern(patterns, viper.GetBool("fixed-strings"), viper.GetBool("ignore-case"))
	if err != nil {
		return err
	}

	files := args
	if len(files) == 0 {
		files = []string{filesystem.StdinName}
	}

	// -h wins over -H; by default names are shown for several files
	withFilename := (len(files) > 1 || viper.GetBool("with-filename")) && !viper.GetBool("no-filename")
	byteOffsets := viper.GetBool("byte-offset")
	logger := newLogger(cmd.ErrOrStderr(), viper.GetBool("debug"))

	s := &searcher{
		scanConfig: scan.Config{
			Pattern:         re,
			Invert:          viper.GetBool("invert-match"),
			StripCR:         viper.GetBool("strip-cr"),
			ForceBinary:     viper.GetBool("binary"),
			ByteOffsets:     byteOffsets,
			UnixByteOffsets: viper.GetBool("unix-byte-offsets"),
			ChunkSize:       viper.GetInt("chunk-size"),
			Logger:          logger,
		},
		format: report.Format{
			WithFilename: withFilename,
			LineNumbers:  viper.GetBool("line-number"),
			ByteOffsets:  byteOffsets,
			CountOnly:    viper.GetBool("count"),
			JSON:         viper.GetBool("json"),
		},
		opener: filesystem.NewFileOpener(),
		jobs:   viper.GetInt("jobs"),
	}

	logger.Debug("starting search",
		"pattern", re.String(),
		"files", len(files),
		"jobs", s.jobs,
		"strip_cr", s.scanConfig.StripCR,
	)

	matched, failed := s.run(ctx, files, cmd.OutOrStdout(), cmd.ErrOrStderr())
	switch {
	case failed:
		return statusTrouble
	case !matched:
		return statusNoMatch
	}
	return nil
}
