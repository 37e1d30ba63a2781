package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/mark3labs/tokencount/internal/config"
	"github.com/mark3labs/tokencount/internal/counter"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	configFile string
	debugMode  bool
)

// errMissingArguments is reported on stderr by the root command itself, so
// the error handler prints nothing more for it.
var errMissingArguments = errors.New("missing required arguments")

var rootCmd = &cobra.Command{
	Use:   "tokencount <text> <provider> <model>",
	Short: "Count tokens and estimate input cost for LLM providers",
	Long: `tokencount tokenizes a text the way an LLM provider does, and prints the
token count, the input price and a character-to-token visualization as one
JSON object.

Supported providers: anthropic, cohere, google, llama, mistral, openai.

Anthropic and Google counts come from their hosted APIs and need
ANTHROPIC_API_KEY or GOOGLE_API_KEY/GEMINI_API_KEY. Cohere, Llama and
Mistral tokenizers are downloaded from the Hugging Face Hub; gated
repositories need HUGGINGFACE_TOKEN or HF_TOKEN.

Three arguments are always read as text, provider and model, so a text
that starts with a dash or names a subcommand is counted as it is.

Examples:
  tokencount "Hello world" llama llama-3.1-8b
  tokencount "Hello world" anthropic claude-3-opus
  tokencount "- item one" openai gpt-4o
  tokencount --pricing-file prices.yml "Hello" openai gpt-4o`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	RunE: runCount,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default is $HOME/.tokencount.yml)")
	flags.BoolVar(&debugMode, "debug", false, "enable debug logging")
	flags.String("pricing-file", "", "YAML file with prices that extend or replace the built-in catalogue")
	flags.Bool("tls-skip-verify", false, "skip TLS certificate verification for remote providers (insecure)")
	flags.String("hub-cache-dir", "", "cache directory for Hugging Face downloads")
	flags.String("hub-local-dir", "", "serve tokenizer files from <dir>/<repo>/<file> instead of downloading them")

	_ = viper.BindPFlag(config.KeyDebug, flags.Lookup("debug"))
	_ = viper.BindPFlag(config.KeyPricingFile, flags.Lookup("pricing-file"))
	_ = viper.BindPFlag(config.KeyTLSSkipVerify, flags.Lookup("tls-skip-verify"))
	_ = viper.BindPFlag(config.KeyHubCacheDir, flags.Lookup("hub-cache-dir"))
	_ = viper.BindPFlag(config.KeyHubLocalDir, flags.Lookup("hub-local-dir"))

	config.SetDefaults(viper.GetViper())
}

func initConfig() error {
	return config.LoadConfigWithEnvSubstitution(viper.GetViper(), configFile)
}

// settings resolves the current configuration.
func settings() *config.Settings {
	return config.FromViper(viper.GetViper())
}

// newLogger returns the process logger. Logs always go to stderr so stdout
// carries nothing but results.
func newLogger(w io.Writer, s *config.Settings) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Level:           log.InfoLevel,
	})
	if s.Debug {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// buildCounter is replaced in tests.
var buildCounter = func(s *config.Settings, logger *log.Logger) (*counter.Counter, error) {
	return counter.NewFromSettings(s, logger)
}

func runCount(cmd *cobra.Command, args []string) error {
	if len(args) < 3 {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error: Missing required arguments")
		return errMissingArguments
	}

	s := settings()
	c, err := buildCounter(s, newLogger(cmd.ErrOrStderr(), s))
	if err != nil {
		// The envelope keeps stdout parseable; the exit status still
		// reports the failure.
		if werr := writeJSON(cmd.OutOrStdout(), counter.Fail(err.Error())); werr != nil {
			return errors.Join(err, werr)
		}
		return err
	}

	res := c.Count(cmd.Context(), counter.Request{Text: args[0], Provider: args[1], Model: args[2]})
	return writeJSON(cmd.OutOrStdout(), res)
}

func writeJSON(w io.Writer, v any) error {
	data, err := sonic.ConfigStd.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// errorHandler prints command errors on stderr, except for errors the
// command already reported.
func errorHandler(w io.Writer, styles fang.Styles, err error) {
	if errors.Is(err, errMissingArguments) {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}

// countArgs rewrites the command line so that the text of a count is never
// taken for a flag or a subcommand. When the arguments hold exactly three
// positionals they are moved behind "--", which stops both flag parsing and
// subcommand lookup; "show" followed by three positionals gets the same
// treatment after the subcommand name. Any other command line is returned
// unchanged.
func countArgs(args []string) []string {
	if len(args) > 0 && (args[0] == cobra.ShellCompRequestCmd || args[0] == cobra.ShellCompNoDescRequestCmd) {
		return args
	}

	var flags, positionals []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			positionals = append(positionals, args[i+1:]...)
			break
		}
		takesValue, ok := lookupFlag(arg)
		if !ok {
			positionals = append(positionals, arg)
			continue
		}
		flags = append(flags, arg)
		if takesValue && i+1 < len(args) {
			i++
			flags = append(flags, args[i])
		}
	}

	var out []string
	switch {
	case len(positionals) == 3:
	case len(positionals) == 4 && positionals[0] == showCmd.Name():
		out = append(out, positionals[0])
		positionals = positionals[1:]
	default:
		return args
	}
	out = append(out, flags...)
	out = append(out, "--")
	return append(out, positionals...)
}

// lookupFlag reports whether arg is a flag of the root command or one of its
// subcommands, and whether it consumes the next argument as its value.
func lookupFlag(arg string) (takesValue, ok bool) {
	var find func(*pflag.FlagSet) *pflag.Flag
	inline := false
	switch {
	case strings.HasPrefix(arg, "--") && len(arg) > 2:
		name, _, hasValue := strings.Cut(arg[2:], "=")
		if name == "help" || name == "version" {
			return false, true
		}
		inline = hasValue
		find = func(fs *pflag.FlagSet) *pflag.Flag { return fs.Lookup(name) }
	case len(arg) == 2 && arg[0] == '-' && arg[1] != '-':
		if arg[1] == 'h' || arg[1] == 'v' {
			return false, true
		}
		find = func(fs *pflag.FlagSet) *pflag.Flag { return fs.ShorthandLookup(arg[1:]) }
	default:
		return false, false
	}

	for _, c := range append([]*cobra.Command{rootCmd}, rootCmd.Commands()...) {
		for _, fs := range []*pflag.FlagSet{c.PersistentFlags(), c.Flags()} {
			if f := find(fs); f != nil {
				return !inline && f.NoOptDefVal == "", true
			}
		}
	}
	return false, false
}

// Execute runs the root command and returns the process exit status.
func Execute(ctx context.Context, version string) int {
	rootCmd.SetArgs(countArgs(os.Args[1:]))
	if err := fang.Execute(ctx, rootCmd,
		fang.WithVersion(version),
		fang.WithErrorHandler(errorHandler),
	); err != nil {
		return 1
	}
	return 0
}

// executeArgs runs the root command with explicit arguments and streams,
// without the fang wrapper.
func executeArgs(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	rootCmd.SetArgs(countArgs(args))
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(os.Stdout)
		rootCmd.SetErr(os.Stderr)
	}()
	return rootCmd.ExecuteContext(ctx)
}
