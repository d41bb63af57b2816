package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"agl/internal/compiler"
)

// Streams are the user-facing outputs of one invocation.
type Streams struct {
	Out io.Writer
	Err io.Writer
}

// NewCommand builds the agl root command. The outcome of the run is stored
// in *res so callers get the exit code even when RunE returns an error.
func NewCommand(version string, streams Streams, compile compiler.Invoker, res *CLIResult) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "agl [flags] <input.agl>...",
		Short:   "A DSL for writing GameShark codes",
		Version: version,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 {
				return invalidInvocationf("at least one input file is required")
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := loadConfig(cmd)
			if err != nil {
				res.ExitCode = ExitCode(err)
				return err
			}
			inv, err := ParseInvocation(v, args, version)
			if err != nil {
				res.ExitCode = ExitCode(err)
				return err
			}
			out, err := ExecuteWithCompiler(cmd.Context(), inv, streams, compile)
			*res = out
			return err
		},
	}
	cmd.SetOut(streams.Out)
	cmd.SetErr(streams.Err)
	cmd.SetVersionTemplate("agl version {{.Version}}\n")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return invalidInvocationf("%v", err)
	})

	f := cmd.Flags()
	f.StringP(keyMode, "m", "", fmt.Sprintf("target console (%s)", compiler.ModeNames()))
	f.BoolP(keyConcat, "c", false, "concatenate all inputs into a single output file")
	f.StringP(keyOutputFile, "o", "", "concatenation target (only used with --concat)")
	f.Bool(keyStrictPaths, false, "fail before writing if two units or a source share an output path")
	f.String(keyTrace, "", "write the canonical run trace to this path")
	f.String(keyRecordDir, "", "persist run records under <dir>/.agl/runs")
	f.String(keyLogLevel, "warn", "log level: debug|info|warn|error")
	f.String("config", "", "config file (default ./.agl.yaml if present)")
	f.String("env-file", "", "dotenv file to load (default ./.env if present)")
	return cmd
}
