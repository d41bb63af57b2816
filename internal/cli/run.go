package cli

import (
	"context"
	"errors"

	"agl/internal/compiler"
)

// Run is the high-level entrypoint used by main and by black-box tests. args
// excludes argv[0].
func Run(ctx context.Context, args []string, streams Streams, version string) (CLIResult, error) {
	return RunWithCompiler(ctx, args, streams, version, compiler.Default)
}

// RunWithCompiler is Run with an injected compiler.
func RunWithCompiler(ctx context.Context, args []string, streams Streams, version string, compile compiler.Invoker) (CLIResult, error) {
	res := CLIResult{ExitCode: ExitSuccess}
	cmd := NewCommand(version, streams, compile, &res)
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(ctx); err != nil {
		var invErr *InvocationError
		if errors.As(err, &invErr) {
			res.ExitCode = ExitCode(err)
		} else if res.ExitCode == ExitSuccess {
			res.ExitCode = ExitInternalError
		}
		return res, err
	}
	return res, nil
}
