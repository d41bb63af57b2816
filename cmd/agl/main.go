package main

import (
	"context"
	"fmt"
	"os"

	"agl/internal/cli"
)

// version is stamped into every banner line; release builds override it with
// -ldflags "-X main.version=...".
var version = "0.1.0"

func main() {
	res, err := cli.Run(context.Background(), os.Args[1:], cli.Streams{Out: os.Stdout, Err: os.Stderr}, version)
	if err != nil {
		fmt.Fprintln(os.Stderr, "agl:", err)
	}
	os.Exit(res.ExitCode)
}
