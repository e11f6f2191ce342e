package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:]))
}

func run(ctx context.Context, args []string) int {
	root, a := newRootCmd()
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	a.shutdown()

	if err == nil {
		return 0
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintln(os.Stderr, "padlock:", ee.err)
		}
		return ee.code
	}

	fmt.Fprintln(os.Stderr, "padlock:", err)
	return 1
}
