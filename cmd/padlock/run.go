package main

import (
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRunCmd(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "run NAME -- COMMAND [ARGS...]",
		Short: "Run a command while holding a lock",
		Long: `Acquire NAME, run COMMAND, then release NAME.
Exits with the status of COMMAND, or 75 when the lock stayed busy.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, command := args[0], args[1:]

			h, err := a.acquire(name)
			if err != nil {
				return err
			}
			defer a.release(h)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			child := exec.CommandContext(ctx, command[0], command[1:]...)
			child.Stdin = cmd.InOrStdin()
			child.Stdout = cmd.OutOrStdout()
			child.Stderr = cmd.ErrOrStderr()

			a.logger.Debug("running", zap.String("lock", name), zap.Strings("command", command))
			if err := child.Run(); err != nil {
				var ee *exec.ExitError
				if errors.As(err, &ee) {
					return &exitError{code: ee.ExitCode()}
				}
				return errors.Wrapf(err, "running %s", command[0])
			}
			return nil
		},
	}

	addAcquireFlags(c.Flags())
	return c
}
