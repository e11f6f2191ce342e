package main

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/pixperk/padlock/pkg/gateway"
	"github.com/pixperk/padlock/pkg/lock"
	"github.com/pixperk/padlock/pkg/logging"
	"github.com/pixperk/padlock/pkg/platform"
	"github.com/pixperk/padlock/pkg/types"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	flagLogLevel     = "log-level"
	flagMetricsAddr  = "metrics-addr"
	flagRetries      = "retries"
	flagRetryDelay   = "retry-delay"
	flagHealthSocket = "health-socket"

	envPrefix = "PADLOCK"

	// sysexits EX_TEMPFAIL, the lock stayed busy
	exitTimeout = 75
)

// exitError carries a process exit code out of a command
// a nil err exits silently
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return "exit status " + strconv.Itoa(e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

// app is the state shared by all commands
type app struct {
	v       *viper.Viper
	logger  *zap.Logger
	metrics *gateway.Server
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{v: viper.New(), logger: zap.NewNop()}

	root := &cobra.Command{
		Use:           "padlock",
		Short:         "Named cross-process locks on linux abstract sockets",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().String(flagLogLevel, "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String(flagMetricsAddr, "", "serve prometheus metrics on this address")

	root.AddCommand(newRunCmd(a), newHoldCmd(a), newStatusCmd(a))
	return root, a
}

// addAcquireFlags registers the retry flags shared by run and hold
func addAcquireFlags(fs *pflag.FlagSet) {
	fs.Int(flagRetries, lock.DefaultRetries, "extra attempts while the lock is busy, -1 retries forever")
	fs.Duration(flagRetryDelay, lock.DefaultRetryDelay, "pause between attempts")
}

func (a *app) setup(cmd *cobra.Command) error {
	if err := platform.Check(); err != nil {
		return &exitError{code: 1, err: errors.Wrap(err, "startup")}
	}

	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return errors.Wrap(err, "binding flags")
	}

	logger, err := logging.New(a.v.GetString(flagLogLevel))
	if err != nil {
		return errors.Wrap(err, "configuring logging")
	}
	a.logger = logger

	if addr := a.v.GetString(flagMetricsAddr); addr != "" {
		a.metrics = gateway.NewServer(addr)
		go func() {
			if err := a.metrics.Start(context.Background()); err != nil {
				a.logger.Error("metrics server failed", zap.Error(err))
			}
		}()
		a.logger.Info("serving metrics", zap.String("addr", addr))
	}

	return nil
}

func (a *app) acquireOptions() []lock.AcquireOption {
	return []lock.AcquireOption{
		lock.WithRetries(a.v.GetInt(flagRetries)),
		lock.WithRetryDelay(a.v.GetDuration(flagRetryDelay)),
	}
}

// acquire opens a handle on name and locks it, mapping a busy lock to exitTimeout
func (a *app) acquire(name string) (*lock.Handle, error) {
	h, err := lock.New(name, lock.WithLogger(a.logger))
	if err != nil {
		return nil, errors.Wrapf(err, "opening lock %q", name)
	}

	if err := h.Lock(a.acquireOptions()...); err != nil {
		if types.IsTimeout(err) {
			return nil, &exitError{code: exitTimeout, err: err}
		}
		return nil, errors.Wrapf(err, "locking %q", name)
	}
	return h, nil
}

func (a *app) release(h *lock.Handle) {
	if err := h.Close(); err != nil {
		a.logger.Error("unlock failed", zap.String("lock", h.Name()), zap.Error(err))
	}
}

func (a *app) shutdown() {
	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.metrics.Stop(ctx)
	}
	_ = a.logger.Sync()
}
