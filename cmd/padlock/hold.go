package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/pixperk/padlock/pkg/server"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newHoldCmd(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "hold NAME",
		Short: "Hold a lock until interrupted",
		Long: `Acquire NAME and keep it until SIGINT or SIGTERM.
With --health-socket the holder answers grpc health checks, one service per lock name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			session := uuid.New()
			a.logger = a.logger.With(zap.Stringer("session", session))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			h, err := a.acquire(name)
			if err != nil {
				return err
			}
			defer a.release(h)

			if path := a.v.GetString(flagHealthSocket); path != "" {
				srv, err := serveHealth(a, path)
				if err != nil {
					return err
				}
				srv.Track(name, h.State())
				defer func() {
					srv.Track(name, h.State())
					srv.Stop()
				}()
			}

			fmt.Fprintf(cmd.OutOrStdout(), "holding %s (pid %d, session %s)\n", name, os.Getpid(), session)
			a.logger.Info("holding lock", zap.String("lock", name))

			<-ctx.Done()
			a.logger.Info("releasing lock", zap.String("lock", name))
			return nil
		},
	}

	addAcquireFlags(c.Flags())
	c.Flags().String(flagHealthSocket, "", "serve grpc health checks on this unix socket path")
	return c
}

func serveHealth(a *app, path string) (*server.Server, error) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "removing old socket %s", path)
	}
	lis, err := net.Listen("unix", path)
	if err != nil {
		return nil, errors.Wrapf(err, "listening on %s", path)
	}

	srv := server.NewServer(a.logger)
	go func() {
		if err := srv.Serve(lis); err != nil {
			a.logger.Error("health server failed", zap.Error(err))
		}
	}()
	a.logger.Info("serving health checks", zap.String("socket", path))
	return srv, nil
}
