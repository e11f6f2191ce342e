package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pixperk/padlock/pkg/client"
	"github.com/pixperk/padlock/pkg/registry"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newStatusCmd(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "status NAME",
		Short: "Report whether a lock is held",
		Long: `Print whether NAME is bound and by which process.
Exits 0 when the lock is held and 1 when it is free.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := registry.ValidateName(name); err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			bound, err := registry.Bound(name)
			if err != nil {
				return errors.Wrap(err, "listing sockets")
			}
			if !bound {
				fmt.Fprintf(out, "%s: free\n", name)
				return &exitError{code: 1}
			}

			pid, err := registry.Owner(name)
			switch {
			case err == nil:
				fmt.Fprintf(out, "%s: held by pid %d\n", name, pid)
			case errors.Is(err, registry.ErrNotBound):
				//released between the listing and the probe
				fmt.Fprintf(out, "%s: free\n", name)
				return &exitError{code: 1}
			default:
				fmt.Fprintf(out, "%s: held\n", name)
			}

			if path := a.v.GetString(flagHealthSocket); path != "" {
				if err := reportHolder(cmd.Context(), out, path, name); err != nil {
					return err
				}
			}
			return nil
		},
	}

	c.Flags().String(flagHealthSocket, "", "also ask the holder listening on this unix socket")
	return c
}

func reportHolder(ctx context.Context, out io.Writer, path, name string) error {
	c, err := client.NewClient("unix:" + path)
	if err != nil {
		return errors.Wrap(err, "connecting to holder")
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	held, err := c.Held(ctx, name)
	if err != nil {
		return errors.Wrap(err, "asking holder")
	}
	if held {
		fmt.Fprintf(out, "%s: holder at %s reports held\n", name, path)
	} else {
		fmt.Fprintf(out, "%s: holder at %s reports released\n", name, path)
	}
	return nil
}
