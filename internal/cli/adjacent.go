package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/eventnav/internal/eventstore"
	"github.com/roach88/eventnav/internal/ir"
)

// AdjacentResult is the JSON payload of the adjacent command.
type AdjacentResult struct {
	Reference string       `json:"reference"`
	Prev      *ir.EventRef `json:"prev"`
	Next      *ir.EventRef `json:"next"`
}

func (r AdjacentResult) text() string {
	prev, next := "-", "-"
	if r.Prev != nil {
		prev = r.Prev.String()
	}
	if r.Next != nil {
		next = r.Next.String()
	}
	return "prev: " + prev + "\nnext: " + next
}

// NewAdjacentCommand creates the adjacent command.
func NewAdjacentCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LookupOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "adjacent <project-id> <event-id>",
		Short: "Print both neighbours of an event",
		Long: `Resolve the previous and next events of a reference event.

Both lookups run concurrently with the same filter; either side prints "-"
when there is no neighbour.

Examples:
  eventnav adjacent 1 0f3c2a...
  eventnav adjacent 1 0f3c2a... --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdjacent(cmd, opts, args)
		},
	}
	opts.bindFlags(cmd)

	return cmd
}

func runAdjacent(cmd *cobra.Command, opts *LookupOptions, args []string) error {
	out := opts.formatter(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	projectID, eventID, err := parseReference(args)
	if err != nil {
		return err
	}
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	filter, err := opts.filter(time.Now())
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid lookup flags", err)
	}

	logger := opts.logger(cfg, cmd.ErrOrStderr())
	s, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	ref, err := loadReference(ctx, s, projectID, eventID)
	if err != nil {
		return err
	}

	storage := newStorage(s, cfg, logger)
	result := AdjacentResult{Reference: ir.EventRef{ProjectID: args[0], EventID: eventID}.String()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		result.Prev, err = storage.GetAdjacentEventID(gctx, ref, eventstore.Prev, filter)
		return err
	})
	g.Go(func() error {
		var err error
		result.Next, err = storage.GetAdjacentEventID(gctx, ref, eventstore.Next, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return lookupError(err)
	}

	return out.Success(result, result.text())
}
