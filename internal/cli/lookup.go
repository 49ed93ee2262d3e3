package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/eventnav/internal/eventstore"
	"github.com/roach88/eventnav/internal/harness"
	"github.com/roach88/eventnav/internal/ir"
	"github.com/roach88/eventnav/internal/queryir"
)

// LookupOptions holds the flags shared by next, prev, adjacent and explain.
type LookupOptions struct {
	*RootOptions
	FilterKeys []string // column=v1,v2
	Where      []string // "<column> <op> <value>"
	Start      string   // offset or RFC 3339
	End        string   // offset or RFC 3339
}

func (o *LookupOptions) bindFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&o.FilterKeys, "filter-key", nil, "restrict a column to values: column=v1,v2 (repeatable)")
	cmd.Flags().StringArrayVar(&o.Where, "where", nil, `extra condition, e.g. "platform = python" (repeatable)`)
	cmd.Flags().StringVar(&o.Start, "start", "", "window start (RFC 3339 or offset like -24h)")
	cmd.Flags().StringVar(&o.End, "end", "", "window end (RFC 3339 or offset like -1h)")
}

// filter turns the flags into an eventstore.Filter; offsets are relative
// to now.
func (o *LookupOptions) filter(now time.Time) (eventstore.Filter, error) {
	var f eventstore.Filter

	if len(o.FilterKeys) > 0 {
		f.FilterKeys = make(map[string][]ir.IRValue, len(o.FilterKeys))
		for _, raw := range o.FilterKeys {
			col, values, err := queryir.ParseFilterKey(raw)
			if err != nil {
				return f, err
			}
			f.FilterKeys[col] = append(f.FilterKeys[col], values...)
		}
	}

	conds, err := queryir.ParseConditions(o.Where)
	if err != nil {
		return f, err
	}
	f.Conditions = conds

	if o.Start != "" {
		if f.Start, err = harness.ParseTime(o.Start, now); err != nil {
			return f, fmt.Errorf("--start: %w", err)
		}
	}
	if o.End != "" {
		if f.End, err = harness.ParseTime(o.End, now); err != nil {
			return f, fmt.Errorf("--end: %w", err)
		}
	}
	return f, nil
}

// parseReference parses the <project_id> <event_id> arguments.
func parseReference(args []string) (int64, string, error) {
	projectID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, "", NewExitError(ExitCommandError, fmt.Sprintf("invalid project id %q", args[0]))
	}
	if args[1] == "" {
		return 0, "", NewExitError(ExitCommandError, "event id must not be empty")
	}
	return projectID, args[1], nil
}

// LookupResult is the JSON payload of a single neighbour lookup.
type LookupResult struct {
	Reference string       `json:"reference"`
	Direction string       `json:"direction"`
	Neighbour *ir.EventRef `json:"neighbour"`
}

func (r LookupResult) text() string {
	if r.Neighbour == nil {
		return fmt.Sprintf("no %s event", r.Direction)
	}
	return r.Neighbour.String()
}

// NewLookupCommand creates the next or prev command.
func NewLookupCommand(rootOpts *RootOptions, direction string) *cobra.Command {
	opts := &LookupOptions{RootOptions: rootOpts}
	dir, err := eventstore.ParseDirection(direction)
	if err != nil {
		panic(err)
	}

	cmd := &cobra.Command{
		Use:   direction + " <project-id> <event-id>",
		Short: fmt.Sprintf("Print the %s event in (timestamp, event_id) order", direction),
		Long: fmt.Sprintf(`Print the %[1]s event relative to a reference event.

A reference that does not exist, or has no %[1]s event inside the window,
prints "no %[1]s event" and exits 0.

Exit codes:
  0 - Lookup completed (neighbour found or not)
  1 - Lookup failed (invalid window, rejected filter, store error)
  2 - Command error (bad arguments, unreachable store)

Examples:
  eventnav %[1]s 1 0f3c2a...
  eventnav %[1]s 1 0f3c2a... --filter-key project_id=1,2
  eventnav %[1]s 1 0f3c2a... --where "group_id = 9ac1..." --start -24h`, direction),
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookup(cmd, opts, dir, args)
		},
	}
	opts.bindFlags(cmd)

	return cmd
}

func runLookup(cmd *cobra.Command, opts *LookupOptions, dir eventstore.Direction, args []string) error {
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
	out.VerboseLog("reference found: %t", ref != nil)

	storage := newStorage(s, cfg, logger)
	neighbour, err := storage.GetAdjacentEventID(ctx, ref, dir, filter)
	if err != nil {
		return lookupError(err)
	}

	result := LookupResult{
		Reference: ir.EventRef{ProjectID: args[0], EventID: eventID}.String(),
		Direction: dir.String(),
		Neighbour: neighbour,
	}
	return out.Success(result, result.text())
}

// lookupError maps a failed lookup to ExitFailure with its error code.
func lookupError(err error) error {
	code := ErrCodeGeneric
	switch {
	case eventstore.IsInvalidWindow(err):
		code = ErrCodeInvalidWindow
	case eventstore.IsInvalidQuery(err):
		code = ErrCodeInvalidQuery
	case eventstore.IsQueryFailed(err):
		code = ErrCodeQueryFailed
	}
	return WrapExitError(ExitFailure, "lookup failed", err).WithErrCode(code)
}
