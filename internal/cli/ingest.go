package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/eventnav/internal/harness"
	"github.com/roach88/eventnav/internal/ir"
)

// IngestOptions holds flags for the ingest command.
type IngestOptions struct {
	*RootOptions
	Now string // RFC 3339 reference for relative "at" offsets
}

// IngestResult is the JSON payload of the ingest command.
type IngestResult struct {
	File   string        `json:"file"`
	Events []ir.EventRef `json:"events"`
}

// NewIngestCommand creates the ingest command.
func NewIngestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IngestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ingest <events.yaml>",
		Short: "Write events from a YAML file",
		Long: `Write the events listed in a YAML file to the configured store.

Events without an id get a random one. Relative "at" offsets such as -5m
resolve against --now (default: the current time). Events whose
(project_id, event_id) already exist are skipped, so re-running an ingest
is harmless.

Example file:
  events:
    - id: a
      project: 1
      at: -10m
      fingerprint: [db-timeout]
      attrs: {platform: python}

Examples:
  eventnav ingest events.yaml
  eventnav ingest events.yaml --now 2026-01-01T00:00:00Z --db events.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Now, "now", "", "reference time for relative offsets (RFC 3339)")

	return cmd
}

func runIngest(cmd *cobra.Command, opts *IngestOptions, path string) error {
	out := opts.formatter(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	now := time.Now().UTC()
	if opts.Now != "" {
		t, err := time.Parse(time.RFC3339, opts.Now)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --now", err)
		}
		now = t.UTC()
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	events, err := harness.LoadEvents(path, now, ir.NewEventID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load events", err)
	}

	logger := opts.logger(cfg, cmd.ErrOrStderr())
	s, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.WriteEvents(ctx, events...); err != nil {
		return WrapExitError(ExitFailure, "failed to write events", err).WithErrCode(ErrCodeStore)
	}
	out.VerboseLog("wrote %d events to %s", len(events), cfg.DSN)

	result := IngestResult{File: path, Events: make([]ir.EventRef, 0, len(events))}
	for _, e := range events {
		result.Events = append(result.Events, ir.EventRef{
			ProjectID: fmt.Sprint(e.ProjectID),
			EventID:   e.EventID,
		})
	}
	return out.Success(result, fmt.Sprintf("ingested %d events from %s", len(events), path))
}
