package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/eventnav/internal/eventstore"
	"github.com/roach88/eventnav/internal/querysql"
)

// ExplainOptions holds flags for the explain command.
type ExplainOptions struct {
	LookupOptions
	Direction string
}

// ExplainResult is the JSON payload of the explain command.
type ExplainResult struct {
	Dialect  string `json:"dialect"`
	Referrer string `json:"referrer,omitempty"`
	SQL      string `json:"sql,omitempty"`
	Params   []any  `json:"params,omitempty"`
}

func (r ExplainResult) text() string {
	if r.SQL == "" {
		return "no query: reference event not found"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "-- %s (%s)\n%s\n", r.Referrer, r.Dialect, r.SQL)
	for i, p := range r.Params {
		fmt.Fprintf(&b, "-- param %d: %v\n", i+1, p)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExplainOptions{LookupOptions: LookupOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "explain <project-id> <event-id>",
		Short: "Print the SQL a lookup would run",
		Long: `Build the neighbour query for a reference event and print it compiled
for the configured driver, with its parameters. Nothing is executed
besides reading the reference event.

Examples:
  eventnav explain 1 0f3c2a... --direction prev
  eventnav explain 1 0f3c2a... --driver postgres --db postgres://...`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(cmd, opts, args)
		},
	}
	opts.bindFlags(cmd)
	cmd.Flags().StringVarP(&opts.Direction, "direction", "d", "next", "next or prev")

	return cmd
}

func runExplain(cmd *cobra.Command, opts *ExplainOptions, args []string) error {
	out := opts.formatter(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	dir, err := eventstore.ParseDirection(opts.Direction)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --direction", err)
	}
	projectID, eventID, err := parseReference(args)
	if err != nil {
		return err
	}
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	dialect, err := dialectFor(cfg.Driver)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid driver", err)
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

	result := ExplainResult{Dialect: dialect.Name()}
	q, err := newStorage(s, cfg, logger).BuildQuery(ref, dir, filter)
	if err != nil {
		return lookupError(err)
	}
	if q != nil {
		result.Referrer = q.Referrer
		result.SQL, result.Params, err = querysql.NewSQLCompiler(dialect).Compile(*q)
		if err != nil {
			return lookupError(err)
		}
	}

	return out.Success(result, result.text())
}
