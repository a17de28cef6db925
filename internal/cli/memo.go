package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/memonest/internal/nest"
	"github.com/mesh-intelligence/memonest/internal/output"
	"github.com/mesh-intelligence/memonest/internal/pipeline"
	"github.com/mesh-intelligence/memonest/internal/service"
	"github.com/mesh-intelligence/memonest/pkg/types"
)

// sessionFunc supplies the session a memo command runs against.
type sessionFunc func(ctx context.Context) (*nest.Session, error)

// memoOp runs one memo use case.
type memoOp func(ctx context.Context, svc *service.MemoService, rec pipeline.Record) error

// trackingOutput forwards to a sink and remembers whether an error was
// emitted, so the command can exit non-zero.
type trackingOutput struct {
	sink   types.Output
	failed bool
}

func (t *trackingOutput) Output(data map[string]any) {
	t.sink.Output(data)
}

func (t *trackingOutput) ErrorOutput(code int, message string) {
	t.failed = true
	t.sink.ErrorOutput(code, message)
}

// newMemoCmds returns the create, get, list, update and delete commands.
func newMemoCmds(a *app, session sessionFunc) []*cobra.Command {
	return []*cobra.Command{
		newCreateCmd(a, session),
		newGetCmd(a, session),
		newListCmd(a, session),
		newUpdateCmd(a, session),
		newDeleteCmd(a, session),
	}
}

func newCreateCmd(a *app, session sessionFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new memo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMemo(cmd, session, recordFromFlags(cmd, types.FieldTitle),
				func(ctx context.Context, svc *service.MemoService, rec pipeline.Record) error {
					return svc.CreateMemo(ctx, rec)
				})
		},
	}
	cmd.Flags().String(types.FieldTitle, "", "title of the memo")
	return cmd
}

func newGetCmd(a *app, session sessionFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Get a memo by ID",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMemo(cmd, session, recordFromFlags(cmd, types.FieldID),
				func(ctx context.Context, svc *service.MemoService, rec pipeline.Record) error {
					return svc.GetMemo(ctx, rec)
				})
		},
	}
	cmd.Flags().String(types.FieldID, "", "ID of the memo")
	return cmd
}

func newListCmd(a *app, session sessionFunc) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"get_all"},
		Short:   "List all memos",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMemo(cmd, session, pipeline.Record{},
				func(ctx context.Context, svc *service.MemoService, _ pipeline.Record) error {
					return svc.GetMemos(ctx)
				})
		},
	}
}

func newUpdateCmd(a *app, session sessionFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update the title of a memo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMemo(cmd, session, recordFromFlags(cmd, types.FieldID, types.FieldTitle),
				func(ctx context.Context, svc *service.MemoService, rec pipeline.Record) error {
					return svc.UpdateMemo(ctx, rec)
				})
		},
	}
	cmd.Flags().String(types.FieldID, "", "ID of the memo")
	cmd.Flags().String(types.FieldTitle, "", "new title of the memo")
	return cmd
}

func newDeleteCmd(a *app, session sessionFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a memo by ID",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMemo(cmd, session, recordFromFlags(cmd, types.FieldID),
				func(ctx context.Context, svc *service.MemoService, rec pipeline.Record) error {
					return svc.DeleteMemo(ctx, rec)
				})
		},
	}
	cmd.Flags().String(types.FieldID, "", "ID of the memo")
	return cmd
}

// recordFromFlags builds the raw record from the named flags. Flags the user
// did not set are left out, so the pipeline reports them as missing.
func recordFromFlags(cmd *cobra.Command, names ...string) pipeline.Record {
	rec := pipeline.Record{}
	for _, name := range names {
		if !cmd.Flags().Changed(name) {
			continue
		}
		if v, err := cmd.Flags().GetString(name); err == nil {
			rec[name] = v
		}
	}
	return rec
}

// runMemo runs op on a session with a console sink on the command's stdout.
// An emitted error makes the command exit with the user error code.
func (a *app) runMemo(cmd *cobra.Command, session sessionFunc, rec pipeline.Record, op memoOp) error {
	s, err := session(cmd.Context())
	if err != nil {
		return err
	}

	sink := &trackingOutput{sink: output.NewConsole(cmd.OutOrStdout(), a.flags.jsonMode)}
	s.Service.SetOutput(sink)

	if err := op(cmd.Context(), s.Service, rec); err != nil {
		return sysError(err)
	}
	if sink.failed {
		return userError(nil)
	}
	return nil
}
