package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/domain/category"
	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/presentation/controllers/dtos"
	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/presentation/mappers"
	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/services"
)

type listOptions struct {
	input    string
	upstream upstreamOptions
}

// listInput reads a list document: the output of seed, or any object with
// mode, parent_id, lines and optional actions.
func listInput(cmd *cobra.Command, path string) (dtos.ListRequest, error) {
	var req dtos.ListRequest
	if err := readJSONInput(cmd.InOrStdin(), path, &req); err != nil {
		return req, err
	}
	if errs, ok := dtos.Ok(cmd.Context(), &req); !ok {
		return req, withCode(exitValidation, fmt.Errorf("invalid list document: %v", errs))
	}
	return req, nil
}

func resumeList(cmd *cobra.Command, global *globalOptions, opts listOptions) (*engine, *services.Session, []services.NoticeEvent, error) {
	table, err := global.table()
	if err != nil {
		return nil, nil, nil, err
	}
	req, err := listInput(cmd, opts.input)
	if err != nil {
		return nil, nil, nil, err
	}
	records, err := mappers.LinesFromDTOs(req.Lines)
	if err != nil {
		return nil, nil, nil, withCode(exitValidation, err)
	}
	actions, err := mappers.ActionsFromDTOs(req.Actions)
	if err != nil {
		return nil, nil, nil, withCode(exitValidation, err)
	}
	flagged, err := mappers.ErrorsFromDTO(req.Errors)
	if err != nil {
		return nil, nil, nil, withCode(exitValidation, err)
	}
	mode, _ := category.ParseMode(req.Mode)

	e, err := newEngine(opts.upstream)
	if err != nil {
		return nil, nil, nil, err
	}
	ctx, err := e.withContext(cmd.Context(), global.lang)
	if err != nil {
		e.close()
		return nil, nil, nil, err
	}
	cmd.SetContext(ctx)
	sess, notices, err := e.service.Resume(ctx, table.Kind, services.ResumeInput{
		Mode:     mode,
		ParentID: req.ParentID,
		Records:  records,
		Errors:   flagged,
		Actions:  actions,
	})
	if err != nil {
		e.close()
		return nil, nil, nil, withCode(exitValidation, err)
	}
	return e, sess, notices, nil
}

func newValidateCmd(global *globalOptions) *cobra.Command {
	var opts listOptions

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Replay the actions of a list document and validate the whole list",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, sess, notices, err := resumeList(cmd, global, opts)
			if err != nil {
				return err
			}
			defer e.close()

			ctx := cmd.Context()
			res := sess.ValidateAll()
			if err := writeJSONLine(cmd.OutOrStdout(), mappers.SessionToDTO(ctx, sess, notices, &res)); err != nil {
				return err
			}
			if !res.IsValid {
				return withCode(exitValidation, fmt.Errorf("list has %d violation(s)", res.Errors.Count()))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.input, "input", "", "List document JSON file, - for stdin (required)")
	return cmd
}

func newSubmitCmd(global *globalOptions) *cobra.Command {
	var opts listOptions
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Validate a list document and send it to the records API",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, sess, _, err := resumeList(cmd, global, opts)
			if err != nil {
				return err
			}
			defer e.close()

			ctx := cmd.Context()
			if dryRun {
				res := sess.ValidateAll()
				if !res.IsValid {
					_ = writeJSONLine(cmd.OutOrStdout(), mappers.SessionToDTO(ctx, sess, nil, &res))
					return withCode(exitValidation, fmt.Errorf("list has %d violation(s)", res.Errors.Count()))
				}
				return writeJSONLine(cmd.OutOrStdout(), mappers.PayloadToDTO(sess.Submission()))
			}

			payload, err := e.service.Submit(ctx, sess)
			if err == nil {
				return writeJSONLine(cmd.OutOrStdout(), mappers.PayloadToDTO(payload))
			}
			var invalid *services.InvalidListError
			if errors.As(err, &invalid) {
				res := invalid.Result
				_ = writeJSONLine(cmd.OutOrStdout(), mappers.SessionToDTO(ctx, sess, nil, &res))
				return withCode(exitValidation, err)
			}
			var svcErr *services.ServiceError
			if errors.As(err, &svcErr) {
				switch svcErr.Status {
				case http.StatusServiceUnavailable:
					return withCode(exitUsage, fmt.Errorf("%w: pass --api-url or set LIFECYCLE_API_URL", err))
				case http.StatusConflict:
					return withCode(exitValidation, err)
				}
			}
			return withCode(exitUpstream, err)
		},
	}
	cmd.Flags().StringVar(&opts.input, "input", "", "List document JSON file, - for stdin (required)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate and print the payload without sending it")
	addUpstreamFlags(cmd, &opts.upstream)
	return cmd
}
