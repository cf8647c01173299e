package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/domain/line"
	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/presentation/mappers"
)

type seedOptions struct {
	mode     string
	input    string
	parentID string
	fetch    bool
	upstream upstreamOptions
}

func newSeedCmd(global *globalOptions) *cobra.Command {
	var opts seedOptions

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed a line list from server records and print the session",
		Long: "Reads server records (a bare array or an object wrapping records/items/data) from --input,\n" +
			"or fetches them from the records API with --fetch, and prints the seeded list.\n" +
			"The output can be edited and fed back to validate or submit.",
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := global.table()
			if err != nil {
				return err
			}
			mode, err := parseMode(opts.mode)
			if err != nil {
				return err
			}
			parentID, err := parseParentID(opts.parentID)
			if err != nil {
				return err
			}

			e, err := newEngine(opts.upstream)
			if err != nil {
				return err
			}
			defer e.close()
			ctx, err := e.withContext(cmd.Context(), global.lang)
			if err != nil {
				return err
			}

			var raw []byte
			if opts.fetch {
				if e.client == nil {
					return withCode(exitUsage, fmt.Errorf("--fetch needs --api-url or LIFECYCLE_API_URL"))
				}
				if parentID.IsZero() {
					return withCode(exitUsage, fmt.Errorf("--fetch needs --parent-id"))
				}
				raw, err = e.client.Fetch(ctx, kind.Kind, parentID)
				if err != nil {
					return withCode(exitUpstream, err)
				}
			} else {
				raw, err = readInput(cmd.InOrStdin(), opts.input)
				if err != nil {
					return err
				}
			}

			sess, err := e.service.Open(ctx, kind.Kind, mode, parentID, raw)
			if err != nil {
				return withCode(exitUsage, err)
			}
			return writeJSONLine(cmd.OutOrStdout(), mappers.SessionToDTO(ctx, sess, nil, nil))
		},
	}
	cmd.Flags().StringVar(&opts.mode, "mode", "edit", "Mode: create | edit | view")
	cmd.Flags().StringVar(&opts.input, "input", "", "Server records JSON file, - for stdin")
	cmd.Flags().StringVar(&opts.parentID, "parent-id", "", "Id of the owning record (empty when it is being created)")
	cmd.Flags().BoolVar(&opts.fetch, "fetch", false, "Fetch the records from the records API instead of --input")
	addUpstreamFlags(cmd, &opts.upstream)
	return cmd
}

func addUpstreamFlags(cmd *cobra.Command, opts *upstreamOptions) {
	cmd.Flags().StringVar(&opts.apiURL, "api-url", "", "Records API base URL (default: LIFECYCLE_API_URL)")
	cmd.Flags().StringVar(&opts.token, "token", "", "Records API token (default: LIFECYCLE_API_TOKEN)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Records API timeout (default: LIFECYCLE_API_TIMEOUT)")
}

// parseParentID accepts a number or a string id; numbers stay numbers on the
// wire.
func parseParentID(v string) (line.RecordID, error) {
	var id line.RecordID
	v = strings.TrimSpace(v)
	if v == "" {
		return id, nil
	}
	raw := []byte(v)
	if !json.Valid(raw) {
		quoted, err := json.Marshal(v)
		if err != nil {
			return id, withCode(exitUsage, err)
		}
		raw = quoted
	}
	if err := json.Unmarshal(raw, &id); err != nil {
		return id, withCode(exitUsage, fmt.Errorf("invalid --parent-id: %w", err))
	}
	return id, nil
}
