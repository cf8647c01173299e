package mappers

import (
	"context"
	"encoding/json"

	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/domain/category"
	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/presentation/controllers/dtos"
	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/services"
	"github.com/iota-uz/hrm-lifecycle/pkg/intl"
)

// SessionToDTO renders the session. A non-nil result adds is_valid and
// replaces the incremental errors with the full validation.
func SessionToDTO(ctx context.Context, sess *services.Session, notices []services.NoticeEvent, result *services.Result) dtos.SessionDTO {
	errs := sess.Errors()
	var valid *bool
	if result != nil {
		errs = result.Errors
		v := result.IsValid
		valid = &v
	}
	allowed := sess.Allowed()
	values := make([]string, 0, len(allowed))
	for _, c := range allowed {
		values = append(values, c.String())
	}
	return dtos.SessionDTO{
		Kind:      sess.Table().Kind,
		Mode:      string(sess.Mode()),
		ParentID:  sess.ParentID(),
		Lines:     LinesToDTOs(sess),
		CanAppend: sess.CanAppend(),
		Allowed:   values,
		Errors:    ErrorsToDTO(ctx, errs),
		IsValid:   valid,
		Notices:   NoticesToDTOs(ctx, notices),
	}
}

func CategoriesToDTO(ctx context.Context, table *category.Table, mode category.Mode) dtos.CategoriesDTO {
	all := table.Categories()
	out := dtos.CategoriesDTO{
		Kind:       table.Kind,
		Mode:       string(mode),
		Terminal:   table.Terminal.String(),
		Precursor:  table.Precursor.String(),
		MaxLines:   table.MaxLines,
		Removal:    "any",
		Categories: make([]dtos.CategoryDTO, 0, len(all)),
	}
	if table.Removal == category.RemoveLastOnly {
		out.Removal = "last_only"
	}
	for _, c := range all {
		profile, _ := json.Marshal(table.Profile(c))
		out.Categories = append(out.Categories, dtos.CategoryDTO{
			Value:    c.String(),
			Label:    intl.Localize(ctx, "Lifecycle.Categories."+c.String(), nil, c.String()),
			Group:    string(table.Group(c)),
			Profile:  profile,
			Terminal: table.IsTerminal(c),
			Allowed:  table.IsAllowed(c, mode),
		})
	}
	return out
}

func PayloadToDTO(p services.Payload) dtos.SubmissionDTO {
	return dtos.SubmissionDTO{Method: p.Method, Records: p.Records}
}
