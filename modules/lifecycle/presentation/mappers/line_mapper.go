package mappers

import (
	"fmt"

	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/domain/category"
	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/domain/line"
	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/presentation/controllers/dtos"
	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/services"
)

// LinesToDTOs renders the session list with the per-line view flags.
func LinesToDTOs(sess *services.Session) []dtos.LineDTO {
	lines := sess.State().Lines()
	out := make([]dtos.LineDTO, 0, len(lines))
	for _, r := range lines {
		out = append(out, dtos.LineDTO{
			Key:                         r.Key.String(),
			ID:                          r.ServerID,
			Position:                    r.Position,
			Category:                    r.Category.String(),
			StartDate:                   line.FormatDate(r.StartDate),
			EndDate:                     line.FormatDate(r.EndDate),
			EffectivityDate:             line.FormatDate(r.EffectivityDate),
			RegularizationDate:          line.FormatDate(r.RegularizationDate),
			Attachment:                  r.Attachment,
			Fresh:                       r.Fresh,
			CommittedRegularizationDate: line.FormatDate(r.SeededRegularization),
			Locked:                      sess.IsLocked(r.Position),
			Removable:                   sess.CanRemove(r.Key),
		})
	}
	return out
}

// LinesFromDTOs restores the records a client kept. Positions follow the
// slice order, not the echoed position.
func LinesFromDTOs(in []dtos.LineDTO) ([]line.Record, error) {
	out := make([]line.Record, 0, len(in))
	for i, dto := range in {
		r := line.Record{
			Key:        line.Key(dto.Key),
			Position:   i,
			ServerID:   dto.ID,
			Category:   category.Normalize(dto.Category),
			Attachment: dto.Attachment,
			Fresh:      dto.Fresh,
		}
		for _, f := range []struct {
			field line.Field
			value *string
		}{
			{line.FieldStartDate, dto.StartDate},
			{line.FieldEndDate, dto.EndDate},
			{line.FieldEffectivityDate, dto.EffectivityDate},
			{line.FieldRegularizationDate, dto.RegularizationDate},
		} {
			d, err := line.ParseOptionalDate(f.value)
			if err != nil {
				return nil, fmt.Errorf("lines[%d].%s: %w", i, f.field, err)
			}
			r = r.WithDate(f.field, d)
		}
		committed, err := line.ParseOptionalDate(dto.CommittedRegularizationDate)
		if err != nil {
			return nil, fmt.Errorf("lines[%d].committed_regularization_date: %w", i, err)
		}
		r.SeededRegularization = committed
		out = append(out, r)
	}
	return out, nil
}
