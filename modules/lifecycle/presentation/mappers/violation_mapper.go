package mappers

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/domain/line"
	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/presentation/controllers/dtos"
	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/services"
	"github.com/iota-uz/hrm-lifecycle/pkg/intl"
)

func ViolationToDTO(ctx context.Context, v services.Violation) dtos.ViolationDTO {
	return dtos.ViolationDTO{
		Kind:    string(v.Kind),
		Code:    v.Code,
		Message: intl.Localize(ctx, "Lifecycle.Errors."+v.Code, v.Params, v.Message),
		Params:  v.Params,
	}
}

// ErrorsToDTO keys the error map by position string, as JSON objects need.
func ErrorsToDTO(ctx context.Context, errs services.ErrorMap) map[string]map[string]dtos.ViolationDTO {
	out := make(map[string]map[string]dtos.ViolationDTO, len(errs))
	for pos, fields := range errs {
		if len(fields) == 0 {
			continue
		}
		line := make(map[string]dtos.ViolationDTO, len(fields))
		for f, v := range fields {
			line[string(f)] = ViolationToDTO(ctx, v)
		}
		out[strconv.Itoa(pos)] = line
	}
	return out
}

var ErrBadErrorKey = errors.New("unknown error entry")

// ErrorsFromDTO reads back an echoed error map. Only the position and field
// of each entry matter; the violations are checked again on resume.
func ErrorsFromDTO(in map[string]map[string]dtos.ViolationDTO) (services.ErrorMap, error) {
	out := services.ErrorMap{}
	for rawPos, fields := range in {
		pos, err := strconv.Atoi(rawPos)
		if err != nil || pos < 0 {
			return nil, fmt.Errorf("errors[%q]: %w", rawPos, ErrBadErrorKey)
		}
		for rawField, v := range fields {
			f, ok := line.ParseField(rawField)
			if !ok {
				return nil, fmt.Errorf("errors[%q][%q]: %w", rawPos, rawField, ErrBadErrorKey)
			}
			out.Set(pos, f, services.Violation{
				Kind:    services.ViolationKind(v.Kind),
				Code:    v.Code,
				Message: v.Message,
				Params:  v.Params,
			})
		}
	}
	return out, nil
}

func NoticesToDTOs(ctx context.Context, notices []services.NoticeEvent) []dtos.NoticeDTO {
	if len(notices) == 0 {
		return nil
	}
	out := make([]dtos.NoticeDTO, 0, len(notices))
	for _, n := range notices {
		out = append(out, dtos.NoticeDTO{
			Key:       n.Key.String(),
			Position:  n.Position,
			Field:     string(n.Field),
			Violation: ViolationToDTO(ctx, n.Violation),
		})
	}
	return out
}
