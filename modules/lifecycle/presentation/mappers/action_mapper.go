package mappers

import (
	"errors"
	"fmt"

	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/domain/category"
	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/domain/line"
	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/presentation/controllers/dtos"
	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/services"
)

var (
	ErrUnknownAction = errors.New("unknown action type")
	ErrNotDateField  = errors.New("field is not a date field")
)

func ActionFromDTO(dto dtos.ActionDTO) (services.Action, error) {
	key := line.Key(dto.Key)
	switch dto.Type {
	case "append":
		return services.AppendLine{}, nil
	case "remove":
		return services.RemoveLine{Key: key}, nil
	case "change_category":
		return services.ChangeCategory{Key: key, Category: category.Normalize(dto.Category)}, nil
	case "change_date":
		f, ok := line.ParseField(dto.Field)
		if !ok || !f.IsDate() {
			return nil, fmt.Errorf("%w: %q", ErrNotDateField, dto.Field)
		}
		v, err := line.ParseOptionalDate(dto.Value)
		if err != nil {
			return nil, err
		}
		return services.ChangeDate{Key: key, Field: f, Value: v}, nil
	case "set_attachment":
		return services.SetAttachment{Key: key, Attachment: dto.Attachment}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAction, dto.Type)
}

func ActionsFromDTOs(in []dtos.ActionDTO) ([]services.Action, error) {
	out := make([]services.Action, 0, len(in))
	for i, dto := range in {
		a, err := ActionFromDTO(dto)
		if err != nil {
			return nil, fmt.Errorf("actions[%d]: %w", i, err)
		}
		out = append(out, a)
	}
	return out, nil
}
