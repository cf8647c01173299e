package dtos

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
	zhtranslations "github.com/go-playground/validator/v10/translations/zh"

	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/domain/line"
	"github.com/iota-uz/hrm-lifecycle/pkg/intl"
)

type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Meta    map[string]string `json:"meta,omitempty"`
	Details any               `json:"details,omitempty"`
}

// LineDTO is a line as exchanged with stateless clients. Key, fresh and
// committed_regularization_date are session bookkeeping the client echoes
// back unchanged.
type LineDTO struct {
	Key                         string          `json:"key,omitempty" validate:"omitempty,max=64"`
	ID                          line.RecordID   `json:"id"`
	Position                    int             `json:"position"`
	Category                    string          `json:"category" validate:"max=64"`
	StartDate                   *string         `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate                     *string         `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	EffectivityDate             *string         `json:"effectivity_date" validate:"omitempty,datetime=2006-01-02"`
	RegularizationDate          *string         `json:"regularization_date" validate:"omitempty,datetime=2006-01-02"`
	Attachment                  json.RawMessage `json:"attachment,omitempty"`
	Fresh                       bool            `json:"fresh"`
	CommittedRegularizationDate *string         `json:"committed_regularization_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Locked                      bool            `json:"locked"`
	Removable                   bool            `json:"removable"`
}

type ActionDTO struct {
	Type       string          `json:"type" validate:"required,oneof=append remove change_category change_date set_attachment"`
	Key        string          `json:"key" validate:"required_unless=Type append,max=64"`
	Category   string          `json:"category" validate:"max=64"`
	Field      string          `json:"field" validate:"required_if=Type change_date"`
	Value      *string         `json:"value" validate:"omitempty,datetime=2006-01-02"`
	Attachment json.RawMessage `json:"attachment,omitempty"`
}

type CategoriesQuery struct {
	Mode string `form:"mode" validate:"omitempty,oneof=create edit view"`
}

type SeedRequest struct {
	Mode     string          `json:"mode" validate:"required,oneof=create edit view"`
	ParentID line.RecordID   `json:"parent_id"`
	Records  json.RawMessage `json:"records"`
}

// ListRequest carries a kept list plus the actions to replay on it.
type ListRequest struct {
	Mode     string        `json:"mode" validate:"required,oneof=create edit view"`
	ParentID line.RecordID `json:"parent_id"`
	Lines    []LineDTO     `json:"lines" validate:"required,min=1,dive"`
	Actions  []ActionDTO   `json:"actions" validate:"dive"`

	// Errors echoes the errors of the previous response so fields that were
	// already flagged keep reporting missing values.
	Errors map[string]map[string]ViolationDTO `json:"errors,omitempty"`
}

type ViolationDTO struct {
	Kind    string            `json:"kind"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Params  map[string]string `json:"params,omitempty"`
}

type NoticeDTO struct {
	Key       string       `json:"key"`
	Position  int          `json:"position"`
	Field     string       `json:"field"`
	Violation ViolationDTO `json:"violation"`
}

// SessionDTO is the list after seeding or replaying actions.
type SessionDTO struct {
	Kind      string                             `json:"kind"`
	Mode      string                             `json:"mode"`
	ParentID  line.RecordID                      `json:"parent_id"`
	Lines     []LineDTO                          `json:"lines"`
	CanAppend bool                               `json:"can_append"`
	Allowed   []string                           `json:"allowed"`
	Errors    map[string]map[string]ViolationDTO `json:"errors"`
	IsValid   *bool                              `json:"is_valid,omitempty"`
	Notices   []NoticeDTO                        `json:"notices,omitempty"`
}

type CategoryDTO struct {
	Value    string          `json:"value"`
	Label    string          `json:"label"`
	Group    string          `json:"group"`
	Profile  json.RawMessage `json:"profile"`
	Terminal bool            `json:"terminal"`
	Allowed  bool            `json:"allowed"`
}

type CategoriesDTO struct {
	Kind       string        `json:"kind"`
	Mode       string        `json:"mode"`
	Terminal   string        `json:"terminal"`
	Precursor  string        `json:"precursor,omitempty"`
	MaxLines   int           `json:"max_lines,omitempty"`
	Removal    string        `json:"removal"`
	Categories []CategoryDTO `json:"categories"`
}

type SubmissionDTO struct {
	Method  string `json:"method"`
	Records any    `json:"records"`
}

var (
	validate    *validator.Validate
	translators *ut.UniversalTranslator
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	english := en.New()
	translators = ut.New(english, english, zh.New())
	enTrans, _ := translators.GetTranslator("en")
	zhTrans, _ := translators.GetTranslator("zh")
	if err := entranslations.RegisterDefaultTranslations(validate, enTrans); err != nil {
		panic(err)
	}
	if err := zhtranslations.RegisterDefaultTranslations(validate, zhTrans); err != nil {
		panic(err)
	}
}

func translator(ctx context.Context) ut.Translator {
	base, _ := intl.UseLocale(ctx).Base()
	if trans, ok := translators.GetTranslator(base.String()); ok {
		return trans
	}
	trans, _ := translators.GetTranslator("en")
	return trans
}

// Ok validates a request DTO and returns the failing fields, keyed by their
// JSON path, with messages in the request language.
func Ok(ctx context.Context, dto any) (map[string]string, bool) {
	err := validate.Struct(dto)
	if err == nil {
		return nil, true
	}
	errs := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs["request"] = err.Error()
		return errs, false
	}
	trans := translator(ctx)
	for _, fe := range verrs {
		ns := fe.Namespace()
		if i := strings.IndexByte(ns, '.'); i >= 0 {
			ns = ns[i+1:]
		}
		errs[ns] = fe.Translate(trans)
	}
	return errs, false
}
