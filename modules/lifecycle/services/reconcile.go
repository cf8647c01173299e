package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/wI2L/jsondiff"

	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/domain/category"
	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/domain/line"
)

// WireRecord is a sub-record as the server sends it.
type WireRecord struct {
	ID                 line.RecordID   `json:"id"`
	Category           string          `json:"category" validate:"max=64"`
	StartDate          *string         `json:"start_date,omitempty" validate:"omitempty,wiredate"`
	EndDate            *string         `json:"end_date,omitempty" validate:"omitempty,wiredate"`
	EffectivityDate    *string         `json:"effectivity_date,omitempty" validate:"omitempty,wiredate"`
	RegularizationDate *string         `json:"regularization_date,omitempty" validate:"omitempty,wiredate"`
	Attachment         json.RawMessage `json:"attachment,omitempty"`
}

// SubmissionRecord is a sub-record as it is sent back. ID is null for lines
// that do not exist on the server yet.
type SubmissionRecord struct {
	ID                 line.RecordID   `json:"id"`
	Category           string          `json:"category"`
	StartDate          *string         `json:"start_date"`
	EndDate            *string         `json:"end_date"`
	EffectivityDate    *string         `json:"effectivity_date"`
	RegularizationDate *string         `json:"regularization_date"`
	Attachment         json.RawMessage `json:"attachment,omitempty"`
}

// Payload is the submission handed to the API collaborator.
type Payload struct {
	Method  string             `json:"method"`
	Records []SubmissionRecord `json:"records"`
}

var wireValidate = newWireValidator()

func newWireValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("wiredate", func(fl validator.FieldLevel) bool {
		_, err := line.ParseDate(fl.Field().String())
		return err == nil
	}); err != nil {
		panic(err)
	}
	return v
}

// ValidateWireRecord reports the wire fields that are malformed, keyed by
// their JSON name.
func ValidateWireRecord(rec WireRecord) map[string]string {
	err := wireValidate.Struct(rec)
	if err == nil {
		return nil
	}
	out := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["record"] = err.Error()
		return out
	}
	for _, fe := range verrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}

// Reconciler moves records between the wire shape and the edited list.
type Reconciler struct {
	table     *category.Table
	ids       line.IDGenerator
	recompute *Recomputer
	logger    *logrus.Entry
}

func NewReconciler(table *category.Table, ids line.IDGenerator, recompute *Recomputer, logger *logrus.Entry) *Reconciler {
	if ids == nil {
		ids = line.UUIDGenerator()
	}
	return &Reconciler{table: table, ids: ids, recompute: recompute, logger: logger}
}

// DecodeServerRecords reads the server's sub-records. A bare array and an
// object wrapping one under records/items/data are accepted; anything else
// yields no records. Elements that cannot be decoded are skipped.
func (r *Reconciler) DecodeServerRecords(raw []byte) []WireRecord {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, nullLiteral) {
		return nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			r.warn("lifecycle.reconcile.undecodable", logrus.Fields{"error": err.Error()})
			return nil
		}
		for _, key := range []string{"records", "items", "data"} {
			if inner, ok := wrapper[key]; ok {
				if err := json.Unmarshal(inner, &elems); err == nil {
					break
				}
			}
		}
		if elems == nil {
			r.warn("lifecycle.reconcile.missing_records", logrus.Fields{"keys": len(wrapper)})
			return nil
		}
	}

	out := make([]WireRecord, 0, len(elems))
	for i, elem := range elems {
		var rec WireRecord
		if err := json.Unmarshal(elem, &rec); err != nil {
			r.warn("lifecycle.reconcile.record_skipped", logrus.Fields{"index": i, "error": err.Error()})
			continue
		}
		out = append(out, rec)
	}
	return out
}

var nullLiteral = []byte("null")

// Seed builds the initial list. Without server records the list holds a
// single empty line. Malformed dates are dropped rather than failing the
// whole seed, and fields the category does not activate are cleared.
func (r *Reconciler) Seed(records []WireRecord, mode category.Mode) State {
	if len(records) == 0 {
		return NewState(mode, []line.Record{line.New(r.ids.NewKey())})
	}

	lines := make([]line.Record, 0, len(records))
	for i, rec := range records {
		if bad := ValidateWireRecord(rec); len(bad) > 0 {
			r.warn("lifecycle.reconcile.malformed_fields", logrus.Fields{"index": i, "fields": bad})
		}
		l := line.Record{
			Key:        r.ids.NewKey(),
			ServerID:   rec.ID,
			Category:   category.Normalize(rec.Category),
			Attachment: rec.Attachment,
		}
		l.StartDate = r.parseDate(i, line.FieldStartDate, rec.StartDate)
		l.EndDate = r.parseDate(i, line.FieldEndDate, rec.EndDate)
		l.EffectivityDate = r.parseDate(i, line.FieldEffectivityDate, rec.EffectivityDate)
		l.RegularizationDate = r.parseDate(i, line.FieldRegularizationDate, rec.RegularizationDate)
		l = r.recompute.Purge(l)
		l.SeededRegularization = l.RegularizationDate
		lines = append(lines, l)
	}
	return NewState(mode, lines)
}

func (r *Reconciler) parseDate(index int, f line.Field, v *string) *time.Time {
	t, err := line.ParseOptionalDate(v)
	if err != nil {
		r.warn("lifecycle.reconcile.date_dropped", logrus.Fields{"index": index, "field": string(f), "error": err.Error()})
		return nil
	}
	return t
}

// ShouldReseed reports whether the server record set changed materially.
// Spurious re-fetches with equal content must not discard in-progress edits.
func (r *Reconciler) ShouldReseed(previous, current []WireRecord) bool {
	if len(previous) != len(current) {
		return true
	}
	if len(current) == 0 {
		return false
	}
	patch, err := jsondiff.Compare(previous, current)
	if err != nil {
		r.warn("lifecycle.reconcile.compare_failed", logrus.Fields{"error": err.Error()})
		return true
	}
	if len(patch) == 0 {
		return false
	}
	logWithFields(r.logger, logrus.DebugLevel, "lifecycle.reconcile.changed", logrus.Fields{
		"kind": r.table.Kind,
		"ops":  patch.String(),
	})
	return true
}

// ToSubmission reshapes the list for the API. Position and session
// bookkeeping are dropped; server ids pass through so the receiver can tell
// updates from creations. parentID decides between POST and PATCH.
func (r *Reconciler) ToSubmission(st State, parentID line.RecordID) Payload {
	method := http.MethodPost
	if !parentID.IsZero() {
		method = http.MethodPatch
	}
	out := Payload{Method: method, Records: make([]SubmissionRecord, 0, st.Len())}
	for _, l := range st.Lines() {
		if l.Key == "" {
			panic("lifecycle: line without key")
		}
		out.Records = append(out.Records, SubmissionRecord{
			ID:                 l.ServerID,
			Category:           l.Category.String(),
			StartDate:          line.FormatDate(l.StartDate),
			EndDate:            line.FormatDate(l.EndDate),
			EffectivityDate:    line.FormatDate(l.EffectivityDate),
			RegularizationDate: line.FormatDate(l.RegularizationDate),
			Attachment:         l.Attachment,
		})
	}
	return out
}

// ToWire renders the current list back in the server shape. It is what a
// stateless client posts to resume a session.
func ToWire(st State) []WireRecord {
	out := make([]WireRecord, 0, st.Len())
	for _, l := range st.Lines() {
		out = append(out, WireRecord{
			ID:                 l.ServerID,
			Category:           l.Category.String(),
			StartDate:          line.FormatDate(l.StartDate),
			EndDate:            line.FormatDate(l.EndDate),
			EffectivityDate:    line.FormatDate(l.EffectivityDate),
			RegularizationDate: line.FormatDate(l.RegularizationDate),
			Attachment:         l.Attachment,
		})
	}
	return out
}

func (r *Reconciler) warn(msg string, fields logrus.Fields) {
	fields["kind"] = r.table.Kind
	logWithFields(r.logger, logrus.WarnLevel, msg, fields)
}
