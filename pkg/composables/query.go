package composables

import (
	"net/http"

	"github.com/go-playground/form"
)

var queryDecoder = form.NewDecoder()

// UseQuery decodes the URL query into v using `form` tags.
func UseQuery[T any](v T, r *http.Request) (T, error) {
	if err := r.ParseForm(); err != nil {
		return v, err
	}
	if err := queryDecoder.Decode(v, r.URL.Query()); err != nil {
		return v, err
	}
	return v, nil
}
