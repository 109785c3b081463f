package i18n

import (
	"net/http"

	"github.com/pavelanni/paketsoal/internal/model"
)

// Middleware injects a localizer into every request context. The language
// comes from the "lang" query parameter, then Accept-Language, then the
// language given to Init.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			loc := NewLocalizer(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"))
			ctx := WithLocalizer(r.Context(), loc)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ExportLabels returns the labels rendered into exported files. Only an
// explicit "lang" query parameter changes them; Accept-Language does not.
func ExportLabels(r *http.Request) model.Labels {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		return LabelsFor(lang)
	}
	return model.DefaultLabels()
}
