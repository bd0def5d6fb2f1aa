package middleware

import (
	"net/http"

	"github.com/mssola/useragent"

	"switchboard/pkg/requestcontext"
)

// Device parses the User-Agent header and records the browser family
// in the context. Click-to-dial is a browser feature; knowing which
// browsers place calls helps debug the front-end integration.
func Device(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := r.Header.Get("User-Agent")
		if ua == "" {
			next.ServeHTTP(w, r)
			return
		}

		parsed := useragent.New(ua)
		browser, version := parsed.Browser()
		if browser != "" {
			if version != "" {
				browser = browser + "/" + version
			}
			r = r.WithContext(requestcontext.WithBrowser(r.Context(), browser))
		}
		next.ServeHTTP(w, r)
	})
}
