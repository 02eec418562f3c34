// Package requestcontext enters the ambient request of dbhooks for every inbound HTTP request.
//
// Mount Middleware on a chi router (or wrap any http.Handler) and every database operation run with
// the request's context sees the request in its hooks:
//
//	router := chi.NewRouter()
//	router.Use(requestcontext.Middleware())
//
//	client.UseHookForAll(dbhooks.AllOperations, func(ctx context.Context, args any, model string, op dbhooks.Operation, request any) (any, error) {
//		tenant := requestcontext.Header(request, "X-Tenant-ID")
//		...
//	})
package requestcontext

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AntonStoeckl/dynamic-query-hooks-go/dbhooks"
)

// Extractor derives the ambient request value from an inbound HTTP request.
type Extractor func(r *http.Request) any

// Option configures Middleware.
type Option func(*middleware)

type middleware struct {
	extract Extractor
}

// WithExtractor replaces the default ambient value, the *http.Request itself.
// A nil extractor is ignored.
func WithExtractor(extract Extractor) Option {
	return func(m *middleware) {
		if extract != nil {
			m.extract = extract
		}
	}
}

// Middleware returns net/http middleware that calls dbhooks.WithRequest for each request.
func Middleware(options ...Option) func(http.Handler) http.Handler {
	m := &middleware{
		extract: func(r *http.Request) any { return r },
	}

	for _, option := range options {
		option(m)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := dbhooks.WithRequest(r.Context(), m.extract(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// HTTPRequest returns the ambient request as *http.Request, if it is one.
func HTTPRequest(request any) (*http.Request, bool) {
	r, ok := request.(*http.Request)
	if !ok || r == nil {
		return nil, false
	}

	return r, true
}

// Header returns a header of the ambient HTTP request, or "" outside of HTTP requests.
func Header(request any, key string) string {
	r, ok := HTTPRequest(request)
	if !ok {
		return ""
	}

	return r.Header.Get(key)
}

// URLParam returns a chi route parameter of the ambient HTTP request, or "" outside of routed requests.
func URLParam(request any, key string) string {
	r, ok := HTTPRequest(request)
	if !ok {
		return ""
	}

	return chi.URLParam(r, key)
}
