package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"switchboard/internal/platform/logger"
	id "switchboard/pkg/domain"
	"switchboard/pkg/requestcontext"
)

func TestCurrentUser(t *testing.T) {
	t.Run("lifts proxy headers into the context", func(t *testing.T) {
		userID := id.NewUserID()
		var seen requestcontext.User
		var ok bool
		handler := CurrentUser(logger.New())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, ok = requestcontext.CurrentUser(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderUserID, userID.String())
		req.Header.Set(HeaderUserName, "Operator")
		req.Header.Set(HeaderUserExtension, "1234")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		require.True(t, ok)
		require.Equal(t, userID, seen.ID)
		require.Equal(t, "Operator", seen.Name)
		require.Equal(t, "1234", seen.Extension)
	})

	t.Run("missing headers pass through anonymous", func(t *testing.T) {
		var ok bool
		handler := CurrentUser(logger.New())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, ok = requestcontext.CurrentUser(r.Context())
		}))

		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		require.False(t, ok)
	})
}

func TestRequireUser(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("rejects anonymous requests", func(t *testing.T) {
		w := httptest.NewRecorder()
		RequireUser(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dial/phone/x", nil))
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("passes resolved users through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dial/phone/x", nil)
		req.Header.Set(HeaderUserName, "Operator")

		w := httptest.NewRecorder()
		CurrentUser(logger.New())(RequireUser(next)).ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	})
}
