// Package handler exposes click-to-dial over HTTP. The dial link is
// used two ways: the phonebook UI calls it as an XHR and renders the
// message inline, while bookmarklet-style callers hit it as a normal
// navigation and get bounced back to the phonebook with a flash.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"switchboard/internal/telephony/service"
	id "switchboard/pkg/domain"
	"switchboard/pkg/platform/httputil"
	"switchboard/pkg/requestcontext"
)

// flashCookie carries the dial outcome across the redirect for
// non-XHR callers. The UI reads and clears it on the next render.
const flashCookie = "switchboard_flash"

// Service defines the dial operation the handler depends on.
type Service interface {
	Dial(ctx context.Context, phoneID id.PhoneNumberID) (service.DialResult, error)
}

// Handler wires the dial endpoint to the telephony service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a telephony handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the dial endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/dial/phone/{phoneNumberID}", h.HandleDial)
}

// HandleDial handles GET /dial/phone/{phoneNumberID}.
func (h *Handler) HandleDial(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	phoneID, err := id.ParsePhoneNumberID(chi.URLParam(r, "phoneNumberID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Dial(ctx, phoneID)
	if err != nil {
		h.logger.ErrorContext(ctx, "dial failed",
			"request_id", requestcontext.RequestID(ctx),
			"phone_number_id", phoneID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	if isXHR(r) {
		httputil.WriteText(w, http.StatusOK, result.Message)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(result.Message),
		Path:     "/",
		HttpOnly: true,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func isXHR(r *http.Request) bool {
	return r.Header.Get("X-Requested-With") == "XMLHttpRequest"
}
