// Package handler wires the directory's HTTP surface: contact CRUD,
// the typeahead searches and the PBX caller-ID lookup endpoint.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"switchboard/internal/directory/models"
	"switchboard/internal/directory/service"
	id "switchboard/pkg/domain"
	dErrors "switchboard/pkg/domainerrors"
	"switchboard/pkg/platform/httputil"
	"switchboard/pkg/requestcontext"
)

// Service defines the directory operations the handler depends on.
type Service interface {
	SaveContact(ctx context.Context, cmd *service.SaveContactCommand) (*service.ContactView, error)
	GetContact(ctx context.Context, contactID id.ContactID) (*service.ContactView, error)
	DeleteContact(ctx context.Context, contactID id.ContactID) error
	SearchContacts(ctx context.Context, text string) ([]*service.ContactView, error)
	CompanySearch(ctx context.Context, prefix string) ([]*models.Company, error)
	TagSearch(ctx context.Context, prefix string) ([]*models.Tag, error)
	RemoveTag(ctx context.Context, contactID id.ContactID, tagID id.TagID) error
	CallerIDLookup(ctx context.Context, number *string) (string, error)
}

// Handler wires directory endpoints to the directory service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a directory handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts directory endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/callerid_lookup", h.HandleCallerIDLookup)

	r.Route("/contacts", func(r chi.Router) {
		r.Get("/", h.HandleSearchContacts)
		r.Post("/", h.HandleCreateContact)
		r.Route("/{contactID}", func(r chi.Router) {
			r.Get("/", h.HandleGetContact)
			r.Put("/", h.HandleUpdateContact)
			r.Delete("/", h.HandleDeleteContact)
			r.Delete("/tags/{tagID}", h.HandleRemoveTag)
		})
	})

	r.Get("/companies", h.HandleCompanySearch)
	r.Get("/tags", h.HandleTagSearch)
}

// HandleCallerIDLookup handles GET /callerid_lookup?number=...
//
// The body is the raw display string for the PBX dialplan, so the
// response is plain text and the endpoint answers 200 even for
// unknown numbers.
func (h *Handler) HandleCallerIDLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var number *string
	if r.URL.Query().Has("number") {
		value := r.URL.Query().Get("number")
		number = &value
	}

	result, err := h.service.CallerIDLookup(ctx, number)
	if err != nil {
		h.logger.ErrorContext(ctx, "caller id lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteText(w, http.StatusOK, result)
}

// HandleCreateContact handles POST /contacts.
func (h *Handler) HandleCreateContact(w http.ResponseWriter, r *http.Request) {
	h.saveContact(w, r, nil, http.StatusCreated)
}

// HandleUpdateContact handles PUT /contacts/{contactID}.
func (h *Handler) HandleUpdateContact(w http.ResponseWriter, r *http.Request) {
	contactID, err := id.ParseContactID(chi.URLParam(r, "contactID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.saveContact(w, r, &contactID, http.StatusOK)
}

func (h *Handler) saveContact(w http.ResponseWriter, r *http.Request, contactID *id.ContactID, okStatus int) {
	ctx := r.Context()

	req, err := httputil.Decode[SaveContactRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	cmd, err := req.ToCommand(contactID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	view, err := h.service.SaveContact(ctx, cmd)
	if err != nil {
		var de *dErrors.Error
		if errors.As(err, &de) && de.Code == dErrors.CodeValidation && view != nil {
			httputil.WriteJSON(w, http.StatusUnprocessableEntity, &ValidationResponse{
				Error:       string(de.Code),
				Description: de.Message,
				Fields:      de.Fields,
				Contact:     FromView(view),
			})
			return
		}
		h.logger.ErrorContext(ctx, "contact save failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, okStatus, FromView(view))
}

// HandleGetContact handles GET /contacts/{contactID}.
func (h *Handler) HandleGetContact(w http.ResponseWriter, r *http.Request) {
	contactID, err := id.ParseContactID(chi.URLParam(r, "contactID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	view, err := h.service.GetContact(r.Context(), contactID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromView(view))
}

// HandleDeleteContact handles DELETE /contacts/{contactID}.
func (h *Handler) HandleDeleteContact(w http.ResponseWriter, r *http.Request) {
	contactID, err := id.ParseContactID(chi.URLParam(r, "contactID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.DeleteContact(r.Context(), contactID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRemoveTag handles DELETE /contacts/{contactID}/tags/{tagID}.
func (h *Handler) HandleRemoveTag(w http.ResponseWriter, r *http.Request) {
	contactID, err := id.ParseContactID(chi.URLParam(r, "contactID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	tagID, err := id.ParseTagID(chi.URLParam(r, "tagID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.RemoveTag(r.Context(), contactID, tagID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSearchContacts handles GET /contacts?q=...
func (h *Handler) HandleSearchContacts(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.SearchContacts(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]*ContactResponse, 0, len(views))
	for _, view := range views {
		out = append(out, FromView(view))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// HandleCompanySearch handles GET /companies?q=... for the company
// field's typeahead.
func (h *Handler) HandleCompanySearch(w http.ResponseWriter, r *http.Request) {
	companies, err := h.service.CompanySearch(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]CompanyResponse, 0, len(companies))
	for _, company := range companies {
		out = append(out, CompanyResponse{ID: company.ID.String(), Name: company.Name})
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// HandleTagSearch handles GET /tags?q=...
func (h *Handler) HandleTagSearch(w http.ResponseWriter, r *http.Request) {
	tags, err := h.service.TagSearch(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]TagResponse, 0, len(tags))
	for _, tag := range tags {
		out = append(out, TagResponse{ID: tag.ID.String(), Name: tag.Name})
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}
