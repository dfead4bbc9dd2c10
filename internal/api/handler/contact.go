package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/relayline/relayline/internal/api/middleware"
	"github.com/relayline/relayline/internal/api/models"
	"github.com/relayline/relayline/internal/api/response"
	"github.com/relayline/relayline/internal/contact"
)

// ContactHandler handles CRM contact endpoints.
type ContactHandler struct {
	service *contact.Service
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(service *contact.Service) *ContactHandler {
	return &ContactHandler{service: service}
}

// ListContacts handles GET /v1/contacts.
func (h *ContactHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	opts := contact.ListOptions{Limit: 50}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			opts.Limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			opts.Offset = n
		}
	}

	contacts, err := h.service.List(r.Context(), middleware.GetTenantID(r.Context()), opts)
	if err != nil {
		response.InternalError(w, r, "failed to list contacts")
		return
	}
	if contacts == nil {
		contacts = []*contact.Contact{}
	}
	response.JSON(w, r, http.StatusOK, models.ContactListResponse{
		Contacts: contacts,
		Limit:    opts.Limit,
		Offset:   opts.Offset,
	})
}

// GetContact handles GET /v1/contacts/{contactId}.
func (h *ContactHandler) GetContact(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "contactId")

	c, err := h.service.Get(r.Context(), middleware.GetTenantID(r.Context()), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, c)
}

// CreateContact handles POST /v1/contacts.
func (h *ContactHandler) CreateContact(w http.ResponseWriter, r *http.Request) {
	var req models.ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}

	c, err := h.service.Create(r.Context(), middleware.GetTenantID(r.Context()), contact.CreateInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Company: req.Company,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Created(w, r, "/v1/contacts/"+c.ID, c)
}

// UpdateContact handles PUT /v1/contacts/{contactId}.
func (h *ContactHandler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "contactId")

	var req models.ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}

	c, err := h.service.Update(r.Context(), middleware.GetTenantID(r.Context()), id, contact.CreateInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Company: req.Company,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, c)
}

// DeleteContact handles DELETE /v1/contacts/{contactId}.
func (h *ContactHandler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "contactId")

	if err := h.service.Delete(r.Context(), middleware.GetTenantID(r.Context()), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.NoContent(w, r)
}

func (h *ContactHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, contact.ErrContactNotFound):
		response.NotFound(w, r, "contact not found")
	case errors.Is(err, contact.ErrReadOnly):
		response.ReadOnly(w, r, "contact writes are disabled while the database is unavailable")
	case errors.Is(err, contact.ErrValidation):
		response.BadRequest(w, r, err.Error(), nil)
	default:
		response.InternalError(w, r, "contact operation failed")
	}
}
