package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/passcapture/internal/common"
	"github.com/dmitrijs2005/passcapture/internal/logging"
	"github.com/dmitrijs2005/passcapture/internal/scim"
)

// Handlers exposes the provisioning service over JSON/HTTP.
type Handlers struct {
	svc    scim.Service
	logger logging.Logger
}

func NewHandlers(svc scim.Service, logger logging.Logger) *Handlers {
	return &Handlers{svc: svc, logger: logger.With("module", "httpapi")}
}

// Routes registers the user, group and metadata endpoints.
func (h *Handlers) Routes(r chi.Router) {
	r.Route("/Users", func(r chi.Router) {
		r.Post("/", h.CreateUser)
		r.Get("/", h.ListUsers)
		r.Put("/{id}", h.UpdateUser)
		r.Get("/{id}", h.GetUser)
	})
	r.Route("/Groups", func(r chi.Router) {
		r.Post("/", h.CreateGroup)
		r.Get("/", h.ListGroups)
		r.Get("/{id}", h.GetGroup)
		r.Put("/{id}", h.UpdateGroup)
		r.Delete("/{id}", h.DeleteGroup)
	})
	r.Get("/ServiceProviderConfig", h.ServiceProviderConfig)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type serviceProviderConfig struct {
	Capabilities []scim.Capability `json:"capabilities"`
}

func (h *Handlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	var user scim.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "malformed request body")
		return
	}

	created, err := h.svc.CreateUser(r.Context(), &user)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var user scim.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "malformed request body")
		return
	}

	updated, err := h.svc.UpdateUser(r.Context(), chi.URLParam(r, "id"), &user)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	_, err := h.svc.ListUsers(r.Context())
	h.writeServiceError(w, r, err)
}

func (h *Handlers) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var group scim.Group
	if err := json.NewDecoder(r.Body).Decode(&group); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "malformed request body")
		return
	}
	_, err := h.svc.CreateGroup(r.Context(), &group)
	h.writeServiceError(w, r, err)
}

func (h *Handlers) GetGroup(w http.ResponseWriter, r *http.Request) {
	_, err := h.svc.GetGroup(r.Context(), chi.URLParam(r, "id"))
	h.writeServiceError(w, r, err)
}

func (h *Handlers) ListGroups(w http.ResponseWriter, r *http.Request) {
	_, err := h.svc.ListGroups(r.Context())
	h.writeServiceError(w, r, err)
}

func (h *Handlers) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	var group scim.Group
	if err := json.NewDecoder(r.Body).Decode(&group); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "malformed request body")
		return
	}
	_, err := h.svc.UpdateGroup(r.Context(), chi.URLParam(r, "id"), &group)
	h.writeServiceError(w, r, err)
}

func (h *Handlers) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	err := h.svc.DeleteGroup(r.Context(), chi.URLParam(r, "id"))
	h.writeServiceError(w, r, err)
}

// ServiceProviderConfig reports the static capability advertisement.
func (h *Handlers) ServiceProviderConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, serviceProviderConfig{Capabilities: h.svc.Capabilities()})
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeServiceError translates a typed service failure into a status and a
// stable machine-readable code.
func (h *Handlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}

	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err.Error())
	}
	writeError(w, status, common.Code(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrMissingIdentifier), errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrUnsupported):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
