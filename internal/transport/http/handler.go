package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"accountd/internal/identity/models"
	"accountd/internal/platform/middleware"
	"accountd/internal/transport/http/shared"
	derrors "accountd/pkg/domain-errors"
	"accountd/pkg/requestcontext"
)

// IdentityService is the surface the HTTP layer needs from the identity
// service. Handlers delegate everything past parsing to it.
type IdentityService interface {
	Provision(ctx context.Context, req models.ProvisioningRequest) (string, error)
	Login(ctx context.Context, username, secret string) (string, error)
	GetUser(ctx context.Context, bearerToken, requestedUsername string) (*models.ProfileRecord, error)
	UpdateUser(ctx context.Context, bearerToken, requestedUsername, field, value string) (*models.ProfileRecord, error)
}

// Handler is the thin HTTP layer over the identity service.
type Handler struct {
	identity IdentityService
	logger   *slog.Logger
}

func NewHandler(identity IdentityService, logger *slog.Logger) *Handler {
	return &Handler{identity: identity, logger: logger}
}

// Register mounts the identity routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Get("/login", h.handleLogin)
	r.Get("/user", h.handleGetUser)
	r.Put("/user", h.handleUpdateUser)
}

// handleRegister runs the provisioning saga. All input arrives as query
// parameters, mirroring the provider API this service fronts.
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	req, err := models.NewProvisioningRequest(
		q.Get("username"),
		q.Get("password"),
		q.Get("phone_number"),
		q.Get("given_name"),
		q.Get("family_name"),
		q.Get("id"),
	)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid registration request",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	externalID, err := h.identity.Provision(ctx, req)
	if err != nil {
		h.writeServiceError(w, r, "registration failed", err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, map[string]string{"id": externalID})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	accessToken, err := h.identity.Login(ctx, q.Get("username"), q.Get("password"))
	if err != nil {
		h.writeServiceError(w, r, "login failed", err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, map[string]string{"access_token": accessToken})
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	bearer := middleware.GetBearerToken(ctx)
	if bearer == "" {
		shared.WriteError(w, derrors.New(derrors.CodeUnauthorized, "missing bearer token"))
		return
	}
	requested := r.URL.Query().Get("username")
	if requested == "" {
		shared.WriteError(w, derrors.New(derrors.CodeBadRequest, "username query parameter is required"))
		return
	}

	rec, err := h.identity.GetUser(ctx, bearer, requested)
	if err != nil {
		h.writeServiceError(w, r, "user lookup failed", err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, rec)
}

// handleUpdateUser syncs a single profile attribute named by a query
// parameter, e.g. PUT /user?given_name=Robert.
func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	bearer := middleware.GetBearerToken(ctx)
	if bearer == "" {
		shared.WriteError(w, derrors.New(derrors.CodeUnauthorized, "missing bearer token"))
		return
	}

	field, value, ok := updatableField(q)
	if !ok {
		shared.WriteError(w, derrors.New(derrors.CodeBadRequest, "no updatable field provided"))
		return
	}

	rec, err := h.identity.UpdateUser(ctx, bearer, q.Get("username"), field, value)
	if err != nil {
		h.writeServiceError(w, r, "attribute update failed", err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, rec)
}

// updatableField picks the first recognized attribute parameter present.
func updatableField(q map[string][]string) (field, value string, ok bool) {
	for _, name := range []string{models.AttrGivenName, models.AttrFamilyName, models.AttrPhoneNumber} {
		if vals, present := q[name]; present && len(vals) > 0 {
			return name, vals[0], true
		}
	}
	return "", "", false
}

// writeServiceError logs at a severity matching who caused the failure, then
// writes the error envelope.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	attrs := []any{
		"request_id", requestcontext.RequestID(ctx),
		"error", err.Error(),
	}
	if derrors.CodeOf(err) == derrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, attrs...)
	} else {
		h.logger.WarnContext(ctx, msg, attrs...)
	}
	shared.WriteError(w, err)
}
