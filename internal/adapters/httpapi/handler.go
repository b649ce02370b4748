package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/opsenary/apptracker/internal/actorctx"
	"github.com/opsenary/apptracker/internal/core/domain"
	"github.com/opsenary/apptracker/internal/core/ports"
	"github.com/opsenary/apptracker/internal/core/usecase"
)

const (
	timeFormat      = "2006-01-02T15:04:05.999999999Z07:00"
	maxJSONBodySize = 1 << 20
)

type Handler struct {
	auth    *usecase.AuthService
	users   *usecase.UserService
	catalog *usecase.CatalogService
	servers *usecase.ServerService
	apps    *usecase.ApplicationService
	audit   *usecase.AuditService
	logger  *slog.Logger
}

func NewHandler(
	auth *usecase.AuthService,
	users *usecase.UserService,
	catalog *usecase.CatalogService,
	servers *usecase.ServerService,
	apps *usecase.ApplicationService,
	audit *usecase.AuditService,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		auth:    auth,
		users:   users,
		catalog: catalog,
		servers: servers,
		apps:    apps,
		audit:   audit,
		logger:  logger,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", h.healthz)

	r.Group(func(pr chi.Router) {
		pr.Use(h.requireToken)

		pr.Get("/v1/audit", h.listAuditTrail)

		pr.Get("/v1/users", h.listUsers)
		pr.Post("/v1/users", h.createUser)
		pr.Get("/v1/users/{id}", h.getUser)
		pr.Put("/v1/users/{id}", h.updateUser)
		pr.Delete("/v1/users/{id}", h.deleteUser)

		pr.Get("/v1/platforms", h.listPlatforms)
		pr.Post("/v1/platforms", h.createPlatform)
		pr.Get("/v1/platforms/{id}", h.getPlatform)
		pr.Put("/v1/platforms/{id}", h.updatePlatform)
		pr.Delete("/v1/platforms/{id}", h.deletePlatform)

		pr.Get("/v1/plugins", h.listPlugins)
		pr.Post("/v1/plugins", h.createPlugin)
		pr.Get("/v1/plugins/{id}", h.getPlugin)
		pr.Put("/v1/plugins/{id}", h.updatePlugin)
		pr.Delete("/v1/plugins/{id}", h.deletePlugin)

		pr.Get("/v1/languages", h.listLanguages)
		pr.Post("/v1/languages", h.createLanguage)
		pr.Get("/v1/languages/{id}", h.getLanguage)
		pr.Put("/v1/languages/{id}", h.updateLanguage)
		pr.Delete("/v1/languages/{id}", h.deleteLanguage)

		pr.Get("/v1/datastores", h.listDatastores)
		pr.Post("/v1/datastores", h.createDatastore)
		pr.Get("/v1/datastores/{id}", h.getDatastore)
		pr.Put("/v1/datastores/{id}", h.updateDatastore)
		pr.Delete("/v1/datastores/{id}", h.deleteDatastore)

		pr.Get("/v1/servers", h.listServers)
		pr.Post("/v1/servers", h.createServer)
		pr.Get("/v1/servers/{id}", h.getServer)
		pr.Put("/v1/servers/{id}", h.updateServer)
		pr.Delete("/v1/servers/{id}", h.deleteServer)

		pr.Get("/v1/installations", h.listInstallations)
		pr.Post("/v1/installations", h.createInstallation)
		pr.Get("/v1/installations/{id}", h.getInstallation)
		pr.Put("/v1/installations/{id}", h.updateInstallation)
		pr.Delete("/v1/installations/{id}", h.deleteInstallation)

		pr.Get("/v1/instances", h.listInstances)
		pr.Post("/v1/instances", h.createInstance)
		pr.Get("/v1/instances/{id}", h.getInstance)
		pr.Put("/v1/instances/{id}", h.updateInstance)
		pr.Delete("/v1/instances/{id}", h.deleteInstance)

		pr.Get("/v1/applications", h.listApplications)
		pr.Post("/v1/applications", h.createApplication)
		pr.Get("/v1/applications/{id}", h.getApplication)
		pr.Put("/v1/applications/{id}", h.updateApplication)
		pr.Delete("/v1/applications/{id}", h.deleteApplication)
		pr.Get("/v1/applications/{id}/lifecycle", h.listLifecycleEvents)

		pr.Get("/v1/applications/{id}/language-dependencies", h.listLanguageDependencies)
		pr.Post("/v1/applications/{id}/language-dependencies", h.addLanguageDependency)
		pr.Delete("/v1/language-dependencies/{id}", h.removeLanguageDependency)

		pr.Get("/v1/applications/{id}/datastore-dependencies", h.listDatastoreDependencies)
		pr.Post("/v1/applications/{id}/datastore-dependencies", h.addDatastoreDependency)
		pr.Delete("/v1/datastore-dependencies/{id}", h.removeDatastoreDependency)
	})

	return r
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// requireToken authenticates the request token and binds the resolved user
// to the request context as the acting user for audit attribution.
func (h *Handler) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(r.Header.Get("X-API-Key"))
		if token == "" {
			auth := strings.TrimSpace(r.Header.Get("Authorization"))
			if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
				token = strings.TrimSpace(auth[7:])
			}
		}

		user, err := h.auth.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, usecase.ErrUnauthorized) {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			h.logger.Error("authenticate token", "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		ctx := actorctx.WithActor(r.Context(), actorctx.Actor{
			Name: user.Username,
			ID:   user.ID,
			Role: user.Role,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// viewer resolves the acting user's profile for permission checks.
func (h *Handler) viewer(r *http.Request) (domain.User, bool) {
	actor, ok := actorctx.ActorFrom(r.Context())
	if !ok {
		return domain.User{}, false
	}
	user, err := h.users.Get(r.Context(), actor.ID)
	if err != nil {
		return domain.User{}, false
	}
	return user, true
}

func (h *Handler) requireCreate(w http.ResponseWriter, r *http.Request) bool {
	user, ok := h.viewer(r)
	if !ok || !user.CanCreateRecords() {
		writeError(w, http.StatusForbidden, "insufficient role")
		return false
	}
	return true
}

func (h *Handler) requireWrite(w http.ResponseWriter, r *http.Request) bool {
	user, ok := h.viewer(r)
	if !ok || !user.HasWriteAccess() {
		writeError(w, http.StatusForbidden, "insufficient role")
		return false
	}
	return true
}

func (h *Handler) requireDelete(w http.ResponseWriter, r *http.Request) bool {
	user, ok := h.viewer(r)
	if !ok || !user.CanDeleteRecords() {
		writeError(w, http.StatusForbidden, "insufficient role")
		return false
	}
	return true
}

func (h *Handler) requireUserAdmin(w http.ResponseWriter, r *http.Request) bool {
	user, ok := h.viewer(r)
	if !ok || !user.CanManageUsers() {
		writeError(w, http.StatusForbidden, "insufficient role")
		return false
	}
	return true
}

// canViewSystemNotes reports whether the viewer sees manager_notes fields.
func (h *Handler) canViewSystemNotes(r *http.Request) bool {
	user, ok := h.viewer(r)
	return ok && user.CanViewSystemNotes()
}

func (h *Handler) listAuditTrail(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	tail := 0
	if raw := query.Get("tail"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "tail must be integer")
			return
		}
		tail = parsed
	}

	events, err := h.audit.List(r.Context(), ports.AuditTrailFilter{
		User:   query.Get("user"),
		Action: query.Get("action"),
		Model:  query.Get("model"),
		Since:  query.Get("since"),
		Tail:   tail,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": events})
}

type userRequest struct {
	Username            string `json:"username"`
	FullName            string `json:"full_name"`
	Role                string `json:"role"`
	Active              bool   `json:"active"`
	DocumentationAccess bool   `json:"documentation_access"`
	Department          string `json:"department"`
	Phone               string `json:"phone"`
	Notes               string `json:"notes"`
}

type userResponse struct {
	ID                  int64  `json:"id"`
	Username            string `json:"username"`
	FullName            string `json:"full_name"`
	Role                string `json:"role"`
	Active              bool   `json:"active"`
	DocumentationAccess bool   `json:"documentation_access"`
	Department          string `json:"department"`
	Phone               string `json:"phone"`
	Notes               string `json:"notes"`
	CreatedAt           string `json:"created_at"`
	UpdatedAt           string `json:"updated_at"`
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{
		ID:                  u.ID,
		Username:            u.Username,
		FullName:            u.FullName,
		Role:                u.Role,
		Active:              u.Active,
		DocumentationAccess: u.DocumentationAccess,
		Department:          u.Department,
		Phone:               u.Phone,
		Notes:               u.Notes,
		CreatedAt:           u.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt:           u.UpdatedAt.UTC().Format(timeFormat),
	}
}

func (req userRequest) toDomain() domain.User {
	return domain.User{
		Username:            req.Username,
		FullName:            req.FullName,
		Role:                req.Role,
		Active:              req.Active,
		DocumentationAccess: req.DocumentationAccess,
		Department:          req.Department,
		Phone:               req.Phone,
		Notes:               req.Notes,
	}
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	if !h.requireUserAdmin(w, r) {
		return
	}
	var req userRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.users.Create(r.Context(), req.toDomain())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	if !h.requireUserAdmin(w, r) {
		return
	}
	id, ok := parseInt64Param(w, r, "id")
	if !ok {
		return
	}
	var req userRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.users.Update(r.Context(), id, req.toDomain())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseInt64Param(w, r, "id")
	if !ok {
		return
	}
	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	result := make([]userResponse, 0, len(users))
	for _, user := range users {
		result = append(result, toUserResponse(user))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": result})
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if !h.requireUserAdmin(w, r) {
		return
	}
	id, ok := parseInt64Param(w, r, "id")
	if !ok {
		return
	}
	if err := h.users.Delete(r.Context(), id); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dest any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := ensureEOF(decoder); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	return true
}

func ensureEOF(decoder *json.Decoder) error {
	if _, err := decoder.Token(); err != io.EOF {
		return errors.New("trailing data after json body")
	}
	return nil
}

func parseInt64Param(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, name+" must be integer")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		slog.Error("encode json response", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(data, '\n')); err != nil {
		slog.Error("write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidField), errors.Is(err, domain.ErrInvalidChoice),
		errors.Is(err, domain.ErrPluginConfig):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
