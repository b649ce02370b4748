package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/opsenary/apptracker/internal/core/domain"
)

type platformRequest struct {
	Name          string          `json:"name"`
	Code          string          `json:"code"`
	Description   string          `json:"description"`
	Active        bool            `json:"active"`
	PluginEnabled bool            `json:"plugin_enabled"`
	PluginConfig  json.RawMessage `json:"plugin_config"`
	ManagerNotes  string          `json:"manager_notes"`
}

type platformResponse struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Code          string          `json:"code"`
	Description   string          `json:"description"`
	Active        bool            `json:"active"`
	PluginEnabled bool            `json:"plugin_enabled"`
	PluginConfig  json.RawMessage `json:"plugin_config,omitempty"`
	ManagerNotes  string          `json:"manager_notes,omitempty"`
	CreatedAt     string          `json:"created_at"`
	UpdatedAt     string          `json:"updated_at"`
}

func (req platformRequest) toDomain() domain.CloudPlatform {
	return domain.CloudPlatform{
		Name:          req.Name,
		Code:          req.Code,
		Description:   req.Description,
		Active:        req.Active,
		PluginEnabled: req.PluginEnabled,
		PluginConfig:  req.PluginConfig,
		ManagerNotes:  req.ManagerNotes,
	}
}

func toPlatformResponse(p domain.CloudPlatform, withNotes bool) platformResponse {
	resp := platformResponse{
		ID:            p.ID,
		Name:          p.Name,
		Code:          p.Code,
		Description:   p.Description,
		Active:        p.Active,
		PluginEnabled: p.PluginEnabled,
		PluginConfig:  p.PluginConfig,
		CreatedAt:     p.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt:     p.UpdatedAt.UTC().Format(timeFormat),
	}
	if withNotes {
		resp.ManagerNotes = p.ManagerNotes
	}
	return resp
}

func (h *Handler) createPlatform(w http.ResponseWriter, r *http.Request) {
	if !h.requireCreate(w, r) {
		return
	}
	var req platformRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	platform, err := h.catalog.CreatePlatform(r.Context(), req.toDomain())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPlatformResponse(platform, h.canViewSystemNotes(r)))
}

func (h *Handler) updatePlatform(w http.ResponseWriter, r *http.Request) {
	if !h.requireWrite(w, r) {
		return
	}
	id, ok := parseInt64Param(w, r, "id")
	if !ok {
		return
	}
	var req platformRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	platform, err := h.catalog.UpdatePlatform(r.Context(), id, req.toDomain())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlatformResponse(platform, h.canViewSystemNotes(r)))
}

func (h *Handler) getPlatform(w http.ResponseWriter, r *http.Request) {
	id, ok := parseInt64Param(w, r, "id")
	if !ok {
		return
	}
	platform, err := h.catalog.GetPlatform(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlatformResponse(platform, h.canViewSystemNotes(r)))
}

func (h *Handler) listPlatforms(w http.ResponseWriter, r *http.Request) {
	platforms, err := h.catalog.ListPlatforms(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	withNotes := h.canViewSystemNotes(r)
	result := make([]platformResponse, 0, len(platforms))
	for _, platform := range platforms {
		result = append(result, toPlatformResponse(platform, withNotes))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": result})
}

func (h *Handler) deletePlatform(w http.ResponseWriter, r *http.Request) {
	if !h.requireDelete(w, r) {
		return
	}
	id, ok := parseInt64Param(w, r, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeletePlatform(r.Context(), id); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

type pluginRequest struct {
	Name         string          `json:"name"`
	PlatformID   int64           `json:"platform_id"`
	Module       string          `json:"module"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Enabled      bool            `json:"enabled"`
	ConfigSchema json.RawMessage `json:"config_schema"`
	ManagerNotes string          `json:"manager_notes"`
}

type pluginResponse struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	PlatformID   int64           `json:"platform_id"`
	Module       string          `json:"module"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Enabled      bool            `json:"enabled"`
	ConfigSchema json.RawMessage `json:"config_schema,omitempty"`
	ManagerNotes string          `json:"manager_notes,omitempty"`
	CreatedAt    string          `json:"created_at"`
	UpdatedAt    string          `json:"updated_at"`
}

func (req pluginRequest) toDomain() domain.CloudPlugin {
	return domain.CloudPlugin{
		Name:         req.Name,
		PlatformID:   req.PlatformID,
		Module:       req.Module,
		Version:      req.Version,
		Description:  req.Description,
		Enabled:      req.Enabled,
		ConfigSchema: req.ConfigSchema,
		ManagerNotes: req.ManagerNotes,
	}
}

func toPluginResponse(p domain.CloudPlugin, withNotes bool) pluginResponse {
	resp := pluginResponse{
		ID:           p.ID,
		Name:         p.Name,
		PlatformID:   p.PlatformID,
		Module:       p.Module,
		Version:      p.Version,
		Description:  p.Description,
		Enabled:      p.Enabled,
		ConfigSchema: p.ConfigSchema,
		CreatedAt:    p.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt:    p.UpdatedAt.UTC().Format(timeFormat),
	}
	if withNotes {
		resp.ManagerNotes = p.ManagerNotes
	}
	return resp
}

func (h *Handler) createPlugin(w http.ResponseWriter, r *http.Request) {
	if !h.requireCreate(w, r) {
		return
	}
	var req pluginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	plugin, err := h.catalog.CreatePlugin(r.Context(), req.toDomain())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPluginResponse(plugin, h.canViewSystemNotes(r)))
}

func (h *Handler) updatePlugin(w http.ResponseWriter, r *http.Request) {
	if !h.requireWrite(w, r) {
		return
	}
	id, ok := parseInt64Param(w, r, "id")
	if !ok {
		return
	}
	var req pluginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	plugin, err := h.catalog.UpdatePlugin(r.Context(), id, req.toDomain())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPluginResponse(plugin, h.canViewSystemNotes(r)))
}

func (h *Handler) getPlugin(w http.ResponseWriter, r *http.Request) {
	id, ok := parseInt64Param(w, r, "id")
	if !ok {
		return
	}
	plugin, err := h.catalog.GetPlugin(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPluginResponse(plugin, h.canViewSystemNotes(r)))
}

func (h *Handler) listPlugins(w http.ResponseWriter, r *http.Request) {
	plugins, err := h.catalog.ListPlugins(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	withNotes := h.canViewSystemNotes(r)
	result := make([]pluginResponse, 0, len(plugins))
	for _, plugin := range plugins {
		result = append(result, toPluginResponse(plugin, withNotes))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": result})
}

func (h *Handler) deletePlugin(w http.ResponseWriter, r *http.Request) {
	if !h.requireDelete(w, r) {
		return
	}
	id, ok := parseInt64Param(w, r, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeletePlugin(r.Context(), id); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

type languageRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
}

type languageResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func toLanguageResponse(l domain.Language) languageResponse {
	return languageResponse{
		ID:          l.ID,
		Name:        l.Name,
		Description: l.Description,
		Active:      l.Active,
		CreatedAt:   l.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt:   l.UpdatedAt.UTC().Format(timeFormat),
	}
}

func (h *Handler) createLanguage(w http.ResponseWriter, r *http.Request) {
	if !h.requireCreate(w, r) {
		return
	}
	var req languageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	language, err := h.catalog.CreateLanguage(r.Context(), domain.Language{
		Name:        req.Name,
		Description: req.Description,
		Active:      req.Active,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLanguageResponse(language))
}

func (h *Handler) updateLanguage(w http.ResponseWriter, r *http.Request) {
	if !h.requireWrite(w, r) {
		return
	}
	id, ok := parseInt64Param(w, r, "id")
	if !ok {
		return
	}
	var req languageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	language, err := h.catalog.UpdateLanguage(r.Context(), id, domain.Language{
		Name:        req.Name,
		Description: req.Description,
		Active:      req.Active,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLanguageResponse(language))
}

func (h *Handler) getLanguage(w http.ResponseWriter, r *http.Request) {
	id, ok := parseInt64Param(w, r, "id")
	if !ok {
		return
	}
	language, err := h.catalog.GetLanguage(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLanguageResponse(language))
}

func (h *Handler) listLanguages(w http.ResponseWriter, r *http.Request) {
	languages, err := h.catalog.ListLanguages(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	result := make([]languageResponse, 0, len(languages))
	for _, language := range languages {
		result = append(result, toLanguageResponse(language))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": result})
}

func (h *Handler) deleteLanguage(w http.ResponseWriter, r *http.Request) {
	if !h.requireDelete(w, r) {
		return
	}
	id, ok := parseInt64Param(w, r, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteLanguage(r.Context(), id); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

type datastoreRequest struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Description  string `json:"description"`
	Active       bool   `json:"active"`
	ManagerNotes string `json:"manager_notes"`
}

type datastoreResponse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	Description  string `json:"description"`
	Active       bool   `json:"active"`
	ManagerNotes string `json:"manager_notes,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

func toDatastoreResponse(d domain.Datastore, withNotes bool) datastoreResponse {
	resp := datastoreResponse{
		ID:          d.ID,
		Name:        d.Name,
		Type:        d.Type,
		Description: d.Description,
		Active:      d.Active,
		CreatedAt:   d.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt:   d.UpdatedAt.UTC().Format(timeFormat),
	}
	if withNotes {
		resp.ManagerNotes = d.ManagerNotes
	}
	return resp
}

func (h *Handler) createDatastore(w http.ResponseWriter, r *http.Request) {
	if !h.requireCreate(w, r) {
		return
	}
	var req datastoreRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	store, err := h.catalog.CreateDatastore(r.Context(), domain.Datastore{
		Name:         req.Name,
		Type:         req.Type,
		Description:  req.Description,
		Active:       req.Active,
		ManagerNotes: req.ManagerNotes,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDatastoreResponse(store, h.canViewSystemNotes(r)))
}

func (h *Handler) updateDatastore(w http.ResponseWriter, r *http.Request) {
	if !h.requireWrite(w, r) {
		return
	}
	id, ok := parseInt64Param(w, r, "id")
	if !ok {
		return
	}
	var req datastoreRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	store, err := h.catalog.UpdateDatastore(r.Context(), id, domain.Datastore{
		Name:         req.Name,
		Type:         req.Type,
		Description:  req.Description,
		Active:       req.Active,
		ManagerNotes: req.ManagerNotes,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDatastoreResponse(store, h.canViewSystemNotes(r)))
}

func (h *Handler) getDatastore(w http.ResponseWriter, r *http.Request) {
	id, ok := parseInt64Param(w, r, "id")
	if !ok {
		return
	}
	store, err := h.catalog.GetDatastore(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDatastoreResponse(store, h.canViewSystemNotes(r)))
}

func (h *Handler) listDatastores(w http.ResponseWriter, r *http.Request) {
	stores, err := h.catalog.ListDatastores(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	withNotes := h.canViewSystemNotes(r)
	result := make([]datastoreResponse, 0, len(stores))
	for _, store := range stores {
		result = append(result, toDatastoreResponse(store, withNotes))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": result})
}

func (h *Handler) deleteDatastore(w http.ResponseWriter, r *http.Request) {
	if !h.requireDelete(w, r) {
		return
	}
	id, ok := parseInt64Param(w, r, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteDatastore(r.Context(), id); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

type serverRequest struct {
	Name            string `json:"name"`
	Hostname        string `json:"hostname"`
	IPAddress       string `json:"ip_address"`
	EnvironmentType string `json:"environment_type"`
	OS              string `json:"operating_system"`
	OSVersion       string `json:"os_version"`
	CloudPlatformID *int64 `json:"cloud_platform_id"`
	CloudInstanceID string `json:"cloud_instance_id"`
	CloudRegion     string `json:"cloud_region"`
	CPUCores        *int64 `json:"cpu_cores"`
	MemoryGB        *int64 `json:"memory_gb"`
	StorageGB       *int64 `json:"storage_gb"`
	Active          bool   `json:"active"`
	Notes           string `json:"notes"`
	ManagerNotes    string `json:"manager_notes"`
}

type serverResponse struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Hostname        string `json:"hostname"`
	IPAddress       string `json:"ip_address"`
	EnvironmentType string `json:"environment_type"`
	OS              string `json:"operating_system"`
	OSVersion       string `json:"os_version"`
	CloudPlatformID *int64 `json:"cloud_platform_id,omitempty"`
	CloudInstanceID string `json:"cloud_instance_id,omitempty"`
	CloudRegion     string `json:"cloud_region,omitempty"`
	CPUCores        *int64 `json:"cpu_cores,omitempty"`
	MemoryGB        *int64 `json:"memory_gb,omitempty"`
	StorageGB       *int64 `json:"storage_gb,omitempty"`
	Active          bool   `json:"active"`
	Notes           string `json:"notes"`
	ManagerNotes    string `json:"manager_notes,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

func (req serverRequest) toDomain() domain.Server {
	return domain.Server{
		Name:            req.Name,
		Hostname:        req.Hostname,
		IPAddress:       req.IPAddress,
		EnvironmentType: req.EnvironmentType,
		OS:              req.OS,
		OSVersion:       req.OSVersion,
		CloudPlatformID: req.CloudPlatformID,
		CloudInstanceID: req.CloudInstanceID,
		CloudRegion:     req.CloudRegion,
		CPUCores:        req.CPUCores,
		MemoryGB:        req.MemoryGB,
		StorageGB:       req.StorageGB,
		Active:          req.Active,
		Notes:           req.Notes,
		ManagerNotes:    req.ManagerNotes,
	}
}

func toServerResponse(s domain.Server, withNotes bool) serverResponse {
	resp := serverResponse{
		ID:              s.ID,
		Name:            s.Name,
		Hostname:        s.Hostname,
		IPAddress:       s.IPAddress,
		EnvironmentType: s.EnvironmentType,
		OS:              s.OS,
		OSVersion:       s.OSVersion,
		CloudPlatformID: s.CloudPlatformID,
		CloudInstanceID: s.CloudInstanceID,
		CloudRegion:     s.CloudRegion,
		CPUCores:        s.CPUCores,
		MemoryGB:        s.MemoryGB,
		StorageGB:       s.StorageGB,
		Active:          s.Active,
		Notes:           s.Notes,
		CreatedAt:       s.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt:       s.UpdatedAt.UTC().Format(timeFormat),
	}
	if withNotes {
		resp.ManagerNotes = s.ManagerNotes
	}
	return resp
}

func (h *Handler) createServer(w http.ResponseWriter, r *http.Request) {
	if !h.requireCreate(w, r) {
		return
	}
	var req serverRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	server, err := h.servers.Create(r.Context(), req.toDomain())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toServerResponse(server, h.canViewSystemNotes(r)))
}

func (h *Handler) updateServer(w http.ResponseWriter, r *http.Request) {
	if !h.requireWrite(w, r) {
		return
	}
	id, ok := parseInt64Param(w, r, "id")
	if !ok {
		return
	}
	var req serverRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	server, err := h.servers.Update(r.Context(), id, req.toDomain())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toServerResponse(server, h.canViewSystemNotes(r)))
}

func (h *Handler) getServer(w http.ResponseWriter, r *http.Request) {
	id, ok := parseInt64Param(w, r, "id")
	if !ok {
		return
	}
	server, err := h.servers.Get(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toServerResponse(server, h.canViewSystemNotes(r)))
}

func (h *Handler) listServers(w http.ResponseWriter, r *http.Request) {
	servers, err := h.servers.List(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	withNotes := h.canViewSystemNotes(r)
	result := make([]serverResponse, 0, len(servers))
	for _, server := range servers {
		result = append(result, toServerResponse(server, withNotes))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": result})
}

func (h *Handler) deleteServer(w http.ResponseWriter, r *http.Request) {
	if !h.requireDelete(w, r) {
		return
	}
	id, ok := parseInt64Param(w, r, "id")
	if !ok {
		return
	}
	if err := h.servers.Delete(r.Context(), id); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

type installationRequest struct {
	ServerID     int64  `json:"server_id"`
	LanguageID   int64  `json:"language_id"`
	Version      string `json:"version"`
	Path         string `json:"path"`
	Default      bool   `json:"default"`
	Notes        string `json:"notes"`
	ManagerNotes string `json:"manager_notes"`
}

type installationResponse struct {
	ID           int64  `json:"id"`
	ServerID     int64  `json:"server_id"`
	LanguageID   int64  `json:"language_id"`
	Version      string `json:"version"`
	Path         string `json:"path"`
	Default      bool   `json:"default"`
	Notes        string `json:"notes"`
	ManagerNotes string `json:"manager_notes,omitempty"`
	Language     string `json:"language"`
	Server       string `json:"server"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

func (req installationRequest) toDomain() domain.LanguageInstallation {
	return domain.LanguageInstallation{
		ServerID:     req.ServerID,
		LanguageID:   req.LanguageID,
		Version:      req.Version,
		Path:         req.Path,
		Default:      req.Default,
		Notes:        req.Notes,
		ManagerNotes: req.ManagerNotes,
	}
}

func toInstallationResponse(i domain.LanguageInstallation, withNotes bool) installationResponse {
	resp := installationResponse{
		ID:         i.ID,
		ServerID:   i.ServerID,
		LanguageID: i.LanguageID,
		Version:    i.Version,
		Path:       i.Path,
		Default:    i.Default,
		Notes:      i.Notes,
		Language:   i.LanguageName,
		Server:     i.ServerHostname,
		CreatedAt:  i.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt:  i.UpdatedAt.UTC().Format(timeFormat),
	}
	if withNotes {
		resp.ManagerNotes = i.ManagerNotes
	}
	return resp
}

func (h *Handler) createInstallation(w http.ResponseWriter, r *http.Request) {
	if !h.requireCreate(w, r) {
		return
	}
	var req installationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	inst, err := h.servers.CreateInstallation(r.Context(), req.toDomain())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toInstallationResponse(inst, h.canViewSystemNotes(r)))
}

func (h *Handler) updateInstallation(w http.ResponseWriter, r *http.Request) {
	if !h.requireWrite(w, r) {
		return
	}
	id, ok := parseInt64Param(w, r, "id")
	if !ok {
		return
	}
	var req installationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	inst, err := h.servers.UpdateInstallation(r.Context(), id, req.toDomain())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInstallationResponse(inst, h.canViewSystemNotes(r)))
}

func (h *Handler) getInstallation(w http.ResponseWriter, r *http.Request) {
	id, ok := parseInt64Param(w, r, "id")
	if !ok {
		return
	}
	inst, err := h.servers.GetInstallation(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInstallationResponse(inst, h.canViewSystemNotes(r)))
}

func (h *Handler) listInstallations(w http.ResponseWriter, r *http.Request) {
	serverID, ok := parseOptionalInt64Query(w, r, "server")
	if !ok {
		return
	}
	installations, err := h.servers.ListInstallations(r.Context(), serverID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	withNotes := h.canViewSystemNotes(r)
	result := make([]installationResponse, 0, len(installations))
	for _, inst := range installations {
		result = append(result, toInstallationResponse(inst, withNotes))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": result})
}

func (h *Handler) deleteInstallation(w http.ResponseWriter, r *http.Request) {
	if !h.requireDelete(w, r) {
		return
	}
	id, ok := parseInt64Param(w, r, "id")
	if !ok {
		return
	}
	if err := h.servers.DeleteInstallation(r.Context(), id); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

type instanceRequest struct {
	ServerID     int64  `json:"server_id"`
	DatastoreID  int64  `json:"datastore_id"`
	Version      string `json:"version"`
	InstanceName string `json:"instance_name"`
	Port         *int64 `json:"port"`
	Connection   string `json:"connection"`
	Active       bool   `json:"active"`
	Notes        string `json:"notes"`
	ManagerNotes string `json:"manager_notes"`
}

type instanceResponse struct {
	ID           int64  `json:"id"`
	ServerID     int64  `json:"server_id"`
	DatastoreID  int64  `json:"datastore_id"`
	Version      string `json:"version"`
	InstanceName string `json:"instance_name"`
	Port         *int64 `json:"port,omitempty"`
	Connection   string `json:"connection,omitempty"`
	Active       bool   `json:"active"`
	Notes        string `json:"notes"`
	ManagerNotes string `json:"manager_notes,omitempty"`
	Datastore    string `json:"datastore"`
	Server       string `json:"server"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

func (req instanceRequest) toDomain() domain.DatastoreInstance {
	return domain.DatastoreInstance{
		ServerID:     req.ServerID,
		DatastoreID:  req.DatastoreID,
		Version:      req.Version,
		InstanceName: req.InstanceName,
		Port:         req.Port,
		Connection:   req.Connection,
		Active:       req.Active,
		Notes:        req.Notes,
		ManagerNotes: req.ManagerNotes,
	}
}

func toInstanceResponse(i domain.DatastoreInstance, withNotes bool) instanceResponse {
	resp := instanceResponse{
		ID:           i.ID,
		ServerID:     i.ServerID,
		DatastoreID:  i.DatastoreID,
		Version:      i.Version,
		InstanceName: i.InstanceName,
		Port:         i.Port,
		Connection:   i.Connection,
		Active:       i.Active,
		Notes:        i.Notes,
		Datastore:    i.DatastoreName,
		Server:       i.ServerHostname,
		CreatedAt:    i.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt:    i.UpdatedAt.UTC().Format(timeFormat),
	}
	if withNotes {
		resp.ManagerNotes = i.ManagerNotes
	}
	return resp
}

func (h *Handler) createInstance(w http.ResponseWriter, r *http.Request) {
	if !h.requireCreate(w, r) {
		return
	}
	var req instanceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	inst, err := h.servers.CreateInstance(r.Context(), req.toDomain())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toInstanceResponse(inst, h.canViewSystemNotes(r)))
}

func (h *Handler) updateInstance(w http.ResponseWriter, r *http.Request) {
	if !h.requireWrite(w, r) {
		return
	}
	id, ok := parseInt64Param(w, r, "id")
	if !ok {
		return
	}
	var req instanceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	inst, err := h.servers.UpdateInstance(r.Context(), id, req.toDomain())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInstanceResponse(inst, h.canViewSystemNotes(r)))
}

func (h *Handler) getInstance(w http.ResponseWriter, r *http.Request) {
	id, ok := parseInt64Param(w, r, "id")
	if !ok {
		return
	}
	inst, err := h.servers.GetInstance(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInstanceResponse(inst, h.canViewSystemNotes(r)))
}

func (h *Handler) listInstances(w http.ResponseWriter, r *http.Request) {
	serverID, ok := parseOptionalInt64Query(w, r, "server")
	if !ok {
		return
	}
	instances, err := h.servers.ListInstances(r.Context(), serverID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	withNotes := h.canViewSystemNotes(r)
	result := make([]instanceResponse, 0, len(instances))
	for _, inst := range instances {
		result = append(result, toInstanceResponse(inst, withNotes))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": result})
}

func (h *Handler) deleteInstance(w http.ResponseWriter, r *http.Request) {
	if !h.requireDelete(w, r) {
		return
	}
	id, ok := parseInt64Param(w, r, "id")
	if !ok {
		return
	}
	if err := h.servers.DeleteInstance(r.Context(), id); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

type applicationRequest struct {
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	BusinessPurpose string          `json:"business_purpose"`
	LifecycleStage  string          `json:"lifecycle_stage"`
	Criticality     string          `json:"criticality"`
	BusinessOwner   string          `json:"business_owner"`
	TechnicalOwner  string          `json:"technical_owner"`
	PrimaryServerID int64           `json:"primary_server_id"`
	Version         string          `json:"version"`
	DeploymentPath  string          `json:"deployment_path"`
	UsesLDAP        bool            `json:"uses_ldap"`
	LDAPConfig      json.RawMessage `json:"ldap_config"`
	Active          bool            `json:"active"`
	Notes           string          `json:"notes"`
	ManagerNotes    string          `json:"manager_notes"`
}

type applicationResponse struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	BusinessPurpose string          `json:"business_purpose"`
	LifecycleStage  string          `json:"lifecycle_stage"`
	Criticality     string          `json:"criticality"`
	BusinessOwner   string          `json:"business_owner"`
	TechnicalOwner  string          `json:"technical_owner"`
	PrimaryServerID int64           `json:"primary_server_id"`
	Version         string          `json:"version"`
	DeploymentPath  string          `json:"deployment_path"`
	UsesLDAP        bool            `json:"uses_ldap"`
	LDAPConfig      json.RawMessage `json:"ldap_config,omitempty"`
	Active          bool            `json:"active"`
	Notes           string          `json:"notes"`
	ManagerNotes    string          `json:"manager_notes,omitempty"`
	CreatedAt       string          `json:"created_at"`
	UpdatedAt       string          `json:"updated_at"`
}

func (req applicationRequest) toDomain() domain.Application {
	return domain.Application{
		Name:            req.Name,
		Description:     req.Description,
		BusinessPurpose: req.BusinessPurpose,
		LifecycleStage:  req.LifecycleStage,
		Criticality:     req.Criticality,
		BusinessOwner:   req.BusinessOwner,
		TechnicalOwner:  req.TechnicalOwner,
		PrimaryServerID: req.PrimaryServerID,
		Version:         req.Version,
		DeploymentPath:  req.DeploymentPath,
		UsesLDAP:        req.UsesLDAP,
		LDAPConfig:      req.LDAPConfig,
		Active:          req.Active,
		Notes:           req.Notes,
		ManagerNotes:    req.ManagerNotes,
	}
}

func toApplicationResponse(a domain.Application, withNotes bool) applicationResponse {
	resp := applicationResponse{
		ID:              a.ID.String(),
		Name:            a.Name,
		Description:     a.Description,
		BusinessPurpose: a.BusinessPurpose,
		LifecycleStage:  a.LifecycleStage,
		Criticality:     a.Criticality,
		BusinessOwner:   a.BusinessOwner,
		TechnicalOwner:  a.TechnicalOwner,
		PrimaryServerID: a.PrimaryServerID,
		Version:         a.Version,
		DeploymentPath:  a.DeploymentPath,
		UsesLDAP:        a.UsesLDAP,
		LDAPConfig:      a.LDAPConfig,
		Active:          a.Active,
		Notes:           a.Notes,
		CreatedAt:       a.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt:       a.UpdatedAt.UTC().Format(timeFormat),
	}
	if withNotes {
		resp.ManagerNotes = a.ManagerNotes
	}
	return resp
}

func parseUUIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, name+" must be a uuid")
		return uuid.Nil, false
	}
	return id, true
}

func parseOptionalInt64Query(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, name+" must be integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) createApplication(w http.ResponseWriter, r *http.Request) {
	if !h.requireCreate(w, r) {
		return
	}
	var req applicationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	app, err := h.apps.Create(r.Context(), req.toDomain())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toApplicationResponse(app, h.canViewSystemNotes(r)))
}

func (h *Handler) updateApplication(w http.ResponseWriter, r *http.Request) {
	if !h.requireWrite(w, r) {
		return
	}
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}
	var req applicationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	app, err := h.apps.Update(r.Context(), id, req.toDomain())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toApplicationResponse(app, h.canViewSystemNotes(r)))
}

func (h *Handler) getApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}
	app, err := h.apps.Get(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toApplicationResponse(app, h.canViewSystemNotes(r)))
}

func (h *Handler) listApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := h.apps.List(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	withNotes := h.canViewSystemNotes(r)
	result := make([]applicationResponse, 0, len(apps))
	for _, app := range apps {
		result = append(result, toApplicationResponse(app, withNotes))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": result})
}

func (h *Handler) deleteApplication(w http.ResponseWriter, r *http.Request) {
	if !h.requireDelete(w, r) {
		return
	}
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.apps.Delete(r.Context(), id); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

type lifecycleEventResponse struct {
	ID          int64  `json:"id"`
	FromStage   string `json:"from_stage"`
	ToStage     string `json:"to_stage"`
	EventDate   string `json:"event_date"`
	Notes       string `json:"notes"`
	PerformedBy string `json:"performed_by"`
}

func (h *Handler) listLifecycleEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}
	events, err := h.apps.ListLifecycleEvents(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	result := make([]lifecycleEventResponse, 0, len(events))
	for _, ev := range events {
		result = append(result, lifecycleEventResponse{
			ID:          ev.ID,
			FromStage:   ev.FromStage,
			ToStage:     ev.ToStage,
			EventDate:   ev.EventDate.UTC().Format(timeFormat),
			Notes:       ev.Notes,
			PerformedBy: ev.PerformedBy,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": result})
}

type languageDependencyRequest struct {
	InstallationID int64  `json:"installation_id"`
	Primary        bool   `json:"primary"`
	Notes          string `json:"notes"`
	ManagerNotes   string `json:"manager_notes"`
}

type languageDependencyResponse struct {
	ID             int64  `json:"id"`
	ApplicationID  string `json:"application_id"`
	InstallationID int64  `json:"installation_id"`
	Primary        bool   `json:"primary"`
	Notes          string `json:"notes"`
	ManagerNotes   string `json:"manager_notes,omitempty"`
	Installation   string `json:"installation"`
	CreatedAt      string `json:"created_at"`
}

func toLanguageDependencyResponse(d domain.LanguageDependency, withNotes bool) languageDependencyResponse {
	resp := languageDependencyResponse{
		ID:             d.ID,
		ApplicationID:  d.ApplicationID.String(),
		InstallationID: d.InstallationID,
		Primary:        d.Primary,
		Notes:          d.Notes,
		Installation:   d.InstallationLabel,
		CreatedAt:      d.CreatedAt.UTC().Format(timeFormat),
	}
	if withNotes {
		resp.ManagerNotes = d.ManagerNotes
	}
	return resp
}

func (h *Handler) addLanguageDependency(w http.ResponseWriter, r *http.Request) {
	if !h.requireCreate(w, r) {
		return
	}
	appID, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}
	var req languageDependencyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	dep, err := h.apps.AddLanguageDependency(r.Context(), domain.LanguageDependency{
		ApplicationID:  appID,
		InstallationID: req.InstallationID,
		Primary:        req.Primary,
		Notes:          req.Notes,
		ManagerNotes:   req.ManagerNotes,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLanguageDependencyResponse(dep, h.canViewSystemNotes(r)))
}

func (h *Handler) listLanguageDependencies(w http.ResponseWriter, r *http.Request) {
	appID, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}
	deps, err := h.apps.ListLanguageDependencies(r.Context(), appID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	withNotes := h.canViewSystemNotes(r)
	result := make([]languageDependencyResponse, 0, len(deps))
	for _, dep := range deps {
		result = append(result, toLanguageDependencyResponse(dep, withNotes))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": result})
}

func (h *Handler) removeLanguageDependency(w http.ResponseWriter, r *http.Request) {
	if !h.requireDelete(w, r) {
		return
	}
	id, ok := parseInt64Param(w, r, "id")
	if !ok {
		return
	}
	if err := h.apps.RemoveLanguageDependency(r.Context(), id); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

type datastoreDependencyRequest struct {
	InstanceID     int64  `json:"instance_id"`
	Primary        bool   `json:"primary"`
	ConnectionType string `json:"connection_type"`
	Notes          string `json:"notes"`
	ManagerNotes   string `json:"manager_notes"`
}

type datastoreDependencyResponse struct {
	ID             int64  `json:"id"`
	ApplicationID  string `json:"application_id"`
	InstanceID     int64  `json:"instance_id"`
	Primary        bool   `json:"primary"`
	ConnectionType string `json:"connection_type"`
	Notes          string `json:"notes"`
	ManagerNotes   string `json:"manager_notes,omitempty"`
	Instance       string `json:"instance"`
	CreatedAt      string `json:"created_at"`
}

func toDatastoreDependencyResponse(d domain.DatastoreDependency, withNotes bool) datastoreDependencyResponse {
	resp := datastoreDependencyResponse{
		ID:             d.ID,
		ApplicationID:  d.ApplicationID.String(),
		InstanceID:     d.InstanceID,
		Primary:        d.Primary,
		ConnectionType: d.ConnectionType,
		Notes:          d.Notes,
		Instance:       d.InstanceLabel,
		CreatedAt:      d.CreatedAt.UTC().Format(timeFormat),
	}
	if withNotes {
		resp.ManagerNotes = d.ManagerNotes
	}
	return resp
}

func (h *Handler) addDatastoreDependency(w http.ResponseWriter, r *http.Request) {
	if !h.requireCreate(w, r) {
		return
	}
	appID, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}
	var req datastoreDependencyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	dep, err := h.apps.AddDatastoreDependency(r.Context(), domain.DatastoreDependency{
		ApplicationID:  appID,
		InstanceID:     req.InstanceID,
		Primary:        req.Primary,
		ConnectionType: req.ConnectionType,
		Notes:          req.Notes,
		ManagerNotes:   req.ManagerNotes,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDatastoreDependencyResponse(dep, h.canViewSystemNotes(r)))
}

func (h *Handler) listDatastoreDependencies(w http.ResponseWriter, r *http.Request) {
	appID, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}
	deps, err := h.apps.ListDatastoreDependencies(r.Context(), appID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	withNotes := h.canViewSystemNotes(r)
	result := make([]datastoreDependencyResponse, 0, len(deps))
	for _, dep := range deps {
		result = append(result, toDatastoreDependencyResponse(dep, withNotes))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": result})
}

func (h *Handler) removeDatastoreDependency(w http.ResponseWriter, r *http.Request) {
	if !h.requireDelete(w, r) {
		return
	}
	id, ok := parseInt64Param(w, r, "id")
	if !ok {
		return
	}
	if err := h.apps.RemoveDatastoreDependency(r.Context(), id); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
