// Package sqlite persists the inventory behind the core repository ports.
package sqlite

import (
	"encoding/json"
	"time"

	"github.com/opsenary/apptracker/internal/core/domain"
)

type userModel struct {
	ID                  int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Username            string    `gorm:"column:username;not null;uniqueIndex"`
	FullName            string    `gorm:"column:full_name;not null"`
	Role                string    `gorm:"column:role;not null"`
	Active              bool      `gorm:"column:active;not null"`
	DocumentationAccess bool      `gorm:"column:documentation_access;not null"`
	Department          string    `gorm:"column:department;not null"`
	Phone               string    `gorm:"column:phone;not null"`
	Notes               string    `gorm:"column:notes;not null"`
	CreatedAt           time.Time `gorm:"column:created_at;not null"`
	UpdatedAt           time.Time `gorm:"column:updated_at;not null"`
	CreatedByID         *int64    `gorm:"column:created_by_id"`
}

func (userModel) TableName() string { return "users" }

func (m userModel) toDomain() domain.User {
	return domain.User{
		ID:                  m.ID,
		Username:            m.Username,
		FullName:            m.FullName,
		Role:                m.Role,
		Active:              m.Active,
		DocumentationAccess: m.DocumentationAccess,
		Department:          m.Department,
		Phone:               m.Phone,
		Notes:               m.Notes,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
		CreatedByID:         m.CreatedByID,
	}
}

func userToModel(u domain.User) userModel {
	return userModel{
		ID:                  u.ID,
		Username:            u.Username,
		FullName:            u.FullName,
		Role:                u.Role,
		Active:              u.Active,
		DocumentationAccess: u.DocumentationAccess,
		Department:          u.Department,
		Phone:               u.Phone,
		Notes:               u.Notes,
		CreatedAt:           u.CreatedAt,
		UpdatedAt:           u.UpdatedAt,
		CreatedByID:         u.CreatedByID,
	}
}

type userTokenModel struct {
	TokenHash string    `gorm:"column:token_hash;primaryKey"`
	UserID    int64     `gorm:"column:user_id;not null"`
	Name      string    `gorm:"column:name;not null"`
	Active    bool      `gorm:"column:active;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (userTokenModel) TableName() string { return "user_tokens" }

type cloudPlatformModel struct {
	ID            int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name          string    `gorm:"column:name;not null"`
	Code          string    `gorm:"column:code;not null;uniqueIndex"`
	Description   string    `gorm:"column:description;not null"`
	Active        bool      `gorm:"column:active;not null"`
	PluginEnabled bool      `gorm:"column:plugin_enabled;not null"`
	PluginConfig  string    `gorm:"column:plugin_config;not null"`
	ManagerNotes  string    `gorm:"column:manager_notes;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;not null"`
	UpdatedAt     time.Time `gorm:"column:updated_at;not null"`
	CreatedByID   *int64    `gorm:"column:created_by_id"`
	UpdatedByID   *int64    `gorm:"column:updated_by_id"`
}

func (cloudPlatformModel) TableName() string { return "cloud_platforms" }

func (m cloudPlatformModel) toDomain() domain.CloudPlatform {
	return domain.CloudPlatform{
		ID:            m.ID,
		Name:          m.Name,
		Code:          m.Code,
		Description:   m.Description,
		Active:        m.Active,
		PluginEnabled: m.PluginEnabled,
		PluginConfig:  rawJSON(m.PluginConfig),
		ManagerNotes:  m.ManagerNotes,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
		CreatedByID:   m.CreatedByID,
		UpdatedByID:   m.UpdatedByID,
	}
}

func platformToModel(p domain.CloudPlatform) cloudPlatformModel {
	return cloudPlatformModel{
		ID:            p.ID,
		Name:          p.Name,
		Code:          p.Code,
		Description:   p.Description,
		Active:        p.Active,
		PluginEnabled: p.PluginEnabled,
		PluginConfig:  string(p.PluginConfig),
		ManagerNotes:  p.ManagerNotes,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
		CreatedByID:   p.CreatedByID,
		UpdatedByID:   p.UpdatedByID,
	}
}

type cloudPluginModel struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name         string    `gorm:"column:name;not null"`
	PlatformID   int64     `gorm:"column:platform_id;not null;index"`
	Module       string    `gorm:"column:module;not null"`
	Version      string    `gorm:"column:version;not null"`
	Description  string    `gorm:"column:description;not null"`
	Enabled      bool      `gorm:"column:enabled;not null"`
	ConfigSchema string    `gorm:"column:config_schema;not null"`
	ManagerNotes string    `gorm:"column:manager_notes;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
	UpdatedAt    time.Time `gorm:"column:updated_at;not null"`
}

func (cloudPluginModel) TableName() string { return "cloud_plugins" }

func (m cloudPluginModel) toDomain() domain.CloudPlugin {
	return domain.CloudPlugin{
		ID:           m.ID,
		Name:         m.Name,
		PlatformID:   m.PlatformID,
		Module:       m.Module,
		Version:      m.Version,
		Description:  m.Description,
		Enabled:      m.Enabled,
		ConfigSchema: rawJSON(m.ConfigSchema),
		ManagerNotes: m.ManagerNotes,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func pluginToModel(p domain.CloudPlugin) cloudPluginModel {
	return cloudPluginModel{
		ID:           p.ID,
		Name:         p.Name,
		PlatformID:   p.PlatformID,
		Module:       p.Module,
		Version:      p.Version,
		Description:  p.Description,
		Enabled:      p.Enabled,
		ConfigSchema: string(p.ConfigSchema),
		ManagerNotes: p.ManagerNotes,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

type serverModel struct {
	ID              int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name            string    `gorm:"column:name;not null"`
	Hostname        string    `gorm:"column:hostname;not null;uniqueIndex"`
	IPAddress       string    `gorm:"column:ip_address;not null"`
	EnvironmentType string    `gorm:"column:environment_type;not null"`
	OS              string    `gorm:"column:os;not null"`
	OSVersion       string    `gorm:"column:os_version;not null"`
	CloudPlatformID *int64    `gorm:"column:cloud_platform_id"`
	CloudInstanceID string    `gorm:"column:cloud_instance_id;not null"`
	CloudRegion     string    `gorm:"column:cloud_region;not null"`
	CPUCores        *int64    `gorm:"column:cpu_cores"`
	MemoryGB        *int64    `gorm:"column:memory_gb"`
	StorageGB       *int64    `gorm:"column:storage_gb"`
	Active          bool      `gorm:"column:active;not null"`
	Notes           string    `gorm:"column:notes;not null"`
	ManagerNotes    string    `gorm:"column:manager_notes;not null"`
	CreatedAt       time.Time `gorm:"column:created_at;not null"`
	UpdatedAt       time.Time `gorm:"column:updated_at;not null"`
	CreatedByID     *int64    `gorm:"column:created_by_id"`
	UpdatedByID     *int64    `gorm:"column:updated_by_id"`
}

func (serverModel) TableName() string { return "servers" }

func (m serverModel) toDomain() domain.Server {
	return domain.Server{
		ID:              m.ID,
		Name:            m.Name,
		Hostname:        m.Hostname,
		IPAddress:       m.IPAddress,
		EnvironmentType: m.EnvironmentType,
		OS:              m.OS,
		OSVersion:       m.OSVersion,
		CloudPlatformID: m.CloudPlatformID,
		CloudInstanceID: m.CloudInstanceID,
		CloudRegion:     m.CloudRegion,
		CPUCores:        m.CPUCores,
		MemoryGB:        m.MemoryGB,
		StorageGB:       m.StorageGB,
		Active:          m.Active,
		Notes:           m.Notes,
		ManagerNotes:    m.ManagerNotes,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
		CreatedByID:     m.CreatedByID,
		UpdatedByID:     m.UpdatedByID,
	}
}

func serverToModel(s domain.Server) serverModel {
	return serverModel{
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
		ManagerNotes:    s.ManagerNotes,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
		CreatedByID:     s.CreatedByID,
		UpdatedByID:     s.UpdatedByID,
	}
}

type languageModel struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string    `gorm:"column:name;not null;uniqueIndex"`
	Description string    `gorm:"column:description;not null"`
	Active      bool      `gorm:"column:active;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;not null"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null"`
}

func (languageModel) TableName() string { return "languages" }

func (m languageModel) toDomain() domain.Language {
	return domain.Language{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Active:      m.Active,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

type datastoreModel struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name         string    `gorm:"column:name;not null;uniqueIndex"`
	Type         string    `gorm:"column:datastore_type;not null"`
	Description  string    `gorm:"column:description;not null"`
	Active       bool      `gorm:"column:active;not null"`
	ManagerNotes string    `gorm:"column:manager_notes;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
	UpdatedAt    time.Time `gorm:"column:updated_at;not null"`
	CreatedByID  *int64    `gorm:"column:created_by_id"`
	UpdatedByID  *int64    `gorm:"column:updated_by_id"`
}

func (datastoreModel) TableName() string { return "datastores" }

func (m datastoreModel) toDomain() domain.Datastore {
	return domain.Datastore{
		ID:           m.ID,
		Name:         m.Name,
		Type:         m.Type,
		Description:  m.Description,
		Active:       m.Active,
		ManagerNotes: m.ManagerNotes,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
		CreatedByID:  m.CreatedByID,
		UpdatedByID:  m.UpdatedByID,
	}
}

type languageInstallationModel struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ServerID     int64     `gorm:"column:server_id;not null;index"`
	LanguageID   int64     `gorm:"column:language_id;not null;index"`
	Version      string    `gorm:"column:version;not null"`
	Path         string    `gorm:"column:path;not null"`
	Default      bool      `gorm:"column:is_default;not null"`
	Notes        string    `gorm:"column:notes;not null"`
	ManagerNotes string    `gorm:"column:manager_notes;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
	UpdatedAt    time.Time `gorm:"column:updated_at;not null"`
	CreatedByID  *int64    `gorm:"column:created_by_id"`
	UpdatedByID  *int64    `gorm:"column:updated_by_id"`

	LanguageName   string `gorm:"->;-:migration"`
	ServerHostname string `gorm:"->;-:migration"`
}

func (languageInstallationModel) TableName() string { return "language_installations" }

func (m languageInstallationModel) toDomain() domain.LanguageInstallation {
	return domain.LanguageInstallation{
		ID:             m.ID,
		ServerID:       m.ServerID,
		LanguageID:     m.LanguageID,
		Version:        m.Version,
		Path:           m.Path,
		Default:        m.Default,
		Notes:          m.Notes,
		ManagerNotes:   m.ManagerNotes,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
		CreatedByID:    m.CreatedByID,
		UpdatedByID:    m.UpdatedByID,
		LanguageName:   m.LanguageName,
		ServerHostname: m.ServerHostname,
	}
}

type datastoreInstanceModel struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ServerID     int64     `gorm:"column:server_id;not null;index"`
	DatastoreID  int64     `gorm:"column:datastore_id;not null;index"`
	Version      string    `gorm:"column:version;not null"`
	InstanceName string    `gorm:"column:instance_name;not null"`
	Port         *int64    `gorm:"column:port"`
	Connection   string    `gorm:"column:connection;not null"`
	Active       bool      `gorm:"column:active;not null"`
	Notes        string    `gorm:"column:notes;not null"`
	ManagerNotes string    `gorm:"column:manager_notes;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
	UpdatedAt    time.Time `gorm:"column:updated_at;not null"`
	CreatedByID  *int64    `gorm:"column:created_by_id"`
	UpdatedByID  *int64    `gorm:"column:updated_by_id"`

	DatastoreName  string `gorm:"->;-:migration"`
	ServerHostname string `gorm:"->;-:migration"`
}

func (datastoreInstanceModel) TableName() string { return "datastore_instances" }

func (m datastoreInstanceModel) toDomain() domain.DatastoreInstance {
	return domain.DatastoreInstance{
		ID:             m.ID,
		ServerID:       m.ServerID,
		DatastoreID:    m.DatastoreID,
		Version:        m.Version,
		InstanceName:   m.InstanceName,
		Port:           m.Port,
		Connection:     m.Connection,
		Active:         m.Active,
		Notes:          m.Notes,
		ManagerNotes:   m.ManagerNotes,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
		CreatedByID:    m.CreatedByID,
		UpdatedByID:    m.UpdatedByID,
		DatastoreName:  m.DatastoreName,
		ServerHostname: m.ServerHostname,
	}
}

type applicationModel struct {
	ID              string    `gorm:"column:id;primaryKey"`
	Name            string    `gorm:"column:name;not null"`
	Description     string    `gorm:"column:description;not null"`
	BusinessPurpose string    `gorm:"column:business_purpose;not null"`
	LifecycleStage  string    `gorm:"column:lifecycle_stage;not null"`
	Criticality     string    `gorm:"column:criticality;not null"`
	BusinessOwner   string    `gorm:"column:business_owner;not null"`
	TechnicalOwner  string    `gorm:"column:technical_owner;not null"`
	PrimaryServerID int64     `gorm:"column:primary_server_id;not null;index"`
	Version         string    `gorm:"column:version;not null"`
	DeploymentPath  string    `gorm:"column:deployment_path;not null"`
	UsesLDAP        bool      `gorm:"column:uses_ldap;not null"`
	LDAPConfig      string    `gorm:"column:ldap_config;not null"`
	Active          bool      `gorm:"column:active;not null"`
	Notes           string    `gorm:"column:notes;not null"`
	ManagerNotes    string    `gorm:"column:manager_notes;not null"`
	CreatedAt       time.Time `gorm:"column:created_at;not null"`
	UpdatedAt       time.Time `gorm:"column:updated_at;not null"`
	CreatedByID     *int64    `gorm:"column:created_by_id"`
	UpdatedByID     *int64    `gorm:"column:updated_by_id"`
}

func (applicationModel) TableName() string { return "applications" }

type languageDependencyModel struct {
	ID             int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ApplicationID  string    `gorm:"column:application_id;not null;index"`
	InstallationID int64     `gorm:"column:installation_id;not null;index"`
	Primary        bool      `gorm:"column:is_primary;not null"`
	Notes          string    `gorm:"column:notes;not null"`
	ManagerNotes   string    `gorm:"column:manager_notes;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;not null"`
	CreatedByID    *int64    `gorm:"column:created_by_id"`

	ApplicationName   string `gorm:"->;-:migration"`
	InstallationLabel string `gorm:"->;-:migration"`
}

func (languageDependencyModel) TableName() string { return "app_language_dependencies" }

type datastoreDependencyModel struct {
	ID             int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ApplicationID  string    `gorm:"column:application_id;not null;index"`
	InstanceID     int64     `gorm:"column:instance_id;not null;index"`
	Primary        bool      `gorm:"column:is_primary;not null"`
	ConnectionType string    `gorm:"column:connection_type;not null"`
	Notes          string    `gorm:"column:notes;not null"`
	ManagerNotes   string    `gorm:"column:manager_notes;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;not null"`
	CreatedByID    *int64    `gorm:"column:created_by_id"`

	ApplicationName string `gorm:"->;-:migration"`
	InstanceLabel   string `gorm:"->;-:migration"`
}

func (datastoreDependencyModel) TableName() string { return "app_datastore_dependencies" }

type lifecycleEventModel struct {
	ID            int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ApplicationID string    `gorm:"column:application_id;not null;index"`
	FromStage     string    `gorm:"column:from_stage;not null"`
	ToStage       string    `gorm:"column:to_stage;not null"`
	EventDate     time.Time `gorm:"column:event_date;not null"`
	Notes         string    `gorm:"column:notes;not null"`
	ManagerNotes  string    `gorm:"column:manager_notes;not null"`
	PerformedByID *int64    `gorm:"column:performed_by_id"`
	PerformedBy   string    `gorm:"column:performed_by;not null"`
}

func (lifecycleEventModel) TableName() string { return "lifecycle_events" }

type outboxEventModel struct {
	ID            int64      `gorm:"column:id;primaryKey;autoIncrement"`
	EventID       string     `gorm:"column:event_id;not null;uniqueIndex"`
	Topic         string     `gorm:"column:topic;not null"`
	PayloadJSON   string     `gorm:"column:payload_json;not null"`
	Status        string     `gorm:"column:status;not null;index"`
	Attempts      int        `gorm:"column:attempts;not null"`
	NextAttemptAt time.Time  `gorm:"column:next_attempt_at;not null"`
	LastError     string     `gorm:"column:last_error;not null"`
	CreatedAt     time.Time  `gorm:"column:created_at;not null"`
	DispatchedAt  *time.Time `gorm:"column:dispatched_at"`
}

func (outboxEventModel) TableName() string { return "outbox_events" }

func rawJSON(s string) json.RawMessage {
	if s == "" {
		return nil
	}
	return json.RawMessage(s)
}
