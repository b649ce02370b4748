package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var LifecycleStages = []Choice{
	{Value: "planning", Label: "Planning"},
	{Value: "development", Label: "Development"},
	{Value: "testing", Label: "Testing"},
	{Value: "staging", Label: "Staging"},
	{Value: "production", Label: "Production"},
	{Value: "maintenance", Label: "Maintenance"},
	{Value: "deprecated", Label: "Deprecated"},
	{Value: "retired", Label: "Retired"},
}

var CriticalityLevels = []Choice{
	{Value: "low", Label: "Low"},
	{Value: "medium", Label: "Medium"},
	{Value: "high", Label: "High"},
	{Value: "critical", Label: "Critical"},
}

// Application is a tracked enterprise application.
type Application struct {
	ID              uuid.UUID
	Name            string
	Description     string
	BusinessPurpose string
	LifecycleStage  string
	Criticality     string
	BusinessOwner   string
	TechnicalOwner  string
	PrimaryServerID int64
	Version         string
	DeploymentPath  string
	UsesLDAP        bool
	LDAPConfig      json.RawMessage
	Active          bool
	Notes           string
	ManagerNotes    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CreatedByID     *int64
	UpdatedByID     *int64
}

func (a Application) Validate() error {
	if err := requireName("name", a.Name); err != nil {
		return err
	}
	if err := requireChoice("lifecycle_stage", a.LifecycleStage, LifecycleStages); err != nil {
		return err
	}
	if err := requireChoice("criticality", a.Criticality, CriticalityLevels); err != nil {
		return err
	}
	if a.PrimaryServerID <= 0 {
		return fmt.Errorf("%w: primary_server", ErrInvalidField)
	}
	if len(a.LDAPConfig) > 0 && !json.Valid(a.LDAPConfig) {
		return fmt.Errorf("%w: ldap_config", ErrInvalidField)
	}
	return nil
}

func (a Application) AuditKind() string { return "inventory.Application" }
func (a Application) AuditID() string   { return a.ID.String() }

func (a Application) AuditLabel() string {
	return fmt.Sprintf("%s (%s)", a.Name, a.LifecycleStage)
}

func (a Application) AuditFields() map[string]any {
	return map[string]any{
		"name":             a.Name,
		"description":      a.Description,
		"business_purpose": a.BusinessPurpose,
		"lifecycle_stage":  a.LifecycleStage,
		"criticality":      a.Criticality,
		"business_owner":   a.BusinessOwner,
		"technical_owner":  a.TechnicalOwner,
		"primary_server":   a.PrimaryServerID,
		"version":          a.Version,
		"deployment_path":  a.DeploymentPath,
		"uses_ldap":        a.UsesLDAP,
		"ldap_config":      a.LDAPConfig,
		"is_active":        a.Active,
		"notes":            a.Notes,
		"manager_notes":    a.ManagerNotes,
	}
}

func (Application) AuditMeta() map[string]FieldMeta {
	return map[string]FieldMeta{
		"name":             {Kind: FieldText},
		"description":      {Kind: FieldText},
		"business_purpose": {Kind: FieldText},
		"lifecycle_stage":  {Kind: FieldChoice, Choices: LifecycleStages},
		"criticality":      {Kind: FieldChoice, Choices: CriticalityLevels},
		"business_owner":   {Kind: FieldText},
		"technical_owner":  {Kind: FieldText},
		"primary_server":   {Kind: FieldRelation, Relation: "inventory.Server"},
		"version":          {Kind: FieldText},
		"deployment_path":  {Kind: FieldText},
		"uses_ldap":        {Kind: FieldBool},
		"ldap_config":      {Kind: FieldText},
		"is_active":        {Kind: FieldBool},
		"notes":            {Kind: FieldText},
		"manager_notes":    {Kind: FieldText},
	}
}

// LanguageDependency links an application to a language installation.
type LanguageDependency struct {
	ID             int64
	ApplicationID  uuid.UUID
	InstallationID int64
	Primary        bool
	Notes          string
	ManagerNotes   string
	CreatedAt      time.Time
	CreatedByID    *int64

	ApplicationName   string
	InstallationLabel string
}

func (d LanguageDependency) Validate() error {
	if d.ApplicationID == uuid.Nil {
		return fmt.Errorf("%w: application", ErrInvalidField)
	}
	if d.InstallationID <= 0 {
		return fmt.Errorf("%w: installation", ErrInvalidField)
	}
	return nil
}

func (d LanguageDependency) AuditKind() string { return "inventory.LanguageDependency" }
func (d LanguageDependency) AuditID() string   { return fmt.Sprintf("%d", d.ID) }

func (d LanguageDependency) AuditLabel() string {
	return fmt.Sprintf("%s -> %s", d.ApplicationName, d.InstallationLabel)
}

func (d LanguageDependency) AuditFields() map[string]any {
	return map[string]any{
		"application":   d.ApplicationID.String(),
		"installation":  d.InstallationID,
		"is_primary":    d.Primary,
		"notes":         d.Notes,
		"manager_notes": d.ManagerNotes,
	}
}

func (LanguageDependency) AuditMeta() map[string]FieldMeta {
	return map[string]FieldMeta{
		"application":   {Kind: FieldRelation, Relation: "inventory.Application"},
		"installation":  {Kind: FieldRelation, Relation: "inventory.LanguageInstallation"},
		"is_primary":    {Kind: FieldBool},
		"notes":         {Kind: FieldText},
		"manager_notes": {Kind: FieldText},
	}
}

// DatastoreDependency links an application to a datastore instance.
type DatastoreDependency struct {
	ID             int64
	ApplicationID  uuid.UUID
	InstanceID     int64
	Primary        bool
	ConnectionType string
	Notes          string
	ManagerNotes   string
	CreatedAt      time.Time
	CreatedByID    *int64

	ApplicationName string
	InstanceLabel   string
}

func (d DatastoreDependency) Validate() error {
	if d.ApplicationID == uuid.Nil {
		return fmt.Errorf("%w: application", ErrInvalidField)
	}
	if d.InstanceID <= 0 {
		return fmt.Errorf("%w: instance", ErrInvalidField)
	}
	return nil
}

func (d DatastoreDependency) AuditKind() string { return "inventory.DatastoreDependency" }
func (d DatastoreDependency) AuditID() string   { return fmt.Sprintf("%d", d.ID) }

func (d DatastoreDependency) AuditLabel() string {
	return fmt.Sprintf("%s -> %s", d.ApplicationName, d.InstanceLabel)
}

func (d DatastoreDependency) AuditFields() map[string]any {
	return map[string]any{
		"application":     d.ApplicationID.String(),
		"instance":        d.InstanceID,
		"is_primary":      d.Primary,
		"connection_type": d.ConnectionType,
		"notes":           d.Notes,
		"manager_notes":   d.ManagerNotes,
	}
}

func (DatastoreDependency) AuditMeta() map[string]FieldMeta {
	return map[string]FieldMeta{
		"application":     {Kind: FieldRelation, Relation: "inventory.Application"},
		"instance":        {Kind: FieldRelation, Relation: "inventory.DatastoreInstance"},
		"is_primary":      {Kind: FieldBool},
		"connection_type": {Kind: FieldText},
		"notes":           {Kind: FieldText},
		"manager_notes":   {Kind: FieldText},
	}
}

// LifecycleEvent records an application's transition between stages. Rows are
// appended automatically when an update changes the lifecycle stage.
type LifecycleEvent struct {
	ID            int64
	ApplicationID uuid.UUID
	FromStage     string
	ToStage       string
	EventDate     time.Time
	Notes         string
	ManagerNotes  string
	PerformedByID *int64
	PerformedBy   string
}
