package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

var EnvironmentTypes = []Choice{
	{Value: "physical", Label: "Physical Server"},
	{Value: "virtual", Label: "Virtual Machine"},
	{Value: "container", Label: "Container"},
	{Value: "cloud", Label: "Cloud Instance"},
}

var DatastoreTypes = []Choice{
	{Value: "relational", Label: "Relational Database"},
	{Value: "nosql", Label: "NoSQL Database"},
	{Value: "cache", Label: "Cache Store"},
	{Value: "search", Label: "Search Engine"},
	{Value: "file", Label: "File Storage"},
	{Value: "object", Label: "Object Storage"},
	{Value: "queue", Label: "Message Queue"},
}

// CloudPlatform is a provider that can host servers (aws, azure, gcp, ...).
type CloudPlatform struct {
	ID            int64
	Name          string
	Code          string
	Description   string
	Active        bool
	PluginEnabled bool
	PluginConfig  json.RawMessage
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CreatedByID   *int64
	UpdatedByID   *int64
	ManagerNotes  string
}

func (p CloudPlatform) Validate() error {
	if err := requireName("name", p.Name); err != nil {
		return err
	}
	if err := requireCode("code", p.Code); err != nil {
		return err
	}
	if len(p.PluginConfig) > 0 && !json.Valid(p.PluginConfig) {
		return fmt.Errorf("%w: plugin_config", ErrInvalidField)
	}
	return nil
}

func (p CloudPlatform) AuditKind() string  { return "inventory.CloudPlatform" }
func (p CloudPlatform) AuditID() string    { return fmt.Sprintf("%d", p.ID) }
func (p CloudPlatform) AuditLabel() string { return p.Name }

func (p CloudPlatform) AuditFields() map[string]any {
	return map[string]any{
		"name":           p.Name,
		"code":           p.Code,
		"description":    p.Description,
		"is_active":      p.Active,
		"plugin_enabled": p.PluginEnabled,
		"plugin_config":  p.PluginConfig,
		"manager_notes":  p.ManagerNotes,
	}
}

func (CloudPlatform) AuditMeta() map[string]FieldMeta {
	return map[string]FieldMeta{
		"name":           {Kind: FieldText},
		"code":           {Kind: FieldText},
		"description":    {Kind: FieldText},
		"is_active":      {Kind: FieldBool},
		"plugin_enabled": {Kind: FieldBool},
		"plugin_config":  {Kind: FieldText},
		"manager_notes":  {Kind: FieldText},
	}
}

// CloudPlugin registers an integration module for a platform. Its
// configuration schema is a JSON Schema that platform plugin configs
// must satisfy while the plugin is enabled.
type CloudPlugin struct {
	ID           int64
	Name         string
	PlatformID   int64
	Module       string
	Version      string
	Description  string
	Enabled      bool
	ConfigSchema json.RawMessage
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ManagerNotes string
}

func (p CloudPlugin) Validate() error {
	if err := requireName("name", p.Name); err != nil {
		return err
	}
	if p.PlatformID <= 0 {
		return fmt.Errorf("%w: platform", ErrInvalidField)
	}
	if len(p.ConfigSchema) > 0 && !json.Valid(p.ConfigSchema) {
		return fmt.Errorf("%w: config_schema", ErrInvalidField)
	}
	return nil
}

func (p CloudPlugin) AuditKind() string  { return "inventory.CloudPlugin" }
func (p CloudPlugin) AuditID() string    { return fmt.Sprintf("%d", p.ID) }
func (p CloudPlugin) AuditLabel() string { return p.Name }

func (p CloudPlugin) AuditFields() map[string]any {
	return map[string]any{
		"name":          p.Name,
		"platform":      p.PlatformID,
		"module":        p.Module,
		"version":       p.Version,
		"description":   p.Description,
		"is_enabled":    p.Enabled,
		"config_schema": p.ConfigSchema,
		"manager_notes": p.ManagerNotes,
	}
}

func (CloudPlugin) AuditMeta() map[string]FieldMeta {
	return map[string]FieldMeta{
		"name":          {Kind: FieldText},
		"platform":      {Kind: FieldRelation, Relation: "inventory.CloudPlatform"},
		"module":        {Kind: FieldText},
		"version":       {Kind: FieldText},
		"description":   {Kind: FieldText},
		"is_enabled":    {Kind: FieldBool},
		"config_schema": {Kind: FieldText},
		"manager_notes": {Kind: FieldText},
	}
}

// Server is a physical or virtual environment applications run on.
type Server struct {
	ID              int64
	Name            string
	Hostname        string
	IPAddress       string
	EnvironmentType string
	OS              string
	OSVersion       string
	CloudPlatformID *int64
	CloudInstanceID string
	CloudRegion     string
	CPUCores        *int64
	MemoryGB        *int64
	StorageGB       *int64
	Active          bool
	Notes           string
	ManagerNotes    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CreatedByID     *int64
	UpdatedByID     *int64
}

func (s Server) Validate() error {
	if err := requireName("name", s.Name); err != nil {
		return err
	}
	if err := requireHostname("hostname", s.Hostname); err != nil {
		return err
	}
	if err := requireIP("ip_address", s.IPAddress); err != nil {
		return err
	}
	return requireChoice("environment_type", s.EnvironmentType, EnvironmentTypes)
}

func (s Server) AuditKind() string { return "inventory.Server" }
func (s Server) AuditID() string   { return fmt.Sprintf("%d", s.ID) }

func (s Server) AuditLabel() string {
	return fmt.Sprintf("%s (%s)", s.Hostname, s.IPAddress)
}

func (s Server) AuditFields() map[string]any {
	return map[string]any{
		"name":              s.Name,
		"hostname":          s.Hostname,
		"ip_address":        s.IPAddress,
		"environment_type":  s.EnvironmentType,
		"operating_system":  s.OS,
		"os_version":        s.OSVersion,
		"cloud_platform":    s.CloudPlatformID,
		"cloud_instance_id": s.CloudInstanceID,
		"cloud_region":      s.CloudRegion,
		"cpu_cores":         s.CPUCores,
		"memory_gb":         s.MemoryGB,
		"storage_gb":        s.StorageGB,
		"is_active":         s.Active,
		"notes":             s.Notes,
		"manager_notes":     s.ManagerNotes,
	}
}

func (Server) AuditMeta() map[string]FieldMeta {
	return map[string]FieldMeta{
		"name":              {Kind: FieldText},
		"hostname":          {Kind: FieldText},
		"ip_address":        {Kind: FieldText},
		"environment_type":  {Kind: FieldChoice, Choices: EnvironmentTypes},
		"operating_system":  {Kind: FieldText},
		"os_version":        {Kind: FieldText},
		"cloud_platform":    {Kind: FieldRelation, Relation: "inventory.CloudPlatform"},
		"cloud_instance_id": {Kind: FieldText},
		"cloud_region":      {Kind: FieldText},
		"cpu_cores":         {Kind: FieldText},
		"memory_gb":         {Kind: FieldText},
		"storage_gb":        {Kind: FieldText},
		"is_active":         {Kind: FieldBool},
		"notes":             {Kind: FieldText},
		"manager_notes":     {Kind: FieldText},
	}
}

// Language is a programming language or interpreter catalog entry.
type Language struct {
	ID          int64
	Name        string
	Description string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (l Language) Validate() error {
	return requireName("name", l.Name)
}

func (l Language) AuditKind() string  { return "inventory.Language" }
func (l Language) AuditID() string    { return fmt.Sprintf("%d", l.ID) }
func (l Language) AuditLabel() string { return l.Name }

func (l Language) AuditFields() map[string]any {
	return map[string]any{
		"name":        l.Name,
		"description": l.Description,
		"is_active":   l.Active,
	}
}

func (Language) AuditMeta() map[string]FieldMeta {
	return map[string]FieldMeta{
		"name":        {Kind: FieldText},
		"description": {Kind: FieldText},
		"is_active":   {Kind: FieldBool},
	}
}

// Datastore is a database or storage system catalog entry.
type Datastore struct {
	ID           int64
	Name         string
	Type         string
	Description  string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CreatedByID  *int64
	UpdatedByID  *int64
	ManagerNotes string
}

func (d Datastore) Validate() error {
	if err := requireName("name", d.Name); err != nil {
		return err
	}
	return requireChoice("datastore_type", d.Type, DatastoreTypes)
}

func (d Datastore) AuditKind() string  { return "inventory.Datastore" }
func (d Datastore) AuditID() string    { return fmt.Sprintf("%d", d.ID) }
func (d Datastore) AuditLabel() string { return d.Name }

func (d Datastore) AuditFields() map[string]any {
	return map[string]any{
		"name":           d.Name,
		"datastore_type": d.Type,
		"description":    d.Description,
		"is_active":      d.Active,
		"manager_notes":  d.ManagerNotes,
	}
}

func (Datastore) AuditMeta() map[string]FieldMeta {
	return map[string]FieldMeta{
		"name":           {Kind: FieldText},
		"datastore_type": {Kind: FieldChoice, Choices: DatastoreTypes},
		"description":    {Kind: FieldText},
		"is_active":      {Kind: FieldBool},
		"manager_notes":  {Kind: FieldText},
	}
}

// LanguageInstallation is a language runtime installed on a server.
type LanguageInstallation struct {
	ID           int64
	ServerID     int64
	LanguageID   int64
	Version      string
	Path         string
	Default      bool
	Notes        string
	ManagerNotes string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CreatedByID  *int64
	UpdatedByID  *int64

	// Display-only joins, populated on load.
	LanguageName   string
	ServerHostname string
}

func (i LanguageInstallation) Validate() error {
	if i.ServerID <= 0 {
		return fmt.Errorf("%w: server", ErrInvalidField)
	}
	if i.LanguageID <= 0 {
		return fmt.Errorf("%w: language", ErrInvalidField)
	}
	return requireName("version", i.Version)
}

func (i LanguageInstallation) AuditKind() string { return "inventory.LanguageInstallation" }
func (i LanguageInstallation) AuditID() string   { return fmt.Sprintf("%d", i.ID) }

func (i LanguageInstallation) AuditLabel() string {
	return fmt.Sprintf("%s %s on %s", i.LanguageName, i.Version, i.ServerHostname)
}

func (i LanguageInstallation) AuditFields() map[string]any {
	return map[string]any{
		"server":        i.ServerID,
		"language":      i.LanguageID,
		"version":       i.Version,
		"path":          i.Path,
		"is_default":    i.Default,
		"notes":         i.Notes,
		"manager_notes": i.ManagerNotes,
	}
}

func (LanguageInstallation) AuditMeta() map[string]FieldMeta {
	return map[string]FieldMeta{
		"server":        {Kind: FieldRelation, Relation: "inventory.Server"},
		"language":      {Kind: FieldRelation, Relation: "inventory.Language"},
		"version":       {Kind: FieldText},
		"path":          {Kind: FieldText},
		"is_default":    {Kind: FieldBool},
		"notes":         {Kind: FieldText},
		"manager_notes": {Kind: FieldText},
	}
}

// DatastoreInstance is a datastore deployment on a server.
type DatastoreInstance struct {
	ID           int64
	ServerID     int64
	DatastoreID  int64
	Version      string
	InstanceName string
	Port         *int64
	Connection   string
	Active       bool
	Notes        string
	ManagerNotes string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CreatedByID  *int64
	UpdatedByID  *int64

	DatastoreName  string
	ServerHostname string
}

func (i DatastoreInstance) Validate() error {
	if i.ServerID <= 0 {
		return fmt.Errorf("%w: server", ErrInvalidField)
	}
	if i.DatastoreID <= 0 {
		return fmt.Errorf("%w: datastore", ErrInvalidField)
	}
	if err := requireName("instance_name", i.InstanceName); err != nil {
		return err
	}
	if i.Port != nil && (*i.Port < 1 || *i.Port > 65535) {
		return fmt.Errorf("%w: port", ErrInvalidField)
	}
	return nil
}

func (i DatastoreInstance) AuditKind() string { return "inventory.DatastoreInstance" }
func (i DatastoreInstance) AuditID() string   { return fmt.Sprintf("%d", i.ID) }

func (i DatastoreInstance) AuditLabel() string {
	return fmt.Sprintf("%s (%s) on %s", i.DatastoreName, i.InstanceName, i.ServerHostname)
}

func (i DatastoreInstance) AuditFields() map[string]any {
	return map[string]any{
		"server":        i.ServerID,
		"datastore":     i.DatastoreID,
		"version":       i.Version,
		"instance_name": i.InstanceName,
		"port":          i.Port,
		"connection":    i.Connection,
		"is_active":     i.Active,
		"notes":         i.Notes,
		"manager_notes": i.ManagerNotes,
	}
}

func (DatastoreInstance) AuditMeta() map[string]FieldMeta {
	return map[string]FieldMeta{
		"server":        {Kind: FieldRelation, Relation: "inventory.Server"},
		"datastore":     {Kind: FieldRelation, Relation: "inventory.Datastore"},
		"version":       {Kind: FieldText},
		"instance_name": {Kind: FieldText},
		"port":          {Kind: FieldText},
		"connection":    {Kind: FieldText},
		"is_active":     {Kind: FieldBool},
		"notes":         {Kind: FieldText},
		"manager_notes": {Kind: FieldText},
	}
}
