// Package config provides configuration loading and management for the catalog server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/meridianmaps/catalog-server/internal/telemetry"
	"github.com/meridianmaps/catalog-server/internal/validators"
)

const (
	// SourceTypeWFS is the type for groups populated from WFS GetFeature endpoints
	SourceTypeWFS = "wfs"

	// SourceTypeFile is the type for groups stored in local catalog files
	SourceTypeFile = "file"

	// SourceTypeGit is the type for groups stored in Git repositories
	SourceTypeGit = "git"

	// SourceTypeStatic is the type for groups declared inline in the configuration
	SourceTypeStatic = "static"
)

const (
	// FileFormatJSON parses a file source as plain JSON
	FileFormatJSON = "json"

	// FileFormatJWCC parses a file source as JSON with comments and trailing commas
	FileFormatJWCC = "jwcc"

	// FileFormatYAML parses a file source as YAML
	FileFormatYAML = "yaml"
)

const (
	// AuthModeAnonymous disables authentication entirely
	AuthModeAnonymous = "anonymous"

	// AuthModeJWT validates HMAC-signed bearer tokens on protected endpoints
	AuthModeJWT = "jwt"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		// Validate the path to prevent path traversal attacks
		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// CatalogName is the name/identifier for this catalog instance
	// Defaults to "default" if not specified
	CatalogName string `yaml:"catalogName,omitempty"`

	// Groups lists the catalog groups to build and keep refreshed
	Groups []GroupConfig `yaml:"groups"`

	// Support identifies the operator contact interpolated into user-facing
	// load failure messages
	Support SupportConfig `yaml:"support,omitempty"`

	// Proxy configures URL rewriting for upstream services without CORS support
	Proxy *ProxyConfig `yaml:"proxy,omitempty"`

	// Server configures the HTTP listener
	Server *ServerConfig `yaml:"server,omitempty"`

	// Storage configures where catalog snapshots are persisted
	Storage *StorageConfig `yaml:"storage,omitempty"`

	// Telemetry configures OpenTelemetry tracing and metrics
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`

	// Auth configures bearer token authentication
	Auth *AuthConfig `yaml:"auth,omitempty"`

	// RefreshPolicy is the default refresh policy for groups that do not
	// declare their own
	RefreshPolicy *RefreshPolicyConfig `yaml:"refreshPolicy,omitempty"`
}

// GroupConfig defines a single catalog group and its data source
type GroupConfig struct {
	// Name is the identifier for this group
	Name string `yaml:"name"`

	// Description is shown alongside the group in catalog listings
	Description string `yaml:"description,omitempty"`

	// Type-specific configurations (only one should be set)
	WFS    *WFSConfig    `yaml:"wfs,omitempty"`
	File   *FileConfig   `yaml:"file,omitempty"`
	Git    *GitConfig    `yaml:"git,omitempty"`
	Static *StaticConfig `yaml:"static,omitempty"`

	// Per-group refresh policy
	RefreshPolicy *RefreshPolicyConfig `yaml:"refreshPolicy,omitempty"`

	// Per-group filtering rules applied to member names
	Filter *FilterConfig `yaml:"filter,omitempty"`
}

// WFSConfig defines WFS source settings.
//
// The endpoint fields are deliberately not checked at load time. A missing or
// unreachable URL surfaces as a load failure for the group, reported through
// the group status with its own user-facing message.
type WFSConfig struct {
	// URL is the base URL of the WFS server, with or without an existing
	// query string
	URL string `yaml:"url"`

	// TypeNames is the value passed as the WFS typeName parameter
	TypeNames string `yaml:"typeNames"`

	// NameProperty is the feature property used as the item name
	NameProperty string `yaml:"nameProperty"`

	// GroupByProperty optionally names a feature property whose values
	// partition items into sub-groups
	GroupByProperty string `yaml:"groupByProperty,omitempty"`

	// Denylist maps item names to a flag; names mapped to true are skipped
	Denylist map[string]bool `yaml:"denylist,omitempty"`

	// ItemDefaults holds properties merged into every generated item
	ItemDefaults map[string]any `yaml:"itemDefaults,omitempty"`
}

// FileConfig defines local file source configuration
type FileConfig struct {
	// Path is the path to the catalog fragment file on the local filesystem
	// Can be absolute or relative to the working directory
	Path string `yaml:"path"`

	// Format selects the file format (json, jwcc, or yaml)
	// Inferred from the file extension if not specified
	Format string `yaml:"format,omitempty"`
}

// GitConfig defines Git source settings
type GitConfig struct {
	// Repository is the Git repository URL (HTTP/HTTPS/SSH)
	Repository string `yaml:"repository"`

	// Branch is the Git branch to use (mutually exclusive with Tag and Commit)
	Branch string `yaml:"branch,omitempty"`

	// Tag is the Git tag to use (mutually exclusive with Branch and Commit)
	Tag string `yaml:"tag,omitempty"`

	// Commit is the Git commit SHA to use (mutually exclusive with Branch and Tag)
	Commit string `yaml:"commit,omitempty"`

	// Path is the path to the catalog fragment within the repository
	Path string `yaml:"path,omitempty"`
}

// StaticConfig defines an inline member list
type StaticConfig struct {
	// Members holds raw member definitions exactly as they should appear
	// in the catalog
	Members []map[string]any `yaml:"members"`
}

// RefreshPolicyConfig defines background refresh settings
type RefreshPolicyConfig struct {
	Interval string `yaml:"interval"`
}

// FilterConfig defines name-based filtering rules for group members
type FilterConfig struct {
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
}

// SupportConfig identifies the operator contact for load failure messages
type SupportConfig struct {
	// Email is the address users are told to contact when a group fails
	// to load. Required when any group uses a wfs source.
	Email string `yaml:"email,omitempty"`

	// AppName is how the application refers to itself in those messages
	AppName string `yaml:"appName,omitempty"`
}

// GetAppName returns the application name, using a generic fallback if not specified
func (s *SupportConfig) GetAppName() string {
	if s.AppName == "" {
		return "this application"
	}
	return s.AppName
}

// ProxyConfig defines how upstream request URLs are rewritten through the
// built-in CORS proxy
type ProxyConfig struct {
	// BaseURL is the path prefix of the proxy endpoint, e.g. "proxy/"
	BaseURL string `yaml:"baseUrl"`

	// Duration is the cache duration segment inserted into proxied URLs,
	// e.g. "1d" produces "proxy/_1d/<url>"
	Duration string `yaml:"duration,omitempty"`

	// ProxyAllDomains proxies every host when true
	ProxyAllDomains bool `yaml:"proxyAllDomains,omitempty"`

	// AllowedHosts lists hosts to proxy when ProxyAllDomains is false
	AllowedHosts []string `yaml:"allowedHosts,omitempty"`
}

// GetDuration returns the cache duration segment, using "1d" if not specified
func (p *ProxyConfig) GetDuration() string {
	if p.Duration == "" {
		return "1d"
	}
	return p.Duration
}

// ServerConfig defines HTTP listener settings
type ServerConfig struct {
	// Address is the listen address in host:port form
	Address string `yaml:"address,omitempty"`
}

// GetAddress returns the listen address, using ":8080" if not specified
func (s *ServerConfig) GetAddress() string {
	if s == nil || s.Address == "" {
		return ":8080"
	}
	return s.Address
}

// StorageConfig defines snapshot storage settings
type StorageConfig struct {
	// DataDir is the directory where catalog snapshots and status files
	// are written
	DataDir string `yaml:"dataDir,omitempty"`
}

// GetDataDir returns the data directory, defaulting to a per-user location
// under the XDG data home
func (s *StorageConfig) GetDataDir() string {
	if s != nil && s.DataDir != "" {
		return s.DataDir
	}
	return filepath.Join(xdg.DataHome, "mm-catalog-api")
}

// AuthConfig defines authentication settings
type AuthConfig struct {
	// Mode selects the authentication mode (anonymous or jwt)
	Mode string `yaml:"mode"`

	// JWT holds settings for jwt mode
	JWT *JWTConfig `yaml:"jwt,omitempty"`

	// PublicPaths lists additional path prefixes that bypass authentication
	// on top of the built-in health, readiness, version and metrics endpoints
	PublicPaths []string `yaml:"publicPaths,omitempty"`
}

// JWTConfig defines bearer token validation settings
type JWTConfig struct {
	// Issuer is the expected iss claim
	Issuer string `yaml:"issuer"`

	// Audience is the expected aud claim; empty skips the audience check
	Audience string `yaml:"audience,omitempty"`

	// SigningKeyFile is the path to a file containing the HMAC signing key
	// This is the recommended approach for production deployments
	// The file should contain only the key with optional trailing whitespace
	SigningKeyFile string `yaml:"signingKeyFile,omitempty"`
}

// GetSigningKey returns the HMAC signing key using the following priority:
// 1. Read from SigningKeyFile if specified
// 2. Read from MM_CATALOG_SIGNING_KEY environment variable
//
// The key from file will have leading/trailing whitespace trimmed.
func (j *JWTConfig) GetSigningKey() (string, error) {
	// Priority 1: Read from file if specified
	if j.SigningKeyFile != "" {
		// Use filepath.Clean to prevent path traversal attacks
		cleanPath := filepath.Clean(j.SigningKeyFile)

		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read signing key from file %s: %w", j.SigningKeyFile, err)
		}

		// Trim whitespace (including newlines) from file content
		key := strings.TrimSpace(string(data))
		return key, nil
	}

	// Priority 2: Check environment variable
	if envKey := os.Getenv("MM_CATALOG_SIGNING_KEY"); envKey != "" {
		return envKey, nil
	}

	return "", fmt.Errorf(
		"no signing key configured: set signingKeyFile or MM_CATALOG_SIGNING_KEY environment variable",
	)
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	// As of now, this is required because there's no other options to load
	// configuration. Once we add more options, we can remove this check.
	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	// Read the entire file into memory
	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML content
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	// Validate the config
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// GetCatalogName returns the catalog name, using "default" if not specified
func (c *Config) GetCatalogName() string {
	if c.CatalogName == "" {
		return "default"
	}
	return c.CatalogName
}

// GetType returns the inferred source type of the group based on which field is present
func (g *GroupConfig) GetType() string {
	if g.WFS != nil {
		return SourceTypeWFS
	}
	if g.File != nil {
		return SourceTypeFile
	}
	if g.Git != nil {
		return SourceTypeGit
	}
	if g.Static != nil {
		return SourceTypeStatic
	}
	return ""
}

// Validate performs validation on the configuration
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	// Validate at least one group is configured
	if len(c.Groups) == 0 {
		return fmt.Errorf("at least one group must be configured")
	}

	// Validate each group configuration
	groupNames := make(map[string]bool)
	hasWFS := false
	for i, group := range c.Groups {
		// Validate group name
		if group.Name == "" {
			return fmt.Errorf("group[%d]: name is required", i)
		}

		// Group names end up in URL paths and state file names, so they are
		// restricted to a filesystem-safe alphabet. The validated name is
		// written back to normalize surrounding whitespace.
		validName, err := validators.ValidateGroupName(group.Name)
		if err != nil {
			return fmt.Errorf("group[%d]: %w", i, err)
		}
		c.Groups[i].Name = validName

		// Check for duplicate group names
		if groupNames[validName] {
			return fmt.Errorf("group[%d]: duplicate group name '%s'", i, validName)
		}
		groupNames[validName] = true

		// Validate group-specific configuration
		if err := c.validateGroupConfig(&group, i); err != nil {
			return err
		}

		if group.WFS != nil {
			hasWFS = true
		}
	}

	// Load failure messages for WFS groups tell users who to contact
	if hasWFS && c.Support.Email == "" {
		return fmt.Errorf("support.email is required when any group uses a wfs source")
	}

	if err := validateRefreshPolicy(c.RefreshPolicy, "refreshPolicy"); err != nil {
		return err
	}

	if c.Proxy != nil && c.Proxy.BaseURL == "" {
		return fmt.Errorf("proxy.baseUrl is required")
	}

	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	return c.Auth.validate()
}

// validateGroupConfig validates a single group configuration
func (*Config) validateGroupConfig(group *GroupConfig, index int) error {
	prefix := fmt.Sprintf("group[%d] (%s)", index, group.Name)

	// Validate refresh policy
	if err := validateRefreshPolicy(group.RefreshPolicy, prefix+": refreshPolicy"); err != nil {
		return err
	}

	// Validate exactly one source type is configured
	if err := validateSourceTypeCount(group, prefix); err != nil {
		return err
	}

	// Validate type-specific settings
	return validateSourceSpecificConfig(group, prefix)
}

// validateRefreshPolicy validates an optional refresh policy. Groups without
// one are loaded once at startup and on manual refresh only.
func validateRefreshPolicy(policy *RefreshPolicyConfig, prefix string) error {
	if policy == nil {
		return nil
	}

	if policy.Interval == "" {
		return fmt.Errorf("%s.interval is required", prefix)
	}

	// Try to parse the interval to ensure it's valid
	if _, err := time.ParseDuration(policy.Interval); err != nil {
		return fmt.Errorf("%s.interval must be a valid duration (e.g., '30m', '1h'): %w", prefix, err)
	}

	return nil
}

// validateSourceTypeCount ensures exactly one source type is configured
func validateSourceTypeCount(group *GroupConfig, prefix string) error {
	configCount := 0
	if group.WFS != nil {
		configCount++
	}
	if group.File != nil {
		configCount++
	}
	if group.Git != nil {
		configCount++
	}
	if group.Static != nil {
		configCount++
	}

	if configCount == 0 {
		return fmt.Errorf("%s: one of wfs, file, git, or static configuration must be specified", prefix)
	}
	if configCount > 1 {
		return fmt.Errorf("%s: only one of wfs, file, git, or static configuration may be specified", prefix)
	}

	return nil
}

// validateSourceSpecificConfig validates the configuration for each source type
func validateSourceSpecificConfig(group *GroupConfig, prefix string) error {
	if group.File != nil {
		return validateFileConfig(group.File, prefix)
	}

	if group.Git != nil {
		return validateGitConfig(group.Git, prefix)
	}

	if group.Static != nil {
		return validateStaticConfig(group.Static, prefix)
	}

	// WFS endpoint fields are validated downstream, not here
	return nil
}

// validateFileConfig validates File-specific configuration
func validateFileConfig(file *FileConfig, prefix string) error {
	if file.Path == "" {
		return fmt.Errorf("%s: file.path is required", prefix)
	}
	switch file.Format {
	case "", FileFormatJSON, FileFormatJWCC, FileFormatYAML:
		return nil
	default:
		return fmt.Errorf("%s: file.format must be one of json, jwcc, or yaml, got %s", prefix, file.Format)
	}
}

// validateGitConfig validates Git-specific configuration
func validateGitConfig(git *GitConfig, prefix string) error {
	if git.Repository == "" {
		return fmt.Errorf("%s: git.repository is required", prefix)
	}

	refCount := 0
	if git.Branch != "" {
		refCount++
	}
	if git.Tag != "" {
		refCount++
	}
	if git.Commit != "" {
		refCount++
	}
	if refCount > 1 {
		return fmt.Errorf("%s: only one of git.branch, git.tag, or git.commit may be specified", prefix)
	}

	return nil
}

// validateStaticConfig validates Static-specific configuration
func validateStaticConfig(static *StaticConfig, prefix string) error {
	if static.Members == nil {
		return fmt.Errorf("%s: static.members is required", prefix)
	}
	return nil
}

// validate validates the auth configuration
func (a *AuthConfig) validate() error {
	if a == nil {
		return nil
	}

	switch a.Mode {
	case AuthModeAnonymous:
		return nil
	case AuthModeJWT:
		if a.JWT == nil {
			return fmt.Errorf("auth.jwt is required when auth.mode is jwt")
		}
		if a.JWT.Issuer == "" {
			return fmt.Errorf("auth.jwt.issuer is required")
		}
		return nil
	case "":
		return fmt.Errorf("auth.mode is required")
	default:
		return fmt.Errorf("auth.mode must be anonymous or jwt, got %s", a.Mode)
	}
}
