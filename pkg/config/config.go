package config

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/doodlesbykumbi/fincore-authz/pkg/authz"
)

const (
	DefaultConfigPath = "/etc/fincore-authz"
	ConfigFileName    = "authz.yml"
)

// Config holds all authorization service settings
type Config struct {
	// BusinessHoursStart is the first hour (inclusive) of the business day
	BusinessHoursStart int `yaml:"business_hours_start" json:"business_hours_start"`

	// BusinessHoursEnd is the hour (exclusive) at which the business day ends
	BusinessHoursEnd int `yaml:"business_hours_end" json:"business_hours_end"`

	// Timezone is the IANA zone used for business hours
	Timezone string `yaml:"timezone" json:"timezone"`

	// RiskCap is the ceiling applied to decision risk scores
	RiskCap int `yaml:"risk_cap" json:"risk_cap"`

	// IPLookupTimeoutMS bounds a single network reputation lookup
	IPLookupTimeoutMS int `yaml:"ip_lookup_timeout_ms" json:"ip_lookup_timeout_ms"`

	// IPCacheTTLSeconds is how long reputation answers are cached
	IPCacheTTLSeconds int `yaml:"ip_cache_ttl_seconds" json:"ip_cache_ttl_seconds"`

	// SuspiciousNetworks is a list of CIDRs, dash ranges or addresses
	SuspiciousNetworks []string `yaml:"suspicious_networks" json:"suspicious_networks"`

	// AuditRetentionDays is the age after which ledger entries may be purged
	AuditRetentionDays int `yaml:"audit_retention_days" json:"audit_retention_days"`

	// AuditIntegrityKey is a hex encoded 32 byte key for entry seals
	AuditIntegrityKey string `yaml:"audit_integrity_key" json:"-"`

	// AuditRetryIntervalSeconds is the period of the pending entry flush loop
	AuditRetryIntervalSeconds int `yaml:"audit_retry_interval_seconds" json:"audit_retry_interval_seconds"`

	// AttemptLimitPerMinute is the sustained decision rate per actor
	AttemptLimitPerMinute int `yaml:"attempt_limit_per_minute" json:"attempt_limit_per_minute"`

	// AttemptBurst is the burst allowed above the sustained rate
	AttemptBurst int `yaml:"attempt_burst" json:"attempt_burst"`

	// IdentityJWTSecret verifies session tokens issued by the identity service
	IdentityJWTSecret string `yaml:"identity_jwt_secret" json:"-"`

	// TrustedProxies is a list of CIDR ranges for trusted proxies
	TrustedProxies []string `yaml:"trusted_proxies" json:"trusted_proxies"`

	// sources tracks where each value came from
	sources map[string]string

	// configFilePath is the path to the config file
	configFilePath string
}

// Attribute represents a configuration attribute with its value and source
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// Global singleton config
var (
	globalConfig *Config
	configMu     sync.RWMutex
)

// Get returns the global configuration, loading it if necessary
func Get() *Config {
	configMu.RLock()
	if globalConfig != nil {
		configMu.RUnlock()
		return globalConfig
	}
	configMu.RUnlock()

	configMu.Lock()
	defer configMu.Unlock()

	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			globalConfig = newDefault()
		} else {
			globalConfig = cfg
		}
	}
	return globalConfig
}

// Reload reloads the configuration from file and environment
func Reload() error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	configMu.Lock()
	globalConfig = cfg
	configMu.Unlock()
	return nil
}

// Default returns the built-in configuration without reading the file or
// the environment.
func Default() *Config {
	return newDefault()
}

func newDefault() *Config {
	return &Config{
		BusinessHoursStart:        6,
		BusinessHoursEnd:          22,
		Timezone:                  "UTC",
		RiskCap:                   authz.DefaultRiskCap,
		IPLookupTimeoutMS:         200,
		IPCacheTTLSeconds:         300,
		SuspiciousNetworks:        []string{},
		AuditRetentionDays:        365,
		AuditRetryIntervalSeconds: 30,
		AttemptLimitPerMinute:     120,
		AttemptBurst:              30,
		TrustedProxies:            []string{},
		sources:                   make(map[string]string),
	}
}

// Load loads configuration from file and environment variables.
// Environment variables take precedence over file values.
func Load() (*Config, error) {
	config := newDefault()

	for _, name := range attributeNames() {
		config.sources[name] = "default"
	}

	configPath := os.Getenv("AUTHZ_CONFIG_PATH")
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	config.configFilePath = filepath.Join(configPath, ConfigFileName)

	if data, err := os.ReadFile(config.configFilePath); err == nil {
		var fileConfig Config
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", config.configFilePath, err)
		}
		config.applyFileConfig(&fileConfig)
	}

	config.applyEnvConfig()

	return config, nil
}

func attributeNames() []string {
	return []string{
		"business_hours_start", "business_hours_end", "timezone", "risk_cap",
		"ip_lookup_timeout_ms", "ip_cache_ttl_seconds", "suspicious_networks",
		"audit_retention_days", "audit_integrity_key", "audit_retry_interval_seconds",
		"attempt_limit_per_minute", "attempt_burst", "identity_jwt_secret",
		"trusted_proxies",
	}
}

func (c *Config) applyFileConfig(file *Config) {
	setInt := func(name string, dst *int, v int) {
		if v != 0 {
			*dst = v
			c.sources[name] = "file"
		}
	}
	setString := func(name string, dst *string, v string) {
		if v != "" {
			*dst = v
			c.sources[name] = "file"
		}
	}
	setList := func(name string, dst *[]string, v []string) {
		if len(v) > 0 {
			*dst = v
			c.sources[name] = "file"
		}
	}

	// business_hours_start may legitimately be 0 (midnight) so a zero end
	// is the only way to tell the file left the window alone.
	if file.BusinessHoursEnd != 0 {
		c.BusinessHoursStart = file.BusinessHoursStart
		c.BusinessHoursEnd = file.BusinessHoursEnd
		c.sources["business_hours_start"] = "file"
		c.sources["business_hours_end"] = "file"
	}
	setString("timezone", &c.Timezone, file.Timezone)
	setInt("risk_cap", &c.RiskCap, file.RiskCap)
	setInt("ip_lookup_timeout_ms", &c.IPLookupTimeoutMS, file.IPLookupTimeoutMS)
	setInt("ip_cache_ttl_seconds", &c.IPCacheTTLSeconds, file.IPCacheTTLSeconds)
	setList("suspicious_networks", &c.SuspiciousNetworks, file.SuspiciousNetworks)
	setInt("audit_retention_days", &c.AuditRetentionDays, file.AuditRetentionDays)
	setString("audit_integrity_key", &c.AuditIntegrityKey, file.AuditIntegrityKey)
	setInt("audit_retry_interval_seconds", &c.AuditRetryIntervalSeconds, file.AuditRetryIntervalSeconds)
	setInt("attempt_limit_per_minute", &c.AttemptLimitPerMinute, file.AttemptLimitPerMinute)
	setInt("attempt_burst", &c.AttemptBurst, file.AttemptBurst)
	setString("identity_jwt_secret", &c.IdentityJWTSecret, file.IdentityJWTSecret)
	setList("trusted_proxies", &c.TrustedProxies, file.TrustedProxies)
}

func (c *Config) applyEnvConfig() {
	envInt := func(name string, dst *int) {
		if val := os.Getenv(envName(name)); val != "" {
			if i, err := strconv.Atoi(val); err == nil {
				*dst = i
				c.sources[name] = "environment"
			}
		}
	}
	envString := func(name string, dst *string) {
		if val := os.Getenv(envName(name)); val != "" {
			*dst = val
			c.sources[name] = "environment"
		}
	}
	envList := func(name string, dst *[]string) {
		if val := os.Getenv(envName(name)); val != "" {
			*dst = splitAndTrim(val)
			c.sources[name] = "environment"
		}
	}

	envInt("business_hours_start", &c.BusinessHoursStart)
	envInt("business_hours_end", &c.BusinessHoursEnd)
	envString("timezone", &c.Timezone)
	envInt("risk_cap", &c.RiskCap)
	envInt("ip_lookup_timeout_ms", &c.IPLookupTimeoutMS)
	envInt("ip_cache_ttl_seconds", &c.IPCacheTTLSeconds)
	envList("suspicious_networks", &c.SuspiciousNetworks)
	envInt("audit_retention_days", &c.AuditRetentionDays)
	envString("audit_integrity_key", &c.AuditIntegrityKey)
	envInt("audit_retry_interval_seconds", &c.AuditRetryIntervalSeconds)
	envInt("attempt_limit_per_minute", &c.AttemptLimitPerMinute)
	envInt("attempt_burst", &c.AttemptBurst)
	envString("identity_jwt_secret", &c.IdentityJWTSecret)
	envList("trusted_proxies", &c.TrustedProxies)
}

// envName maps an attribute name to its AUTHZ_ environment variable.
func envName(attribute string) string {
	return "AUTHZ_" + strings.ToUpper(attribute)
}

// ConfigFilePath returns the path to the config file
func (c *Config) ConfigFilePath() string {
	return c.configFilePath
}

// Source returns the source of a configuration attribute
func (c *Config) Source(name string) string {
	if c.sources == nil {
		return "default"
	}
	if s, ok := c.sources[name]; ok {
		return s
	}
	return "default"
}

// BusinessHours returns the configured business day window
func (c *Config) BusinessHours() (authz.BusinessHours, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return authz.BusinessHours{}, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return authz.BusinessHours{Start: c.BusinessHoursStart, End: c.BusinessHoursEnd, Location: loc}, nil
}

func (c *Config) IPLookupTimeout() time.Duration {
	return time.Duration(c.IPLookupTimeoutMS) * time.Millisecond
}

func (c *Config) IPCacheTTL() time.Duration {
	return time.Duration(c.IPCacheTTLSeconds) * time.Second
}

// AuditRetention returns the ledger retention as a duration
func (c *Config) AuditRetention() time.Duration {
	return time.Duration(c.AuditRetentionDays) * 24 * time.Hour
}

func (c *Config) AuditRetryInterval() time.Duration {
	return time.Duration(c.AuditRetryIntervalSeconds) * time.Second
}

// IsTrustedProxy checks if an IP is from a trusted proxy
func (c *Config) IsTrustedProxy(ip string) bool {
	if len(c.TrustedProxies) == 0 {
		return false
	}
	return authz.IPInAnyRange(ip, c.TrustedProxies)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.BusinessHoursStart < 0 || c.BusinessHoursStart > 23 {
		return fmt.Errorf("invalid business_hours_start: %d", c.BusinessHoursStart)
	}
	if c.BusinessHoursEnd < 1 || c.BusinessHoursEnd > 24 || c.BusinessHoursEnd <= c.BusinessHoursStart {
		return fmt.Errorf("invalid business_hours_end: %d", c.BusinessHoursEnd)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone: %s", c.Timezone)
	}
	if c.RiskCap < 1 || c.RiskCap > authz.DefaultRiskCap {
		return fmt.Errorf("invalid risk_cap: %d", c.RiskCap)
	}
	if c.IPLookupTimeoutMS <= 0 {
		return fmt.Errorf("invalid ip_lookup_timeout_ms: %d", c.IPLookupTimeoutMS)
	}
	if c.AttemptLimitPerMinute <= 0 || c.AttemptBurst <= 0 {
		return fmt.Errorf("attempt_limit_per_minute and attempt_burst must be positive")
	}
	if c.AuditIntegrityKey != "" {
		key, err := hex.DecodeString(c.AuditIntegrityKey)
		if err != nil || len(key) != 32 {
			return fmt.Errorf("audit_integrity_key must be 64 hex characters")
		}
	}
	for _, network := range c.SuspiciousNetworks {
		if !validRange(network) {
			return fmt.Errorf("invalid suspicious_networks value: %s", network)
		}
	}
	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			if net.ParseIP(cidr) == nil {
				return fmt.Errorf("invalid trusted_proxies value: %s", cidr)
			}
		}
	}
	return nil
}

func validRange(s string) bool {
	if _, _, err := net.ParseCIDR(s); err == nil {
		return true
	}
	if lo, hi, ok := strings.Cut(s, "-"); ok {
		return net.ParseIP(strings.TrimSpace(lo)) != nil && net.ParseIP(strings.TrimSpace(hi)) != nil
	}
	return net.ParseIP(s) != nil
}

// Attributes returns all configuration attributes with their values and sources.
// Secrets are reported as set or unset, never by value.
func (c *Config) Attributes() []Attribute {
	attr := func(name, value string) Attribute {
		return Attribute{Name: name, Value: value, Source: c.Source(name)}
	}
	return []Attribute{
		attr("business_hours_start", strconv.Itoa(c.BusinessHoursStart)),
		attr("business_hours_end", strconv.Itoa(c.BusinessHoursEnd)),
		attr("timezone", c.Timezone),
		attr("risk_cap", strconv.Itoa(c.RiskCap)),
		attr("ip_lookup_timeout_ms", strconv.Itoa(c.IPLookupTimeoutMS)),
		attr("ip_cache_ttl_seconds", strconv.Itoa(c.IPCacheTTLSeconds)),
		attr("suspicious_networks", strings.Join(c.SuspiciousNetworks, ",")),
		attr("audit_retention_days", strconv.Itoa(c.AuditRetentionDays)),
		attr("audit_integrity_key", redact(c.AuditIntegrityKey)),
		attr("audit_retry_interval_seconds", strconv.Itoa(c.AuditRetryIntervalSeconds)),
		attr("attempt_limit_per_minute", strconv.Itoa(c.AttemptLimitPerMinute)),
		attr("attempt_burst", strconv.Itoa(c.AttemptBurst)),
		attr("identity_jwt_secret", redact(c.IdentityJWTSecret)),
		attr("trusted_proxies", strings.Join(c.TrustedProxies, ",")),
	}
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "(set)"
}

// FormatText returns a text representation of the configuration
func (c *Config) FormatText() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Config file: %s\n\n", c.configFilePath))
	sb.WriteString(fmt.Sprintf("%-32s %-30s %s\n", "NAME", "VALUE", "SOURCE"))
	sb.WriteString(fmt.Sprintf("%-32s %-30s %s\n", "----", "-----", "------"))

	for _, attr := range c.Attributes() {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("%-32s %-30s %s\n", attr.Name, value, attr.Source))
	}
	return sb.String()
}

// FormatJSON returns a JSON representation of the configuration
func (c *Config) FormatJSON() (string, error) {
	result := map[string]interface{}{
		"config_file": c.configFilePath,
		"attributes":  c.Attributes(),
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
