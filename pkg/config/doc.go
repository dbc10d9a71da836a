// Package config provides configuration management for the authorization service.
//
// Settings are read from ${AUTHZ_CONFIG_PATH:-/etc/fincore-authz}/authz.yml
// and then overridden by AUTHZ_* environment variables. Each attribute
// remembers where its value came from (default, file or environment) so
// `authzctl configuration show` can report it.
//
// # Key Configuration Options
//
//   - AUTHZ_BUSINESS_HOURS_START / AUTHZ_BUSINESS_HOURS_END: business day window
//   - AUTHZ_TIMEZONE: zone the window is evaluated in
//   - AUTHZ_SUSPICIOUS_NETWORKS: comma separated CIDRs or ranges
//   - AUTHZ_AUDIT_INTEGRITY_KEY: hex key for audit seals
//   - AUTHZ_IDENTITY_JWT_SECRET: verifies identity session tokens
//   - DATABASE_URL / AUDIT_DATABASE_URL: connections (see package db)
package config
