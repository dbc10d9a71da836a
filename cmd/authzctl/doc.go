// Command authzctl runs the fincore authorization service.
//
// The service decides whether an authenticated actor may perform an action
// on a resource. Decisions merge role permissions (with inheritance), user
// overrides and conditional policies, carry a risk score and are written to
// an append-only audit ledger.
//
// # Quick Start
//
//	# Create the rule and audit schemas
//	authzctl db migrate
//
//	# Load roles, permissions, policies and overrides
//	authzctl bundle load rules.yml
//
//	# Start the server
//	authzctl server
//
//	# Ask a question without a database
//	authzctl check --bundle rules.yml --user carol --resource transactions --action approve
//
// # Environment Variables
//
//   - DATABASE_URL: PostgreSQL connection string of the rule store
//   - AUDIT_DATABASE_URL: PostgreSQL connection string of the audit ledger (defaults to DATABASE_URL)
//   - AUTHZ_CONFIG_PATH: directory holding authz.yml
//   - AUTHZ_IDENTITY_JWT_SECRET: HS256 secret of the identity service's session tokens
//   - AUTHZ_AUDIT_INTEGRITY_KEY: hex encoded key sealing audit entries
//   - AUTHZ_LOG_LEVEL, AUTHZ_LOG_FORMAT: logging (debug, info, warn, error; text or json)
//   - REPUTATION_URL: optional IP reputation service
//   - PORT, BIND_ADDRESS: server listen address (default 0.0.0.0:8000)
package main
