// Package bundle loads rule sets written as YAML.
//
// A bundle lists permissions, roles, users, policies and user overrides.
// Records refer to each other by name; ids are derived from names unless
// given explicitly, so loading the same bundle twice is idempotent.
//
//	permissions:
//	  - name: approve-company-transactions
//	    resource: transactions
//	    action: approve
//	    scope: COMPANY
//	roles:
//	  - name: clerk
//	    type: clerk
//	    company: acme
//	    priority: 600
//	    permissions: [approve-company-transactions]
//	policies:
//	  - name: same-company-approvals
//	    effect: ALLOW
//	    resource: transactions
//	    action: approve
//	    conditions:
//	      - {field: company_id, operator: SAME_COMPANY, context: RESOURCE}
//
// The whole bundle is validated (enumerations, references, role cycles,
// policy conditions) before anything is written, and then applied in one
// store transaction.
package bundle
