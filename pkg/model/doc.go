// Package model defines the database models for the rule store.
//
// Each model maps one table and converts to and from its pkg/authz
// counterpart, so the engine never sees a gorm type.
//
// # Tables
//
//   - permissions: the permission catalog
//   - roles, role_permissions: roles, their parent pointer and grants
//   - users: actor records with their assigned role
//   - user_permissions: per-user overrides and ad-hoc grants
//   - policies: conditional rules with their condition list as jsonb
package model
