package models

import "time"

// RetentionForever disables automatic deletion for a tenant.
const RetentionForever = -1

// DefaultRetentionDays applies to lazily created settings rows.
const DefaultRetentionDays = 30

// AuditSettings holds per-tenant audit configuration. Exactly one row
// exists per tenant key; the first read creates the default row.
type AuditSettings struct {
	TenantKey          string    `db:"tenant_key" json:"-"`
	Enabled            bool      `db:"enabled" json:"enabled"`
	RetentionDays      int       `db:"retention_days" json:"retention_days"`
	OperatorIdentifier *string   `db:"operator_identifier" json:"operator_identifier,omitempty"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// AuditSettingsPatch carries a partial settings update; nil fields are
// left untouched.
type AuditSettingsPatch struct {
	Enabled            *bool
	RetentionDays      *int
	OperatorIdentifier *string
}
