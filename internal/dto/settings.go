package dto

// UpdateAuditSettingsRequest carries a partial settings update. All fields
// are optional; at least one must be present.
type UpdateAuditSettingsRequest struct {
	Enabled            *bool   `json:"enabled"`
	RetentionDays      *int    `json:"retention_days" validate:"omitempty,min=-1"`
	OperatorIdentifier *string `json:"operator_identifier" validate:"omitempty,max=255"`
}
