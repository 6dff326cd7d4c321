package dto

// ListAuditLogsQuery binds the filter parameters accepted by the audit
// log listing endpoints.
type ListAuditLogsQuery struct {
	OperationType   string `form:"operation_type" validate:"omitempty,oneof=create update delete import restore"`
	EntityName      string `form:"entity_name" validate:"omitempty,max=255"`
	OperationStatus string `form:"operation_status" validate:"omitempty,oneof=success partial failure"`
	DateFrom        string `form:"date_from" validate:"omitempty"`
	DateTo          string `form:"date_to" validate:"omitempty"`
	OrderBy         string `form:"order_by" validate:"omitempty,oneof=id created_at entity_name operation_type operation_status"`
	OrderDir        string `form:"order_dir" validate:"omitempty,oneof=asc desc ASC DESC"`
	Limit           int    `form:"limit" validate:"omitempty,min=1,max=500"`
	Offset          int    `form:"offset" validate:"omitempty,min=0"`
}

// SearchAuditLogsQuery extends the listing filters with a free-text term.
type SearchAuditLogsQuery struct {
	ListAuditLogsQuery
	Query string `form:"q" validate:"required,min=1,max=255"`
}

// CleanupRequest triggers retention cleanup, or a full wipe when ClearAll
// is set. A wipe requires the confirmation token issued beforehand.
type CleanupRequest struct {
	ClearAll          bool   `json:"clear_all"`
	ConfirmationToken string `json:"confirmation_token" validate:"required_if=ClearAll true"`
}

// CleanupResponse reports how many entries the cleanup removed. Deleted
// is the literal "all" after a full wipe, otherwise a row count.
type CleanupResponse struct {
	Deleted interface{} `json:"deleted"`
}

// ConfirmationResponse carries a short-lived token authorising a full wipe.
type ConfirmationResponse struct {
	ConfirmationToken string `json:"confirmation_token"`
	ExpiresIn         int    `json:"expires_in"`
}
