package models

import (
	"fmt"
	"time"
)

// OperationType classifies the template mutation an audit entry records.
type OperationType string

const (
	OperationCreate  OperationType = "create"
	OperationUpdate  OperationType = "update"
	OperationDelete  OperationType = "delete"
	OperationImport  OperationType = "import"
	OperationRestore OperationType = "restore"
)

// ValidOperationType reports whether the value is a known operation type.
func ValidOperationType(op OperationType) bool {
	switch op {
	case OperationCreate, OperationUpdate, OperationDelete, OperationImport, OperationRestore:
		return true
	}
	return false
}

// OperationStatus captures the outcome of the recorded operation.
type OperationStatus string

const (
	StatusSuccess OperationStatus = "success"
	StatusPartial OperationStatus = "partial"
	StatusFailure OperationStatus = "failure"
)

// ChangeType classifies one field-level change.
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeRemoved  ChangeType = "removed"
	ChangeModified ChangeType = "modified"
)

// ChangeRecord is one field-level difference between two snapshots.
// Records are produced only by the diff engine.
type ChangeRecord struct {
	Field      string      `json:"field"`
	OldValue   interface{} `json:"old_value"`
	NewValue   interface{} `json:"new_value"`
	ChangeType ChangeType  `json:"change_type"`
}

// AuditLogEntry is one append-only audit row. Entries are created exactly
// once by the recorder and thereafter removed only by retention cleanup or
// an explicit tenant wipe.
type AuditLogEntry struct {
	ID                 int64             `json:"id"`
	TenantKey          string            `json:"-"`
	CreatedAt          time.Time         `json:"created_at"`
	OperationType      OperationType     `json:"operation_type"`
	OperationStatus    OperationStatus   `json:"operation_status"`
	OperationID        *string           `json:"operation_id,omitempty"`
	EntitySlug         *string           `json:"entity_slug,omitempty"`
	EntityName         string            `json:"entity_name"`
	StateBefore        *TemplateSnapshot `json:"state_before,omitempty"`
	StateAfter         *TemplateSnapshot `json:"state_after,omitempty"`
	Changes            []ChangeRecord    `json:"changes,omitempty"`
	OperatorIdentifier *string           `json:"operator_identifier,omitempty"`
	ErrorMessage       *string           `json:"error_message,omitempty"`
	ErrorDetails       interface{}       `json:"error_details,omitempty"`
	IsBulk             bool              `json:"is_bulk"`
	TotalCount         *int              `json:"total_count,omitempty"`
	SuccessCount       *int              `json:"success_count,omitempty"`
	FailureCount       *int              `json:"failure_count,omitempty"`
	SearchText         string            `json:"-"`
}

// Validate checks the structural invariants of an entry before it is
// persisted.
func (e *AuditLogEntry) Validate() error {
	if e.TenantKey == "" {
		return fmt.Errorf("audit entry requires a tenant key")
	}
	if !ValidOperationType(e.OperationType) {
		return fmt.Errorf("unknown operation type %q", e.OperationType)
	}
	if e.IsBulk {
		if e.TotalCount == nil || e.SuccessCount == nil || e.FailureCount == nil {
			return fmt.Errorf("bulk entry requires total, success and failure counts")
		}
		if *e.SuccessCount+*e.FailureCount != *e.TotalCount {
			return fmt.Errorf("bulk counts mismatch: %d + %d != %d", *e.SuccessCount, *e.FailureCount, *e.TotalCount)
		}
		return nil
	}
	if e.StateBefore == nil && e.StateAfter == nil {
		return fmt.Errorf("entry requires at least one snapshot")
	}
	switch e.OperationType {
	case OperationCreate:
		if e.StateAfter == nil {
			return fmt.Errorf("create entry requires an after snapshot")
		}
	case OperationUpdate, OperationDelete:
		if e.StateBefore == nil {
			return fmt.Errorf("%s entry requires a before snapshot", e.OperationType)
		}
	}
	return nil
}

// NewBulkEntry builds an aggregate entry for a bulk operation. The count
// invariant (success + failure == total) is enforced here and nowhere else.
func NewBulkEntry(tenantKey string, op OperationType, total, success, failure int, details interface{}, operator *string) (*AuditLogEntry, error) {
	if total < 0 || success < 0 || failure < 0 {
		return nil, fmt.Errorf("bulk counts must be non-negative")
	}
	if success+failure != total {
		return nil, fmt.Errorf("bulk counts mismatch: %d + %d != %d", success, failure, total)
	}

	status := StatusPartial
	switch {
	case failure == 0:
		status = StatusSuccess
	case success == 0:
		status = StatusFailure
	}

	entry := &AuditLogEntry{
		TenantKey:          tenantKey,
		OperationType:      op,
		OperationStatus:    status,
		EntityName:         fmt.Sprintf("%s (%d templates)", op, total),
		OperatorIdentifier: operator,
		ErrorDetails:       details,
		IsBulk:             true,
		TotalCount:         &total,
		SuccessCount:       &success,
		FailureCount:       &failure,
	}
	return entry, nil
}

// AuditLogFilter narrows list/search queries. All fields are optional.
type AuditLogFilter struct {
	OperationType OperationType
	EntityName    string
	Status        OperationStatus
	DateFrom      *time.Time
	DateTo        *time.Time
	OrderBy       string
	OrderDir      string
	Limit         int
	Offset        int
}
