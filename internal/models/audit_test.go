package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBulkEntryStatusDerivation(t *testing.T) {
	tests := []struct {
		name    string
		total   int
		success int
		failure int
		status  OperationStatus
	}{
		{"all succeeded", 5, 5, 0, StatusSuccess},
		{"all failed", 5, 0, 5, StatusFailure},
		{"mixed outcome", 5, 3, 2, StatusPartial},
		{"empty batch", 0, 0, 0, StatusSuccess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := NewBulkEntry("tenant-a", OperationImport, tt.total, tt.success, tt.failure, nil, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.status, entry.OperationStatus)
			assert.True(t, entry.IsBulk)
			require.NotNil(t, entry.TotalCount)
			assert.Equal(t, tt.total, *entry.TotalCount)
		})
	}
}

func TestNewBulkEntryEntityName(t *testing.T) {
	entry, err := NewBulkEntry("tenant-a", OperationImport, 12, 12, 0, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "import (12 templates)", entry.EntityName)
}

func TestNewBulkEntryRejectsCountMismatch(t *testing.T) {
	_, err := NewBulkEntry("tenant-a", OperationImport, 5, 3, 1, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mismatch")
}

func TestNewBulkEntryRejectsNegativeCounts(t *testing.T) {
	_, err := NewBulkEntry("tenant-a", OperationImport, -1, 0, -1, nil, nil)
	require.Error(t, err)
}

func TestValidateRequiresTenantKey(t *testing.T) {
	entry := &AuditLogEntry{OperationType: OperationCreate, StateAfter: &TemplateSnapshot{Name: "Welcome Email"}}
	assert.Error(t, entry.Validate())
}

func TestValidateRejectsUnknownOperation(t *testing.T) {
	entry := &AuditLogEntry{TenantKey: "tenant-a", OperationType: "rename", StateAfter: &TemplateSnapshot{}}
	assert.Error(t, entry.Validate())
}

func TestValidateCreateRequiresAfterSnapshot(t *testing.T) {
	entry := &AuditLogEntry{
		TenantKey:     "tenant-a",
		OperationType: OperationCreate,
		StateBefore:   &TemplateSnapshot{Name: "Welcome Email"},
	}
	assert.Error(t, entry.Validate())

	entry.StateAfter = &TemplateSnapshot{Name: "Welcome Email"}
	assert.NoError(t, entry.Validate())
}

func TestValidateUpdateAndDeleteRequireBeforeSnapshot(t *testing.T) {
	for _, op := range []OperationType{OperationUpdate, OperationDelete} {
		entry := &AuditLogEntry{
			TenantKey:     "tenant-a",
			OperationType: op,
			StateAfter:    &TemplateSnapshot{Name: "Welcome Email"},
		}
		assert.Error(t, entry.Validate(), string(op))

		entry.StateBefore = &TemplateSnapshot{Name: "Welcome Email"}
		assert.NoError(t, entry.Validate(), string(op))
	}
}

func TestValidateRequiresSomeSnapshot(t *testing.T) {
	entry := &AuditLogEntry{TenantKey: "tenant-a", OperationType: OperationRestore}
	assert.Error(t, entry.Validate())
}

func TestValidateBulkCounts(t *testing.T) {
	total, success, failure := 3, 2, 1
	entry := &AuditLogEntry{
		TenantKey:       "tenant-a",
		OperationType:   OperationImport,
		OperationStatus: StatusPartial,
		IsBulk:          true,
		TotalCount:      &total,
		SuccessCount:    &success,
		FailureCount:    &failure,
	}
	assert.NoError(t, entry.Validate())

	entry.FailureCount = nil
	assert.Error(t, entry.Validate())

	bad := 5
	entry.FailureCount = &bad
	assert.Error(t, entry.Validate())
}
