package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stencilmail/stencil-api/internal/models"
)

func baseSnapshot() models.TemplateSnapshot {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return models.TemplateSnapshot{
		Slug:        "welcome-email",
		Name:        "Welcome Email",
		Labels:      []string{"onboarding", "transactional"},
		HTMLContent: "<h1>Hi</h1>",
		Subject:     "Hi",
		FromEmail:   "hello@acme.test",
		FromName:    "Acme",
		PlainText:   "Hi",
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func TestDiffIdenticalSnapshots(t *testing.T) {
	snap := baseSnapshot()
	changes := Diff(snap, snap)
	require.NotNil(t, changes)
	assert.Empty(t, changes)
}

func TestDiffSingleFieldChange(t *testing.T) {
	before := baseSnapshot()
	after := baseSnapshot()
	after.Subject = "Hello"

	changes := Diff(before, after)
	require.Len(t, changes, 1)
	assert.Equal(t, "subject", changes[0].Field)
	assert.Equal(t, "Hi", changes[0].OldValue)
	assert.Equal(t, "Hello", changes[0].NewValue)
	assert.Equal(t, models.ChangeModified, changes[0].ChangeType)
}

func TestDiffIgnoresLabelOrder(t *testing.T) {
	before := baseSnapshot()
	after := baseSnapshot()
	after.Labels = []string{"transactional", "onboarding"}

	assert.Empty(t, Diff(before, after))
}

func TestDiffLabelsEmittedSorted(t *testing.T) {
	before := baseSnapshot()
	after := baseSnapshot()
	after.Labels = []string{"transactional", "billing"}

	changes := Diff(before, after)
	require.Len(t, changes, 1)
	assert.Equal(t, "labels", changes[0].Field)
	assert.Equal(t, []string{"onboarding", "transactional"}, changes[0].OldValue)
	assert.Equal(t, []string{"billing", "transactional"}, changes[0].NewValue)
}

func TestDiffCanonicalOrder(t *testing.T) {
	before := baseSnapshot()
	after := baseSnapshot()
	after.Subject = "Hello"
	after.Name = "Welcome"
	after.PlainText = "Hello"

	changes := Diff(before, after)
	require.Len(t, changes, 3)
	assert.Equal(t, "name", changes[0].Field)
	assert.Equal(t, "subject", changes[1].Field)
	assert.Equal(t, "plain_text", changes[2].Field)
}

func TestDiffIgnoresBookkeepingTimestamps(t *testing.T) {
	before := baseSnapshot()
	after := baseSnapshot()
	after.UpdatedAt = after.UpdatedAt.Add(time.Hour)
	after.DraftUpdatedAt = after.CreatedAt.Add(2 * time.Hour)

	assert.Empty(t, Diff(before, after))
}

func TestDiffPublishedAt(t *testing.T) {
	before := baseSnapshot()
	after := baseSnapshot()
	published := time.Date(2025, 3, 2, 9, 30, 0, 0, time.UTC)
	after.PublishedAt = &published

	changes := Diff(before, after)
	require.Len(t, changes, 1)
	assert.Equal(t, "published_at", changes[0].Field)
	assert.Nil(t, changes[0].OldValue)
	assert.Equal(t, "2025-03-02T09:30:00Z", changes[0].NewValue)
}
