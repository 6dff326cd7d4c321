package service

import (
	"sort"
	"time"

	"github.com/stencilmail/stencil-api/internal/models"
)

// Diff computes the field-level changes between two template snapshots.
// It is pure and deterministic: fields are visited in a fixed canonical
// order, labels are compared as unordered sets, and identical snapshots
// yield an empty list. Bookkeeping timestamps (created_at, updated_at,
// draft_updated_at) are not part of the comparison.
func Diff(before, after models.TemplateSnapshot) []models.ChangeRecord {
	changes := []models.ChangeRecord{}

	scalarFields := []struct {
		name     string
		old, new string
	}{
		{"slug", before.Slug, after.Slug},
		{"name", before.Name, after.Name},
	}
	for _, f := range scalarFields {
		if f.old != f.new {
			changes = append(changes, modified(f.name, f.old, f.new))
		}
	}

	if !labelsEqual(before.Labels, after.Labels) {
		changes = append(changes, modified("labels", sortedCopy(before.Labels), sortedCopy(after.Labels)))
	}

	contentFields := []struct {
		name     string
		old, new string
	}{
		{"html_content", before.HTMLContent, after.HTMLContent},
		{"subject", before.Subject, after.Subject},
		{"from_email", before.FromEmail, after.FromEmail},
		{"from_name", before.FromName, after.FromName},
		{"plain_text", before.PlainText, after.PlainText},
		{"published_html_content", before.PublishedHTMLContent, after.PublishedHTMLContent},
		{"published_subject", before.PublishedSubject, after.PublishedSubject},
		{"published_from_email", before.PublishedFromEmail, after.PublishedFromEmail},
		{"published_from_name", before.PublishedFromName, after.PublishedFromName},
		{"published_plain_text", before.PublishedPlainText, after.PublishedPlainText},
	}
	for _, f := range contentFields {
		if f.old != f.new {
			changes = append(changes, modified(f.name, f.old, f.new))
		}
	}

	if !timePtrEqual(before.PublishedAt, after.PublishedAt) {
		changes = append(changes, modified("published_at", timePtrValue(before.PublishedAt), timePtrValue(after.PublishedAt)))
	}

	return changes
}

func modified(field string, oldValue, newValue interface{}) models.ChangeRecord {
	return models.ChangeRecord{
		Field:      field,
		OldValue:   oldValue,
		NewValue:   newValue,
		ChangeType: models.ChangeModified,
	}
}

func labelsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, label := range a {
		seen[label]++
	}
	for _, label := range b {
		if seen[label] == 0 {
			return false
		}
		seen[label]--
	}
	return true
}

func sortedCopy(labels []string) []string {
	out := make([]string, len(labels))
	copy(out, labels)
	sort.Strings(out)
	return out
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func timePtrValue(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
