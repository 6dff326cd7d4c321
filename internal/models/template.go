package models

import "time"

// TemplateSnapshot is a full copy of a template's state at one instant.
// Snapshots are immutable values: two snapshots of the same template are
// compared field by field, never by identity.
type TemplateSnapshot struct {
	Slug                 string     `json:"slug"`
	Name                 string     `json:"name"`
	Labels               []string   `json:"labels,omitempty"`
	HTMLContent          string     `json:"html_content"`
	Subject              string     `json:"subject"`
	FromEmail            string     `json:"from_email"`
	FromName             string     `json:"from_name"`
	PlainText            string     `json:"plain_text"`
	PublishedHTMLContent string     `json:"published_html_content"`
	PublishedSubject     string     `json:"published_subject"`
	PublishedFromEmail   string     `json:"published_from_email"`
	PublishedFromName    string     `json:"published_from_name"`
	PublishedPlainText   string     `json:"published_plain_text"`
	PublishedAt          *time.Time `json:"published_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
	DraftUpdatedAt       time.Time  `json:"draft_updated_at"`
}

// TemplateFields carries the mutable template attributes sent to the
// email provider on create/update.
type TemplateFields struct {
	Subject     string   `json:"subject"`
	HTMLContent string   `json:"html_content"`
	PlainText   string   `json:"plain_text"`
	FromEmail   string   `json:"from_email"`
	FromName    string   `json:"from_name"`
	Labels      []string `json:"labels,omitempty"`
}
