package dto

// CreateTemplateRequest carries the mutable fields for a new template.
type CreateTemplateRequest struct {
	Name        string   `json:"name" validate:"required,max=255"`
	Slug        string   `json:"slug" validate:"omitempty,max=255"`
	Labels      []string `json:"labels" validate:"omitempty,dive,max=100"`
	HTMLContent string   `json:"html_content" validate:"omitempty"`
	Subject     string   `json:"subject" validate:"omitempty,max=998"`
	FromEmail   string   `json:"from_email" validate:"omitempty,email"`
	FromName    string   `json:"from_name" validate:"omitempty,max=255"`
	PlainText   string   `json:"plain_text" validate:"omitempty"`
}

// UpdateTemplateRequest patches an existing template. Only the fields
// present are sent to the provider.
type UpdateTemplateRequest struct {
	Name        *string  `json:"name" validate:"omitempty,max=255"`
	Labels      []string `json:"labels" validate:"omitempty,dive,max=100"`
	HTMLContent *string  `json:"html_content"`
	Subject     *string  `json:"subject" validate:"omitempty,max=998"`
	FromEmail   *string  `json:"from_email" validate:"omitempty,email"`
	FromName    *string  `json:"from_name" validate:"omitempty,max=255"`
	PlainText   *string  `json:"plain_text"`
}

// ImportTemplatesRequest carries a batch of templates to create.
type ImportTemplatesRequest struct {
	Templates []CreateTemplateRequest `json:"templates" validate:"required,min=1,max=200,dive"`
}

// ImportFailure describes one item that could not be imported.
type ImportFailure struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

// ImportTemplatesResponse summarises a bulk import.
type ImportTemplatesResponse struct {
	OperationID  string          `json:"operation_id"`
	Total        int             `json:"total"`
	SuccessCount int             `json:"success_count"`
	FailureCount int             `json:"failure_count"`
	Failures     []ImportFailure `json:"failures,omitempty"`
}
