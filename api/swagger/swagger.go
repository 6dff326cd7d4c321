package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Stencil API",
        "description": "Audit trail engine for transactional email template management",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "ApiKeyAuth": {"type": "apiKey", "name": "X-API-Key", "in": "header"}
    },
    "tags": [
        {"name": "Settings", "description": "Per-tenant audit configuration"},
        {"name": "AuditLogs", "description": "Audit trail queries and export"},
        {"name": "Cleanup", "description": "Retention cleanup and confirmed wipes"},
        {"name": "Templates", "description": "Audited template management"}
    ],
    "paths": {
        "/audit-settings": {
            "get": {
                "tags": ["Settings"],
                "summary": "Get audit settings",
                "security": [{"ApiKeyAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Settings"],
                "summary": "Update audit settings",
                "security": [{"ApiKeyAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateAuditSettingsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/audit-logs": {
            "get": {
                "tags": ["AuditLogs"],
                "summary": "List audit log entries",
                "security": [{"ApiKeyAuth": []}],
                "parameters": [
                    {"name": "operation_type", "in": "query", "type": "string"},
                    {"name": "entity_name", "in": "query", "type": "string"},
                    {"name": "operation_status", "in": "query", "type": "string"},
                    {"name": "date_from", "in": "query", "type": "string"},
                    {"name": "date_to", "in": "query", "type": "string"},
                    {"name": "order_by", "in": "query", "type": "string"},
                    {"name": "order_dir", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/audit-logs/search": {
            "get": {
                "tags": ["AuditLogs"],
                "summary": "Search audit log entries",
                "security": [{"ApiKeyAuth": []}],
                "parameters": [
                    {"name": "q", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/audit-logs/export": {
            "get": {
                "tags": ["AuditLogs"],
                "summary": "Export audit log entries as CSV or PDF",
                "security": [{"ApiKeyAuth": []}],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File"}
                }
            }
        },
        "/audit-logs/entity/{name}": {
            "get": {
                "tags": ["AuditLogs"],
                "summary": "Full audit history of one template",
                "security": [{"ApiKeyAuth": []}],
                "parameters": [
                    {"name": "name", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/audit-logs/{id}": {
            "get": {
                "tags": ["AuditLogs"],
                "summary": "Get a single audit log entry",
                "security": [{"ApiKeyAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/audit-logs/{id}/restore": {
            "post": {
                "tags": ["Templates"],
                "summary": "Restore the template state captured by an audit entry",
                "security": [{"ApiKeyAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/audit-logs/cleanup/confirm": {
            "post": {
                "tags": ["Cleanup"],
                "summary": "Issue a confirmation token authorising a full wipe",
                "security": [{"ApiKeyAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/audit-logs/cleanup": {
            "post": {
                "tags": ["Cleanup"],
                "summary": "Delete entries past the retention window, or wipe the trail",
                "security": [{"ApiKeyAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/CleanupRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/templates": {
            "get": {
                "tags": ["Templates"],
                "summary": "List templates",
                "security": [{"ApiKeyAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Templates"],
                "summary": "Create template",
                "security": [{"ApiKeyAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateTemplateRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/templates/import": {
            "post": {
                "tags": ["Templates"],
                "summary": "Import a batch of templates",
                "security": [{"ApiKeyAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ImportTemplatesRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/templates/{name}": {
            "get": {
                "tags": ["Templates"],
                "summary": "Get template",
                "security": [{"ApiKeyAuth": []}],
                "parameters": [
                    {"name": "name", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Templates"],
                "summary": "Update template",
                "security": [{"ApiKeyAuth": []}],
                "parameters": [
                    {"name": "name", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateTemplateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Templates"],
                "summary": "Delete template",
                "security": [{"ApiKeyAuth": []}],
                "parameters": [
                    {"name": "name", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        }
    },
    "definitions": {
        "UpdateAuditSettingsRequest": {
            "type": "object",
            "properties": {
                "enabled": {"type": "boolean"},
                "retention_days": {"type": "integer", "minimum": -1},
                "operator_identifier": {"type": "string"}
            }
        },
        "CleanupRequest": {
            "type": "object",
            "properties": {
                "clear_all": {"type": "boolean"},
                "confirmation_token": {"type": "string"}
            }
        },
        "CreateTemplateRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "slug": {"type": "string"},
                "labels": {"type": "array", "items": {"type": "string"}},
                "html_content": {"type": "string"},
                "subject": {"type": "string"},
                "from_email": {"type": "string"},
                "from_name": {"type": "string"},
                "plain_text": {"type": "string"}
            },
            "required": ["name"]
        },
        "UpdateTemplateRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "labels": {"type": "array", "items": {"type": "string"}},
                "html_content": {"type": "string"},
                "subject": {"type": "string"},
                "from_email": {"type": "string"},
                "from_name": {"type": "string"},
                "plain_text": {"type": "string"}
            }
        },
        "ImportTemplatesRequest": {
            "type": "object",
            "properties": {
                "templates": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/CreateTemplateRequest"}
                }
            },
            "required": ["templates"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "limit": {"type": "integer"},
                "offset": {"type": "integer"},
                "count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
