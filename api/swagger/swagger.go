package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Academic Metrics API",
        "description": "Period-based academic metrics aggregation and GPA calculation service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Metrics", "description": "Period summary snapshots"},
        {"name": "GPA", "description": "GPA calculation and history"},
        {"name": "Users", "description": "User aggregates and change audit"},
        {"name": "Terms", "description": "Term lifecycle and credits"},
        {"name": "Reports", "description": "Progress report exports"},
        {"name": "System", "description": "Service instrumentation"}
    ],
    "paths": {
        "/metrics": {
            "get": {
                "tags": ["Metrics"],
                "summary": "List stored period summary snapshots",
                "parameters": [
                    {"name": "course_id", "in": "query", "type": "string"},
                    {"name": "term_id", "in": "query", "type": "string"},
                    {"name": "period_type", "in": "query", "type": "string", "enum": ["daily", "5day_week", "7day_week", "biweekly", "monthly", "semester", "school_year"]},
                    {"name": "period_start", "in": "query", "type": "integer"},
                    {"name": "period_end", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/metrics/summary": {
            "get": {
                "tags": ["Metrics"],
                "summary": "Aggregate all stored snapshots for a scope into running totals",
                "parameters": [
                    {"name": "course_id", "in": "query", "type": "string"},
                    {"name": "term_id", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/metrics/calculate": {
            "post": {
                "tags": ["Metrics"],
                "summary": "Compute and store one period summary snapshot",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CalculateMetricsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/metrics/calculate-all": {
            "post": {
                "tags": ["Metrics"],
                "summary": "Recompute snapshots for every active course and period type",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "async", "in": "query", "type": "boolean"},
                    {"name": "week_start_day", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "202": {"description": "Queued"}
                }
            }
        },
        "/gpa/calculate": {
            "post": {
                "tags": ["GPA"],
                "summary": "Recalculate GPA figures and snapshot the result",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "schema": {"type": "object", "properties": {"term_id": {"type": "string"}}}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/gpa/history": {
            "get": {
                "tags": ["GPA"],
                "summary": "List stored GPA snapshots, newest first",
                "parameters": [
                    {"name": "term_id", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users/me": {
            "get": {
                "tags": ["Users"],
                "summary": "Return the caller's profile with current aggregate fields",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users/metrics": {
            "patch": {
                "tags": ["Users"],
                "summary": "Patch user aggregate metric fields with audit logging",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateUserMetricsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users/changes": {
            "get": {
                "tags": ["Users"],
                "summary": "List the caller's audit change log, newest first",
                "parameters": [
                    {"name": "change_type", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/terms/{id}/complete": {
            "post": {
                "tags": ["Terms"],
                "summary": "Close out a term, folding its credits into lifetime totals",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Term already completed"}
                }
            }
        },
        "/terms/credits": {
            "get": {
                "tags": ["Terms"],
                "summary": "Sum active-course credit hours for a term",
                "parameters": [
                    {"name": "term_id", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/progress": {
            "get": {
                "tags": ["Reports"],
                "summary": "Render a progress report as CSV or PDF",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "course_id", "in": "query", "type": "string"},
                    {"name": "term_id", "in": "query", "type": "string"},
                    {"name": "store", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/reports/download": {
            "get": {
                "tags": ["Reports"],
                "summary": "Fetch a previously stored report using a signed token",
                "parameters": [
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Invalid or expired token"}
                }
            }
        },
        "/system/metrics": {
            "get": {
                "tags": ["System"],
                "summary": "Return a point-in-time snapshot of service counters",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CalculateMetricsRequest": {
            "type": "object",
            "required": ["period_type"],
            "properties": {
                "course_id": {"type": "string"},
                "term_id": {"type": "string"},
                "period_type": {"type": "string", "enum": ["daily", "5day_week", "7day_week", "biweekly", "monthly", "semester", "school_year"]},
                "reference_date": {"type": "string", "format": "date-time"},
                "week_start_day": {"type": "string"}
            }
        },
        "UpdateUserMetricsRequest": {
            "type": "object",
            "properties": {
                "current_gpa": {"type": "number"},
                "institution_gpa": {"type": "number"},
                "predicted_term_gpa": {"type": "number"},
                "transfer_gpa": {"type": "number"},
                "transfer_credits": {"type": "number"},
                "total_credits_earned": {"type": "number"},
                "total_credits_attempted": {"type": "number"},
                "change_reason": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
