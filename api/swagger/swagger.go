package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Student Console",
        "description": "JSON mirror of the student console operations",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Console", "description": "Student table and create/edit form"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Initial load pending"}
                }
            }
        },
        "/console/state": {
            "get": {
                "tags": ["Console"],
                "summary": "Current console state",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/console/submit": {
            "post": {
                "tags": ["Console"],
                "summary": "Submit the student form",
                "description": "Creates a student in create mode, updates the edited student in edit mode.",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StudentForm"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Backend failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/console/reset": {
            "post": {
                "tags": ["Console"],
                "summary": "Reset the form to create mode",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/console/reload": {
            "post": {
                "tags": ["Console"],
                "summary": "Reload the student list",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Backend failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/console/rows/{id}/{action}": {
            "post": {
                "tags": ["Console"],
                "summary": "Run a row action",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "action", "in": "path", "required": true, "type": "string", "enum": ["edit", "delete"]},
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/DispatchRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Backend failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "StudentForm": {
            "type": "object",
            "properties": {
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "email": {"type": "string"},
                "student_id": {"type": "string"},
                "major": {"type": "string"},
                "year": {"type": "string"}
            }
        },
        "DispatchRequest": {
            "type": "object",
            "properties": {
                "confirm": {"type": "boolean"}
            }
        },
        "StudentRow": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "email": {"type": "string"},
                "student_id": {"type": "string"},
                "major": {"type": "string"},
                "year": {"type": "integer"},
                "actions": {"type": "array", "items": {"type": "string"}}
            }
        },
        "ConsoleState": {
            "type": "object",
            "properties": {
                "rows": {"type": "array", "items": {"$ref": "#/definitions/StudentRow"}},
                "form": {"$ref": "#/definitions/StudentForm"},
                "chrome": {
                    "type": "object",
                    "properties": {
                        "title": {"type": "string"},
                        "submit_label": {"type": "string"},
                        "cancel_visible": {"type": "boolean"}
                    }
                },
                "message": {
                    "type": "object",
                    "properties": {
                        "text": {"type": "string"},
                        "kind": {"type": "string", "enum": ["success", "error"]},
                        "shown_at": {"type": "string", "format": "date-time"}
                    }
                },
                "editing": {"type": "boolean"},
                "editing_id": {"type": "integer"},
                "focus_form": {"type": "boolean"}
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
                "data": {"$ref": "#/definitions/ConsoleState"},
                "error": {"$ref": "#/definitions/APIError"}
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
