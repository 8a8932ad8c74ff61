package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "schemes": {{ marshal .Schemes }},
    "paths": {
        "/notes": {
            "get": {
                "tags": ["notes"],
                "summary": "List notes",
                "description": "Filter with field[op]=value (gt, gte, lt, lte, ne), archived=true|all, reminderBefore, reminderAfter, dueBefore, dueAfter, hasReminder, isOverdue. Sort with sort=-createdAt,title; project with fields=title,category.",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "description": "Page number", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Page size (max 100)", "name": "limit", "in": "query"},
                    {"type": "string", "description": "Sort fields", "name": "sort", "in": "query"},
                    {"type": "string", "description": "Fields to include", "name": "fields", "in": "query"},
                    {"type": "string", "description": "true or all", "name": "archived", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.NoteListResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            },
            "post": {
                "tags": ["notes"],
                "summary": "Create a note",
                "description": "A reminderAt in the future schedules a reminder.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"description": "Note data", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ports.CreateNoteRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/http.NoteResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/notes/{id}": {
            "get": {
                "tags": ["notes"],
                "summary": "Get a note",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "Note ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.NoteResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            },
            "patch": {
                "tags": ["notes"],
                "summary": "Update a note",
                "description": "Partial update. Sending reminderAt replaces the reminder; null clears it. isArchived and isPinned are rejected.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "Note ID", "name": "id", "in": "path", "required": true},
                    {"description": "Fields to change", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ports.UpdateNoteRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.NoteResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["notes"],
                "summary": "Delete a note permanently",
                "parameters": [
                    {"type": "string", "description": "Note ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/notes/{id}/archive": {
            "patch": {
                "tags": ["notes"],
                "summary": "Archive a note",
                "description": "Archiving cancels a pending reminder.",
                "parameters": [{"type": "string", "description": "Note ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.NoteResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/notes/{id}/restore": {
            "patch": {
                "tags": ["notes"],
                "summary": "Restore an archived note",
                "description": "Restoring re-schedules a reminder that is still in the future.",
                "parameters": [{"type": "string", "description": "Note ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.NoteResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/notes/{id}/pin": {
            "patch": {
                "tags": ["notes"],
                "summary": "Pin a note",
                "parameters": [{"type": "string", "description": "Note ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.NoteResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/notes/{id}/unpin": {
            "patch": {
                "tags": ["notes"],
                "summary": "Unpin a note",
                "parameters": [{"type": "string", "description": "Note ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.NoteResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "entities.Note": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "content": {"type": "string"},
                "category": {"type": "string", "enum": ["General", "Work", "Personal", "Ideas", "Urgent"]},
                "isArchived": {"type": "boolean"},
                "isPinned": {"type": "boolean"},
                "reminderAt": {"type": "string", "format": "date-time"},
                "dueDate": {"type": "string", "format": "date-time"},
                "createdAt": {"type": "string", "format": "date-time"},
                "updatedAt": {"type": "string", "format": "date-time"},
                "version": {"type": "integer"}
            }
        },
        "ports.CreateNoteRequest": {
            "type": "object",
            "required": ["title", "content"],
            "properties": {
                "title": {"type": "string", "maxLength": 100},
                "content": {"type": "string"},
                "category": {"type": "string", "enum": ["General", "Work", "Personal", "Ideas", "Urgent"]},
                "isPinned": {"type": "boolean"},
                "reminderAt": {"type": "string", "format": "date-time"},
                "dueDate": {"type": "string", "format": "date-time"}
            }
        },
        "ports.UpdateNoteRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string", "maxLength": 100},
                "content": {"type": "string"},
                "category": {"type": "string", "enum": ["General", "Work", "Personal", "Ideas", "Urgent"]},
                "reminderAt": {"type": "string", "format": "date-time", "x-nullable": true},
                "dueDate": {"type": "string", "format": "date-time", "x-nullable": true}
            }
        },
        "http.NoteResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "message": {"type": "string"},
                "data": {"type": "object", "properties": {"note": {"$ref": "#/definitions/entities.Note"}}}
            }
        },
        "http.NoteListResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "results": {"type": "integer"},
                "pagination": {
                    "type": "object",
                    "properties": {
                        "currentPage": {"type": "integer"},
                        "totalPages": {"type": "integer"},
                        "totalNotes": {"type": "integer"}
                    }
                },
                "data": {
                    "type": "object",
                    "properties": {"notes": {"type": "array", "items": {"type": "object"}}}
                }
            }
        },
        "http.ErrorResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "message": {"type": "string"},
                "error": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http"},
	Title:            "InkMind API",
	Description:      "Notes with categories, pinning, archiving and scheduled reminders",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
