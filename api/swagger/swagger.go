package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Kindergarten Timetable API",
        "description": "Weekly timetable composition, daily overrides and exports for the kindergarten admin panel",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Timetable", "description": "Curriculum aggregation, draft generation and template storage"},
        {"name": "Schedule", "description": "Effective per-day schedules and slot swaps"},
        {"name": "Export", "description": "Rendered timetable downloads"}
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
                    "200": {"description": "Ready"}
                }
            }
        },
        "/timetable/curriculum": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Curriculum grouped by age for draft generation",
                "parameters": [
                    {"name": "schoolYear", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/fixed": {
            "get": {
                "tags": ["Timetable"],
                "summary": "List active fixed-time activities",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/generate": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Generate a merged weekly timetable draft for every class",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateTimetableRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Generator unavailable or undecodable draft"}
                }
            }
        },
        "/timetable/save": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Persist merged timetables as weekly templates",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveTimetableRequest"}}
                ],
                "responses": {
                    "200": {"description": "Per-class results", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/exists": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Check whether templates exist for a school year",
                "parameters": [
                    {"name": "schoolYear", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/template": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Stored weekly template of one class",
                "parameters": [
                    {"name": "class", "in": "query", "type": "string", "required": true},
                    {"name": "schoolYear", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No template stored"}
                }
            }
        },
        "/schedule/day": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Effective schedule of one class on one date",
                "parameters": [
                    {"name": "classId", "in": "query", "type": "string", "required": true},
                    {"name": "date", "in": "query", "type": "string", "required": true, "description": "YYYY-MM-DD, Monday-Friday"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Weekend or malformed date"}
                }
            }
        },
        "/schedule/week": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Effective schedule of one class for a numbered week",
                "parameters": [
                    {"name": "classId", "in": "query", "type": "string", "required": true},
                    {"name": "year", "in": "query", "type": "integer", "required": true},
                    {"name": "week", "in": "query", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/swap": {
            "post": {
                "tags": ["Schedule"],
                "summary": "Swap the activities of two slots",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SwapRequest"}}
                ],
                "responses": {
                    "200": {"description": "Both coordinates after the swap", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Fixed slot involved"}
                }
            }
        },
        "/timetable/export": {
            "post": {
                "tags": ["Export"],
                "summary": "Queue a timetable export",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportTimetableRequest"}}
                ],
                "responses": {
                    "202": {"description": "Job accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/export/{jobId}": {
            "get": {
                "tags": ["Export"],
                "summary": "Export job status",
                "parameters": [
                    {"name": "jobId", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/export/{token}": {
            "get": {
                "tags": ["Export"],
                "summary": "Download a rendered export via signed token",
                "parameters": [
                    {"name": "token", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "File stream"},
                    "401": {"description": "Invalid or expired token"}
                }
            }
        }
    },
    "definitions": {
        "GenerateTimetableRequest": {
            "type": "object",
            "required": ["schoolYear"],
            "properties": {
                "schoolYear": {"type": "string"}
            }
        },
        "SaveTimetableRequest": {
            "type": "object",
            "required": ["schoolYear", "classes"],
            "properties": {
                "schoolYear": {"type": "string"},
                "classes": {"type": "array", "items": {"$ref": "#/definitions/ClassWeeklySchedule"}}
            }
        },
        "ClassWeeklySchedule": {
            "type": "object",
            "properties": {
                "className": {"type": "string"},
                "days": {"type": "object"}
            }
        },
        "SwapRequest": {
            "type": "object",
            "required": ["classId", "date1", "time1", "date2", "time2"],
            "properties": {
                "classId": {"type": "string"},
                "date1": {"type": "string"},
                "time1": {"type": "string"},
                "date2": {"type": "string"},
                "time2": {"type": "string"}
            }
        },
        "ExportTimetableRequest": {
            "type": "object",
            "required": ["className", "schoolYear", "format"],
            "properties": {
                "className": {"type": "string"},
                "schoolYear": {"type": "string"},
                "format": {"type": "string", "enum": ["csv", "pdf"]}
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
                "pagination": {"type": "object"},
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
