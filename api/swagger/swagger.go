package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Ward Admission API",
        "description": "Offline-first patient admission tracker for a hospital ward",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Patients", "description": "Patient collection and derived views"},
        {"name": "Sync", "description": "Sync status and offline queue"},
        {"name": "Data", "description": "Export, backup, restore and import"},
        {"name": "Reports", "description": "Asynchronous report rendering"},
        {"name": "Auth", "description": "Ward account login"}
    ],
    "paths": {
        "/patients": {
            "get": {
                "tags": ["Patients"],
                "summary": "List patients grouped by discharge state",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string", "description": "Minimum 2 characters"},
                    {"name": "sortBy", "in": "query", "type": "string", "enum": ["roomNumber", "name"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Patients"],
                "summary": "Admit a new patient",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PatientRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "202": {"description": "Saved to the offline queue"},
                    "400": {"description": "Validation failed"}
                }
            }
        },
        "/patients/{id}": {
            "get": {
                "tags": ["Patients"],
                "summary": "Get one patient",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Patients"],
                "summary": "Update a patient",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PatientRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "202": {"description": "Saved to the offline queue"},
                    "400": {"description": "Validation failed"}
                }
            },
            "delete": {
                "tags": ["Patients"],
                "summary": "Delete a patient",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Deleted"},
                    "202": {"description": "Queued for deletion offline"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/sync/status": {
            "get": {
                "tags": ["Sync"],
                "summary": "Current sync status, connectivity and queue depth",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sync/pending": {
            "get": {
                "tags": ["Sync"],
                "summary": "Queued offline changes in replay order",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sync/drain": {
            "post": {
                "tags": ["Sync"],
                "summary": "Replay the offline queue now",
                "responses": {
                    "202": {"description": "Drain started"}
                }
            }
        },
        "/export/csv": {
            "get": {
                "tags": ["Data"],
                "summary": "Download the patient list as CSV",
                "produces": ["text/csv"],
                "responses": {
                    "200": {"description": "CSV content"}
                }
            }
        },
        "/export/json": {
            "get": {
                "tags": ["Data"],
                "summary": "Download the patient list as JSON",
                "responses": {
                    "200": {"description": "JSON content"}
                }
            }
        },
        "/backup": {
            "get": {
                "tags": ["Data"],
                "summary": "Download the versioned backup envelope",
                "responses": {
                    "200": {"description": "Backup envelope"}
                }
            }
        },
        "/restore": {
            "post": {
                "tags": ["Data"],
                "summary": "Replace the collection from a backup envelope",
                "responses": {
                    "200": {"description": "Restored"},
                    "400": {"description": "Invalid backup file"}
                }
            }
        },
        "/import": {
            "post": {
                "tags": ["Data"],
                "summary": "Import patients from a JSON array",
                "responses": {
                    "200": {"description": "Imported"},
                    "400": {"description": "Unreadable file"}
                }
            }
        },
        "/reports": {
            "post": {
                "tags": ["Reports"],
                "summary": "Request a rendered export",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Render queued"}
                }
            }
        },
        "/reports/{id}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Report job status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/reports/download/{token}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download a rendered report via its signed token",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File content"},
                    "401": {"description": "Invalid or expired token"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Log in with the ward account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Token issued"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        }
    },
    "definitions": {
        "PatientRequest": {
            "type": "object",
            "required": ["name", "birthYear", "patientCode", "roomNumber", "reason", "diagnosis"],
            "properties": {
                "name": {"type": "string"},
                "birthYear": {"type": "string"},
                "patientCode": {"type": "string"},
                "roomNumber": {"type": "string"},
                "reason": {"type": "string"},
                "diagnosis": {"type": "string"},
                "status": {"type": "string", "enum": ["INPATIENT", "DISCHARGE_TODAY", "DISCHARGED"]},
                "notes": {"type": "string"},
                "treatmentOptions": {"type": "array", "items": {"type": "string"}},
                "surgeryDetails": {"$ref": "#/definitions/SurgeryDetails"},
                "newNote": {"type": "string"}
            }
        },
        "SurgeryDetails": {
            "type": "object",
            "properties": {
                "procedure": {"type": "string"},
                "date": {"type": "string", "format": "date-time"},
                "surgeon": {"type": "string"},
                "assistant1": {"type": "string"},
                "assistant2": {"type": "string"}
            }
        },
        "ReportRequest": {
            "type": "object",
            "required": ["format"],
            "properties": {
                "format": {"type": "string", "enum": ["csv", "pdf", "json"]}
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
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
