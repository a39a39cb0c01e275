package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Registrar API",
        "description": "Program and course enrollment management service",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Programs", "description": "Read-only program and course catalog"},
        {"name": "Enrollments", "description": "Batch enrollment writes and export submission"},
        {"name": "Jobs", "description": "Asynchronous export job status"},
        {"name": "Reports", "description": "Program report listings"},
        {"name": "Auth", "description": "Identity provider redirects"}
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
        "/login": {
            "get": {
                "tags": ["Auth"],
                "summary": "Redirect to the identity provider login",
                "responses": {
                    "302": {"description": "Found"}
                }
            }
        },
        "/logout": {
            "get": {
                "tags": ["Auth"],
                "summary": "Redirect to the identity provider logout",
                "responses": {
                    "302": {"description": "Found"}
                }
            }
        },
        "/v1/programs": {
            "get": {
                "tags": ["Programs"],
                "summary": "List programs",
                "parameters": [
                    {"name": "org", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/Program"}}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/v1/programs/{program_key}": {
            "get": {
                "tags": ["Programs"],
                "summary": "Program detail",
                "parameters": [
                    {"name": "program_key", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Program"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/v1/programs/{program_key}/courses": {
            "get": {
                "tags": ["Programs"],
                "summary": "List courses of a program",
                "parameters": [
                    {"name": "program_key", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/Course"}}}
                }
            }
        },
        "/v1/programs/{program_key}/enrollments": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "Submit a program enrollment export job",
                "parameters": [
                    {"name": "program_key", "in": "path", "required": true, "type": "string"},
                    {"name": "fmt", "in": "query", "type": "string", "enum": ["json", "csv"]}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/NewJobResponse"}}
                }
            },
            "post": {
                "tags": ["Enrollments"],
                "summary": "Batch-create program enrollments",
                "parameters": [
                    {"name": "program_key", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "array", "items": {"$ref": "#/definitions/EnrollmentRecord"}}}
                ],
                "responses": {
                    "200": {"description": "All records written", "schema": {"$ref": "#/definitions/BatchResult"}},
                    "207": {"description": "Partial success", "schema": {"$ref": "#/definitions/BatchResult"}},
                    "413": {"description": "Batch exceeds 25 records", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "422": {"description": "No record written", "schema": {"$ref": "#/definitions/BatchResult"}}
                }
            },
            "patch": {
                "tags": ["Enrollments"],
                "summary": "Batch-modify program enrollments",
                "parameters": [
                    {"name": "program_key", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "array", "items": {"$ref": "#/definitions/EnrollmentRecord"}}}
                ],
                "responses": {
                    "200": {"description": "All records written", "schema": {"$ref": "#/definitions/BatchResult"}},
                    "207": {"description": "Partial success", "schema": {"$ref": "#/definitions/BatchResult"}},
                    "413": {"description": "Batch exceeds 25 records", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "422": {"description": "No record written", "schema": {"$ref": "#/definitions/BatchResult"}}
                }
            }
        },
        "/v1/programs/{program_key}/courses/{course_id}/enrollments": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "Submit a course enrollment export job",
                "parameters": [
                    {"name": "program_key", "in": "path", "required": true, "type": "string"},
                    {"name": "course_id", "in": "path", "required": true, "type": "string"},
                    {"name": "fmt", "in": "query", "type": "string", "enum": ["json", "csv"]}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/NewJobResponse"}}
                }
            },
            "post": {
                "tags": ["Enrollments"],
                "summary": "Batch-create course enrollments",
                "parameters": [
                    {"name": "program_key", "in": "path", "required": true, "type": "string"},
                    {"name": "course_id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "array", "items": {"$ref": "#/definitions/EnrollmentRecord"}}}
                ],
                "responses": {
                    "200": {"description": "All records written", "schema": {"$ref": "#/definitions/BatchResult"}},
                    "207": {"description": "Partial success", "schema": {"$ref": "#/definitions/BatchResult"}},
                    "413": {"description": "Batch exceeds 25 records", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "422": {"description": "No record written", "schema": {"$ref": "#/definitions/BatchResult"}}
                }
            },
            "patch": {
                "tags": ["Enrollments"],
                "summary": "Batch-modify course enrollments",
                "parameters": [
                    {"name": "program_key", "in": "path", "required": true, "type": "string"},
                    {"name": "course_id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "array", "items": {"$ref": "#/definitions/EnrollmentRecord"}}}
                ],
                "responses": {
                    "200": {"description": "All records written", "schema": {"$ref": "#/definitions/BatchResult"}},
                    "207": {"description": "Partial success", "schema": {"$ref": "#/definitions/BatchResult"}},
                    "413": {"description": "Batch exceeds 25 records", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "422": {"description": "No record written", "schema": {"$ref": "#/definitions/BatchResult"}}
                }
            }
        },
        "/v1/programs/{program_key}/courses/{course_id}/grades": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "Submit a course grade export job",
                "parameters": [
                    {"name": "program_key", "in": "path", "required": true, "type": "string"},
                    {"name": "course_id", "in": "path", "required": true, "type": "string"},
                    {"name": "fmt", "in": "query", "type": "string", "enum": ["json", "csv"]}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/NewJobResponse"}}
                }
            }
        },
        "/v1/programs/{program_key}/reports": {
            "get": {
                "tags": ["Reports"],
                "summary": "List program reports",
                "parameters": [
                    {"name": "program_key", "in": "path", "required": true, "type": "string"},
                    {"name": "min_created_date", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/ProgramReport"}}}
                }
            }
        },
        "/v1/jobs/{job_id}": {
            "get": {
                "tags": ["Jobs"],
                "summary": "Export job status",
                "parameters": [
                    {"name": "job_id", "in": "path", "required": true, "type": "string", "format": "uuid"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/JobStatusResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        }
    },
    "definitions": {
        "Program": {
            "type": "object",
            "properties": {
                "program_key": {"type": "string"},
                "program_title": {"type": "string"},
                "program_url": {"type": "string"}
            }
        },
        "Course": {
            "type": "object",
            "properties": {
                "course_id": {"type": "string"},
                "external_course_key": {"type": "string"},
                "course_title": {"type": "string"},
                "course_url": {"type": "string"}
            }
        },
        "EnrollmentRecord": {
            "type": "object",
            "required": ["student_key", "status"],
            "properties": {
                "student_key": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "BatchResult": {
            "type": "object",
            "additionalProperties": {"type": "string"}
        },
        "NewJobResponse": {
            "type": "object",
            "properties": {
                "job_id": {"type": "string"},
                "job_url": {"type": "string"}
            }
        },
        "JobStatusResponse": {
            "type": "object",
            "properties": {
                "created": {"type": "string", "format": "date-time"},
                "state": {"type": "string", "enum": ["Queued", "In Progress", "Canceled", "Failed", "Succeeded"]},
                "result": {"type": "string"}
            }
        },
        "ProgramReport": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "created_date": {"type": "string", "format": "date-time"},
                "download_url": {"type": "string"}
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
        "ErrorBody": {
            "type": "object",
            "properties": {
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
