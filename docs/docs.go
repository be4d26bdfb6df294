// Package docs registers the API description served under /swagger.
// Regenerate with: swag init -g cmd/api/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/token": {
            "post": {
                "description": "Exchange the shared API key for a JWT bound to the given user id",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Authentication"],
                "summary": "Obtain an access token",
                "parameters": [
                    {
                        "description": "User id and API key",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/auth.TokenRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "Token issued", "schema": {"$ref": "#/definitions/auth.AuthTokens"}},
                    "400": {"description": "Invalid request data", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/interview/start": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Create an interview and return its greeting question",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Interviews"],
                "summary": "Start an interview",
                "parameters": [
                    {
                        "description": "Interview settings",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/interview.StartRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Interview started", "schema": {"$ref": "#/definitions/handlers.StartInterviewResponse"}},
                    "400": {"description": "Invalid request data", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/interview/state/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Interviews"],
                "summary": "Get interview state",
                "parameters": [{"type": "string", "description": "Interview ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Interview state", "schema": {"$ref": "#/definitions/handlers.InterviewStateResponse"}},
                    "403": {"description": "Not your interview", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Interview not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/interview/answer/{id}": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Interviews"],
                "summary": "Answer the current question",
                "parameters": [
                    {"type": "string", "description": "Interview ID", "name": "id", "in": "path", "required": true},
                    {
                        "description": "Answer text",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handlers.AnswerRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "Answer processed", "schema": {"$ref": "#/definitions/handlers.AnswerResponse"}},
                    "404": {"description": "Interview not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "409": {"description": "Interview has ended", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/interview/{id}/code": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Interviews"],
                "summary": "Run code for the current coding question",
                "parameters": [
                    {"type": "string", "description": "Interview ID", "name": "id", "in": "path", "required": true},
                    {
                        "description": "Source code",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/interview.CodeRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "Execution result", "schema": {"$ref": "#/definitions/handlers.CodeResponse"}},
                    "400": {"description": "Invalid request data or no test cases", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "503": {"description": "Code execution unavailable", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/interview/{id}/report": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Interviews"],
                "summary": "Get interview report",
                "parameters": [{"type": "string", "description": "Interview ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Report", "schema": {"$ref": "#/definitions/handlers.ReportResponse"}},
                    "404": {"description": "No report for this interview", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/resume/parse": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Accepts a multipart \"file\" field or a plain text body. The result can be sent as resume_data when starting an interview.",
                "consumes": ["multipart/form-data", "text/plain"],
                "produces": ["application/json"],
                "tags": ["Resume"],
                "summary": "Parse a resume",
                "parameters": [{"type": "file", "description": "Resume as .txt or .md", "name": "file", "in": "formData"}],
                "responses": {
                    "200": {"description": "Parsed resume", "schema": {"$ref": "#/definitions/interview.ResumeData"}},
                    "400": {"description": "Empty or unreadable resume", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "415": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/ws/interview/{id}": {
            "get": {
                "description": "Upgrades to a websocket carrying JSON control messages and binary PCM16 audio. Closes with 4001 on auth failure and 4004 for unknown interviews.",
                "tags": ["WebSocket"],
                "summary": "Live interview websocket",
                "parameters": [
                    {"type": "string", "description": "Interview ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Access token", "name": "token", "in": "query", "required": true}
                ],
                "responses": {"101": {"description": "Switching protocols"}}
            }
        },
        "/ws/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["WebSocket"],
                "summary": "Websocket connection statistics",
                "responses": {"200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}}
            }
        }
    },
    "definitions": {
        "auth.TokenRequest": {
            "type": "object",
            "required": ["api_key", "user_id"],
            "properties": {
                "api_key": {"type": "string", "example": "dev-key"},
                "user_id": {"type": "string", "maxLength": 128, "minLength": 1, "example": "candidate-42"}
            }
        },
        "auth.AuthTokens": {
            "type": "object",
            "properties": {
                "expires_at": {"type": "string", "example": "2025-01-02T12:00:00Z"},
                "token": {"type": "string"}
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "details": {"type": "string", "example": "Validation error details"},
                "error": {"type": "string", "example": "Something went wrong"}
            }
        },
        "handlers.AnswerRequest": {
            "type": "object",
            "required": ["answer"],
            "properties": {"answer": {"type": "string"}}
        },
        "handlers.StartInterviewResponse": {
            "type": "object",
            "properties": {
                "first_question": {"$ref": "#/definitions/interview.Question"},
                "phase": {"type": "string", "example": "greeting"},
                "session_id": {"type": "string"}
            }
        },
        "handlers.InterviewStateResponse": {
            "type": "object",
            "properties": {"interview": {"type": "object"}}
        },
        "handlers.AnswerResponse": {
            "type": "object",
            "properties": {
                "analysis": {"type": "string"},
                "score": {"type": "integer"},
                "next_question": {"$ref": "#/definitions/interview.Question"},
                "phase": {"type": "string"},
                "phase_changed": {"type": "boolean"},
                "completed": {"type": "boolean"},
                "report": {"$ref": "#/definitions/interview.Report"}
            }
        },
        "handlers.CodeResponse": {
            "type": "object",
            "properties": {"result": {"type": "object"}}
        },
        "handlers.ReportResponse": {
            "type": "object",
            "properties": {"report": {"$ref": "#/definitions/interview.Report"}}
        },
        "interview.StartRequest": {
            "type": "object",
            "required": ["interview_type"],
            "properties": {
                "candidate_name": {"type": "string", "example": "Ada"},
                "custom_role": {"type": "string", "example": "site reliability engineer"},
                "difficulty": {"type": "string", "enum": ["easy", "medium", "hard"], "example": "medium"},
                "interview_type": {"type": "string", "enum": ["dsa", "frontend", "backend", "core", "behavioral", "resume", "custom"], "example": "dsa"},
                "tags": {"type": "array", "items": {"type": "string"}},
                "resume_data": {"$ref": "#/definitions/interview.ResumeData"}
            }
        },
        "interview.ResumeData": {
            "type": "object",
            "properties": {
                "name": {"type": "string", "example": "Ada Lovelace"},
                "skills": {"type": "array", "items": {"type": "string"}},
                "projects": {"type": "array", "items": {"type": "string"}},
                "summary": {"type": "string"}
            }
        },
        "interview.CodeRequest": {
            "type": "object",
            "required": ["language", "source_code"],
            "properties": {
                "language": {"type": "string", "example": "python"},
                "source_code": {"type": "string"},
                "test_cases": {"type": "array", "items": {"$ref": "#/definitions/interview.TestCase"}}
            }
        },
        "interview.TestCase": {
            "type": "object",
            "properties": {
                "input": {"type": "string"},
                "output": {"type": "string"},
                "hidden": {"type": "boolean"}
            }
        },
        "interview.Question": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "type": {"type": "string"},
                "question": {"type": "string"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "difficulty": {"type": "string"}
            }
        },
        "interview.Report": {
            "type": "object",
            "properties": {
                "interview_id": {"type": "string"},
                "user_id": {"type": "string"},
                "interview_type": {"type": "string"},
                "questions_answered": {"type": "integer"},
                "code_submissions": {"type": "integer"},
                "duration_minutes": {"type": "integer"},
                "average_score": {"type": "number"},
                "feedback": {"type": "string"},
                "completed_at": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Intervox API",
	Description:      "Voice mock interview service: interview lifecycle, code execution and the live interview websocket.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
