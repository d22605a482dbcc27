// Package docs registers the OpenAPI description served at /swagger/.
// Regenerate the paths from the handler annotations with `swag init -g cmd/server/main.go`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/health": {"get": {"tags": ["System"], "summary": "Liveness probe", "responses": {"200": {"description": "OK"}}}},
        "/auth/register": {"post": {"tags": ["Auth"], "summary": "Register a presenter", "responses": {"201": {"description": "Created"}}}},
        "/auth/login": {"post": {"tags": ["Auth"], "summary": "Log in", "responses": {"200": {"description": "OK"}}}},
        "/auth/profile": {"get": {"tags": ["Auth"], "summary": "Current user", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/auth/change-password": {"post": {"tags": ["Auth"], "summary": "Change password", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/sessions": {
            "get": {"tags": ["Sessions"], "summary": "List sessions", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Sessions"], "summary": "Create a session", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}}
        },
        "/sessions/{id}": {
            "get": {"tags": ["Sessions"], "summary": "Get a session with its questions", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["Sessions"], "summary": "Update a session", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/sessions/{id}/select-question": {"put": {"tags": ["Sessions"], "summary": "Present a question to the audience", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/questions": {"post": {"tags": ["Questions"], "summary": "Create a question", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}}},
        "/questions/session/{sessionId}": {"get": {"tags": ["Questions"], "summary": "List a session's questions", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/questions/{id}": {
            "get": {"tags": ["Questions"], "summary": "Get a question", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["Questions"], "summary": "Update a question", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Questions"], "summary": "Delete a question and its responses", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/questions/{id}/close": {"put": {"tags": ["Questions"], "summary": "Start closing a question", "security": [{"BearerAuth": []}], "responses": {"202": {"description": "Accepted"}}}},
        "/questions/{id}/cancel-close": {"put": {"tags": ["Questions"], "summary": "Cancel a pending close", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/questions/{id}/reopen": {"put": {"tags": ["Questions"], "summary": "Reopen a closed question", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/responses/question/{questionId}": {"get": {"tags": ["Responses"], "summary": "List responses to a question", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/anonymous/session/{code}": {"get": {"tags": ["Anonymous"], "summary": "Public session state", "responses": {"200": {"description": "OK"}}}},
        "/anonymous/join": {"post": {"tags": ["Anonymous"], "summary": "Join a session", "responses": {"201": {"description": "Created"}}}},
        "/anonymous/response": {"post": {"tags": ["Anonymous"], "summary": "Submit a response", "responses": {"201": {"description": "Created"}}}},
        "/anonymous/my-response/{questionId}": {"get": {"tags": ["Anonymous"], "summary": "The caller's own response to a question", "responses": {"200": {"description": "OK"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/v1",
	Schemes:          []string{},
	Title:            "livepoll API",
	Description:      "Real-time audience polling: sessions, questions and anonymous responses.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
