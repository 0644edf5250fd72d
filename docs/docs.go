// Package docs holds the OpenAPI description served under /swagger.
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
        "/v1/users": {
            "post": {
                "security": [{"ActorID": []}],
                "tags": ["users"],
                "summary": "Register the calling user",
                "parameters": [
                    {"in": "body", "name": "body", "schema": {"$ref": "#/definitions/handler.registerUserRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.userResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/v1/users/{id}": {
            "get": {
                "security": [{"ActorID": []}],
                "tags": ["users"],
                "summary": "Get a user",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.userResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/v1/users/{id}/role": {
            "put": {
                "security": [{"ActorID": []}],
                "tags": ["users"],
                "summary": "Change a user's role",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.setRoleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.userResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/v1/workers": {
            "get": {
                "security": [{"ActorID": []}],
                "tags": ["users"],
                "summary": "List assignable workers",
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/v1/requests": {
            "get": {
                "security": [{"ActorID": []}],
                "tags": ["requests"],
                "summary": "List requests visible to the caller",
                "parameters": [
                    {"type": "string", "name": "role", "in": "query"},
                    {"type": "string", "name": "status", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            },
            "post": {
                "security": [{"ActorID": []}],
                "consumes": ["application/json", "multipart/form-data"],
                "tags": ["requests"],
                "summary": "Submit a service request",
                "parameters": [
                    {"type": "string", "name": "Idempotency-Key", "in": "header"},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.createRequestRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.createRequestResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/v1/requests/mine": {
            "get": {
                "security": [{"ActorID": []}],
                "tags": ["requests"],
                "summary": "List my requests",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/requests/{id}": {
            "get": {
                "security": [{"ActorID": []}],
                "tags": ["requests"],
                "summary": "Get a request",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.requestResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/v1/requests/{id}/history": {
            "get": {
                "security": [{"ActorID": []}],
                "tags": ["requests"],
                "summary": "Get the lifecycle history of a request",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/requests/{id}/assign": {
            "post": {
                "security": [{"ActorID": []}],
                "tags": ["requests"],
                "summary": "Assign a new request to a worker",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.assignRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.requestResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/v1/requests/{id}/actions/{action}": {
            "post": {
                "security": [{"ActorID": []}],
                "consumes": ["application/json", "multipart/form-data"],
                "tags": ["requests"],
                "summary": "Advance a request through its lifecycle",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"type": "string", "name": "action", "in": "path", "required": true, "enum": ["start", "complete", "confirm", "reject"]},
                    {"in": "body", "name": "body", "schema": {"$ref": "#/definitions/handler.advanceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.requestResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/v1/media": {
            "post": {
                "security": [{"ActorID": []}],
                "consumes": ["multipart/form-data"],
                "tags": ["media"],
                "summary": "Upload a photo",
                "parameters": [
                    {"type": "string", "name": "kind", "in": "formData", "required": true, "enum": ["before", "after"]},
                    {"type": "file", "name": "photo", "in": "formData", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.mediaResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/v1/media/{ref}": {
            "get": {
                "security": [{"ActorID": []}],
                "produces": ["application/octet-stream"],
                "tags": ["media"],
                "summary": "Download a photo",
                "parameters": [
                    {"type": "string", "name": "ref", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handler.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "handler.registerUserRequest": {
            "type": "object",
            "properties": {
                "handle": {"type": "string", "maxLength": 64},
                "display_name": {"type": "string", "maxLength": 128}
            }
        },
        "handler.setRoleRequest": {
            "type": "object",
            "required": ["role"],
            "properties": {"role": {"type": "string", "enum": ["client", "manager", "master"]}}
        },
        "handler.createRequestRequest": {
            "type": "object",
            "required": ["problem_text"],
            "properties": {
                "problem_text": {"type": "string", "maxLength": 4000},
                "photo_before": {"type": "string"}
            }
        },
        "handler.assignRequest": {
            "type": "object",
            "required": ["worker_id"],
            "properties": {"worker_id": {"type": "integer"}}
        },
        "handler.advanceRequest": {
            "type": "object",
            "properties": {"photo_after": {"type": "string"}}
        },
        "handler.userResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "handle": {"type": "string"},
                "display_name": {"type": "string"},
                "role": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "handler.requestResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "client_id": {"type": "integer"},
                "problem_text": {"type": "string"},
                "status": {"type": "string", "enum": ["new", "assigned", "in_progress", "done", "confirmed"]},
                "assigned_to": {"type": "integer"},
                "photo_before": {"type": "string"},
                "photo_after": {"type": "string"},
                "created_at": {"type": "string"},
                "finished_at": {"type": "string"}
            }
        },
        "handler.createRequestResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "already_existed": {"type": "boolean"}
            }
        },
        "handler.mediaResponse": {
            "type": "object",
            "properties": {
                "ref": {"type": "string"},
                "kind": {"type": "string"},
                "url": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "ActorID": {
            "type": "apiKey",
            "name": "X-Actor-ID",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Service Requests API",
	Description:      "Lifecycle of maintenance requests raised through the chat front end.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
