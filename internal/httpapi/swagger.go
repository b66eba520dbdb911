//go:build swagger

package httpapi

import (
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"
)

// SwaggerInfo mirrors the annotations in cmd/textpredict/docs.go so the UI
// works without a generated docs package.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "textpredict API",
	Description:      "HTTP surface of an on-device text prediction session.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

// MountSwagger serves the UI under /swagger/ and the document at /swagger/doc.json.
func MountSwagger(r chi.Router) {
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}

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
    "paths": {
        "/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Session status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}
                }
            }
        },
        "/input": {
            "get": {
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Current input text",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.InputResponse"}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Replace the input text",
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.InputRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.InputResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "415": {"description": "Unsupported Media Type", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/predict": {
            "post": {
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Run a prediction on the held input",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ResultResponse"}},
                    "504": {"description": "Gateway Timeout", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/result": {
            "get": {
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Last prediction result",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ResultResponse"}}
                }
            }
        }
    },
    "definitions": {
        "types.StatusResponse": {
            "type": "object",
            "properties": {
                "runtime_ready": {"type": "boolean"},
                "backend": {"type": "string"},
                "model_ready": {"type": "boolean"},
                "prediction_ready": {"type": "boolean"},
                "can_predict": {"type": "boolean"},
                "lines": {"type": "array", "items": {"type": "string"}}
            }
        },
        "types.InputRequest": {
            "type": "object",
            "required": ["text"],
            "properties": {"text": {"type": "string"}}
        },
        "types.InputResponse": {
            "type": "object",
            "properties": {"text": {"type": "string"}, "set": {"type": "boolean"}}
        },
        "types.ResultResponse": {
            "type": "object",
            "properties": {
                "result_ready": {"type": "boolean"},
                "result": {"type": "string"},
                "shape": {"type": "array", "items": {"type": "integer"}}
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}, "code": {"type": "integer"}}
        }
    }
}`
