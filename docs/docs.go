// Package docs registers the Swagger document served under /swagger.
// Regenerate with `swag init -g internal/interfaces/http/handler.go`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support"
        },
        "license": {
            "name": "Apache 2.0",
            "url": "http://www.apache.org/licenses/LICENSE-2.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/alice/trade-book": {
            "get": {
                "description": "Calls the Alice Blue trade book API with the stored token, stores new trades and returns the normalized list",
                "produces": ["application/json"],
                "tags": ["alice"],
                "summary": "Fetch trade book",
                "parameters": [
                    {"type": "string", "description": "Account id (defaults to Master)", "name": "accountId", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.tradeBookResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/http.errorResponse"}},
                "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/http.upstreamErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        },
        "/alice/tokens/{accountId}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["alice"],
                "summary": "Token status",
                "parameters": [
                    {"type": "string", "description": "Account id", "name": "accountId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.tokenStatusResponse"}}
                }
            },
            "put": {
                "description": "Stores the OAuth token for an account, replacing any previous one",
                "consumes": ["application/json"],
                "tags": ["alice"],
                "summary": "Save token",
                "parameters": [
                    {"type": "string", "description": "Account id", "name": "accountId", "in": "path", "required": true},
                    {"description": "Token data", "name": "token", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.tokenPayload"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        },
        "/trades": {
            "get": {
                "description": "Returns stored trades, most recent first, optionally filtered by account",
                "produces": ["application/json"],
                "tags": ["trades"],
                "summary": "List stored trades",
                "parameters": [
                    {"type": "string", "description": "Account id", "name": "accountId", "in": "query"},
                    {"type": "integer", "description": "Maximum number of trades (default 200)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.tradesResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "http.errorResponse": {
            "type": "object",
            "properties": {
                "ok": {"type": "boolean"},
                "message": {"type": "string"}
            }
        },
        "http.upstreamErrorResponse": {
            "type": "object",
            "properties": {
                "ok": {"type": "boolean"},
                "message": {"type": "string"},
                "details": {"type": "string"}
            }
        },
        "http.tokenPayload": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "refreshToken": {"type": "string"},
                "expiresAt": {"type": "integer"}
            }
        },
        "http.tokenStatusResponse": {
            "type": "object",
            "properties": {
                "ok": {"type": "boolean"},
                "accountId": {"type": "string"},
                "hasToken": {"type": "boolean"},
                "expiresAt": {"type": "integer"},
                "updatedAt": {"type": "integer"},
                "expired": {"type": "boolean"}
            }
        },
        "http.tradeBookResponse": {
            "type": "object",
            "properties": {
                "ok": {"type": "boolean"},
                "trades": {"type": "array", "items": {"$ref": "#/definitions/trades.Trade"}},
                "count": {"type": "integer"},
                "source": {"type": "string"},
                "accountId": {"type": "string"}
            }
        },
        "http.tradesResponse": {
            "type": "object",
            "properties": {
                "ok": {"type": "boolean"},
                "trades": {"type": "array", "items": {"$ref": "#/definitions/trades.Trade"}},
                "count": {"type": "integer"},
                "accountId": {"type": "string"}
            }
        },
        "trades.Trade": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "providerId": {"type": "string"},
                "accountId": {"type": "string"},
                "timestamp": {"type": "string"},
                "symbol": {"type": "string"},
                "type": {"type": "string"},
                "side": {"type": "string"},
                "quantity": {"type": "integer"},
                "tradedQty": {"type": "integer"},
                "price": {"type": "number"},
                "status": {"type": "string"},
                "raw": {"type": "object"},
                "createdAt": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Trade Book API",
	Description:      "Fetches, normalizes and stores the Alice Blue trade book per account",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
