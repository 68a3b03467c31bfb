// Package docs registers the OpenAPI description served at /swagger/*.
// The template is maintained by hand; keep it in step with the handler
// annotations when a route or payload changes.
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
    "paths": {
        "/api/users/register": {
            "post": {
                "tags": ["users"],
                "summary": "Register a new user",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.registerRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.authResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/api/users/login": {
            "post": {
                "tags": ["users"],
                "summary": "Login",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.loginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.authResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/api/users/add-seller": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["users"],
                "summary": "Add a seller",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.addSellerRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.authResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/api/products/register": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["products"],
                "summary": "Register a product on the ledger",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.registerProductRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.registerProductResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/api/products/transfer": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["products"],
                "summary": "Transfer custody of a product",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.transferRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.transferResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/api/products/verify/{productId}": {
            "post": {
                "tags": ["products"],
                "summary": "Verify a product's provenance",
                "parameters": [{"type": "string", "in": "path", "name": "productId", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.verifyResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.verifyResponse"}}
                }
            }
        },
        "/api/products/artifact/{productId}": {
            "get": {
                "produces": ["image/png"],
                "tags": ["products"],
                "summary": "Download the verification QR code",
                "parameters": [{"type": "string", "in": "path", "name": "productId", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/api/products/history/{productId}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["products"],
                "summary": "List the recorded custody events of a product",
                "parameters": [{"type": "string", "in": "path", "name": "productId", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.historyResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handler.errorResponse": {"type": "object", "properties": {"error": {"type": "string"}}},
        "handler.registerRequest": {
            "type": "object",
            "required": ["username", "password", "role"],
            "properties": {
                "username": {"type": "string"}, "password": {"type": "string"},
                "role": {"type": "string", "enum": ["Manufacturer", "Customer"]},
                "userType": {"type": "string", "description": "alias for role"},
                "phone": {"type": "string"}, "address": {"type": "string"},
                "companyName": {"type": "string"}, "licenseNumber": {"type": "string"},
                "manager": {"type": "string"}, "brand": {"type": "string"}, "fullName": {"type": "string"}
            }
        },
        "handler.addSellerRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string"}, "password": {"type": "string"},
                "phone": {"type": "string"}, "address": {"type": "string"},
                "companyName": {"type": "string"}, "manager": {"type": "string"}, "brand": {"type": "string"}
            }
        },
        "handler.loginRequest": {
            "type": "object",
            "required": ["username", "password", "role"],
            "properties": {
                "username": {"type": "string"}, "password": {"type": "string"},
                "role": {"type": "string"}, "userType": {"type": "string", "description": "alias for role"}
            }
        },
        "handler.authResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"}, "token": {"type": "string"},
                "username": {"type": "string"}, "role": {"type": "string"}, "user": {"type": "object"}
            }
        },
        "handler.registerProductRequest": {
            "type": "object",
            "properties": {
                "productId": {"type": "string"}, "name": {"type": "string"}, "batchNumber": {"type": "string"},
                "manufacturingDate": {"type": "string"}, "description": {"type": "string"}, "price": {"type": "string"}
            }
        },
        "handler.registerProductResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}, "productId": {"type": "string"}, "txHash": {"type": "string"}, "artifact": {"type": "string"}}
        },
        "handler.transferRequest": {
            "type": "object",
            "properties": {"productId": {"type": "string"}, "toUsername": {"type": "string"}, "toUserType": {"type": "string"}}
        },
        "handler.transferResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}, "txHash": {"type": "string"}, "from": {"type": "string"}, "to": {"type": "string"}}
        },
        "handler.verifyResponse": {
            "type": "object",
            "properties": {
                "valid": {"type": "boolean"}, "productId": {"type": "string"}, "manufacturer": {"type": "string"},
                "currentOwner": {"type": "string"}, "message": {"type": "string"}
            }
        },
        "handler.historyItem": {
            "type": "object",
            "properties": {
                "kind": {"type": "string"}, "actor": {"type": "string"}, "target": {"type": "string"},
                "txHash": {"type": "string"}, "recordedAt": {"type": "string"}
            }
        },
        "handler.historyResponse": {
            "type": "object",
            "properties": {"productId": {"type": "string"}, "events": {"type": "array", "items": {"$ref": "#/definitions/handler.historyItem"}}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Product Provenance API",
	Description:      "Registers products on a ledger, transfers custody and verifies provenance.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
