// Package docs は /swagger で配信する OpenAPI 定義。
// ハンドラの godoc 注釈と揃えて更新すること。
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
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/auth/login": {
            "post": {"tags": ["auth"], "summary": "ログインしてJWTを取得",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}],
                "responses": {"200": {"description": "token"}, "401": {"description": "auth failed"}}}
        },
        "/auth/register": {
            "post": {"tags": ["auth"], "summary": "アカウント登録（HRのみ）", "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "created"}, "409": {"description": "already exists"}}}
        },
        "/attendance/check-in": {
            "post": {"tags": ["attendance"], "summary": "出勤", "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "session", "schema": {"$ref": "#/definitions/SessionResponse"}}, "409": {"description": "already checked in"}}}
        },
        "/attendance/check-out": {
            "post": {"tags": ["attendance"], "summary": "退勤", "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "session", "schema": {"$ref": "#/definitions/SessionResponse"}}, "404": {"description": "no open session"}}}
        },
        "/attendance/sessions": {
            "get": {"tags": ["attendance"], "summary": "自分の勤怠一覧", "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "query", "name": "from", "type": "string"},
                    {"in": "query", "name": "to", "type": "string"},
                    {"in": "query", "name": "limit", "type": "integer"},
                    {"in": "query", "name": "offset", "type": "integer"},
                    {"in": "query", "name": "sort", "type": "string"}
                ],
                "responses": {"200": {"description": "items, total, next_offset"}}}
        },
        "/attendance/sessions/{session_id}": {
            "get": {"tags": ["attendance"], "summary": "勤怠1件", "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "session_id", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "session", "schema": {"$ref": "#/definitions/SessionResponse"}}}}
        },
        "/attendance/sessions/{session_id}/agenda": {
            "put": {"tags": ["attendance"], "summary": "その日の予定（アジェンダ）を更新", "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "session_id", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "session", "schema": {"$ref": "#/definitions/SessionResponse"}}}}
        },
        "/corrections": {
            "get": {"tags": ["corrections"], "summary": "自分の修正申請一覧", "security": [{"BearerAuth": []}],
                "parameters": [{"in": "query", "name": "status", "type": "string"}],
                "responses": {"200": {"description": "items, total, next_offset"}}},
            "post": {"tags": ["corrections"], "summary": "修正申請", "security": [{"BearerAuth": []}],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/CheckRequest"}}],
                "responses": {
                    "201": {"description": "request", "schema": {"$ref": "#/definitions/RequestResponse"}},
                    "409": {"description": "already pending"},
                    "422": {"description": "validation failed, outcome attached"},
                    "503": {"description": "review queue unavailable"}
                }}
        },
        "/corrections/check": {
            "post": {"tags": ["corrections"], "summary": "修正申請の事前検証（提出しない）", "security": [{"BearerAuth": []}],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/CheckRequest"}}],
                "responses": {"200": {"description": "outcome", "schema": {"$ref": "#/definitions/OutcomeResponse"}}}}
        },
        "/corrections/check-field": {
            "post": {"tags": ["corrections"], "summary": "1欄だけ検証（入力中のフィードバック）", "security": [{"BearerAuth": []}],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/CheckFieldRequest"}}],
                "responses": {"200": {"description": "field result"}}}
        },
        "/corrections/pending": {
            "get": {"tags": ["corrections"], "summary": "レビュー待ち一覧（HR）", "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "items, total, next_offset"}}}
        },
        "/corrections/{correction_id}": {
            "get": {"tags": ["corrections"], "summary": "修正申請1件", "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "correction_id", "required": true, "type": "string"}],
                "responses": {"200": {"description": "request", "schema": {"$ref": "#/definitions/RequestResponse"}}}}
        },
        "/corrections/{correction_id}/review": {
            "post": {"tags": ["corrections"], "summary": "承認 / 却下（HR）", "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "correction_id", "required": true, "type": "string"},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewRequest"}}
                ],
                "responses": {"200": {"description": "request", "schema": {"$ref": "#/definitions/RequestResponse"}}, "409": {"description": "already reviewed"}}}
        }
    },
    "definitions": {
        "LoginRequest": {"type": "object", "required": ["id", "password"],
            "properties": {"id": {"type": "string"}, "password": {"type": "string"}}},
        "SessionResponse": {"type": "object",
            "properties": {
                "session_id": {"type": "integer"}, "user_id": {"type": "string"}, "work_date": {"type": "string"},
                "check_in_time": {"type": "string"}, "check_out_time": {"type": "string"},
                "duration_minutes": {"type": "integer"}, "agenda": {"type": "string"}, "open": {"type": "boolean"}
            }},
        "CheckRequest": {"type": "object", "required": ["session_id"],
            "properties": {
                "session_id": {"type": "integer"},
                "check_in": {"type": "string", "example": "9:30 AM"},
                "check_out": {"type": "string", "example": "5:30 PM"},
                "justification": {"type": "string"}
            }},
        "CheckFieldRequest": {"type": "object", "required": ["session_id", "field"],
            "properties": {
                "session_id": {"type": "integer"},
                "field": {"type": "string", "enum": ["check_in", "check_out", "justification"]},
                "value": {"type": "string"}
            }},
        "ValidationError": {"type": "object",
            "properties": {"rule": {"type": "string"}, "message": {"type": "string"}}},
        "OutcomeResponse": {"type": "object",
            "properties": {
                "submittable": {"type": "boolean"},
                "field_errors": {"type": "object", "additionalProperties": {"$ref": "#/definitions/ValidationError"}},
                "general_error": {"$ref": "#/definitions/ValidationError"},
                "conflicting_sessions": {"type": "array", "items": {"$ref": "#/definitions/SessionResponse"}},
                "resolved_check_in": {"type": "string"},
                "resolved_check_out": {"type": "string"}
            }},
        "RequestResponse": {"type": "object",
            "properties": {
                "correction_id": {"type": "string"}, "session_id": {"type": "integer"}, "user_id": {"type": "string"},
                "work_date": {"type": "string"}, "check_in_time": {"type": "string"}, "check_out_time": {"type": "string"},
                "corrects_check_in": {"type": "boolean"}, "corrects_check_out": {"type": "boolean"},
                "justification": {"type": "string"}, "status": {"type": "string", "enum": ["PENDING", "APPROVED", "REJECTED"]},
                "reviewed_by": {"type": "string"}, "review_note": {"type": "string"}, "reviewed_at": {"type": "string"},
                "created_at": {"type": "string"}
            }},
        "ReviewRequest": {"type": "object", "required": ["decision"],
            "properties": {"decision": {"type": "string", "enum": ["approve", "reject"]}, "note": {"type": "string"}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "attendance-backend API",
	Description:      "勤怠と打刻修正申請のAPI",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
