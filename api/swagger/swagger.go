package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Carritos API",
        "description": "Loan management for school laptop carts",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Auth", "description": "Administrator sessions"},
        {"name": "Admins", "description": "Administrator registry"},
        {"name": "Carts", "description": "Laptop carts"},
        {"name": "Computers", "description": "Computer inventory"},
        {"name": "Students", "description": "Student borrowers"},
        {"name": "Teachers", "description": "Teacher borrowers and supervisors"},
        {"name": "Loans", "description": "Loan engine and history"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Log in",
                "security": [],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid credentials"}}
            }
        },
        "/auth/verify": {
            "get": {"tags": ["Auth"], "summary": "Verify the current token", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}
        },
        "/auth/logout": {
            "post": {"tags": ["Auth"], "summary": "Log out and revoke the token", "responses": {"200": {"description": "OK"}}}
        },
        "/admins": {
            "get": {"tags": ["Admins"], "summary": "List administrators", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Admins"], "summary": "Create administrator", "responses": {"201": {"description": "Created"}, "409": {"description": "Duplicate username"}}}
        },
        "/admins/{id}": {
            "delete": {"tags": ["Admins"], "summary": "Deactivate administrator", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "403": {"description": "Cannot deactivate yourself"}}}
        },
        "/admins/{id}/reset-password": {
            "post": {"tags": ["Admins"], "summary": "Reset administrator password", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}}
        },
        "/carros": {
            "get": {"tags": ["Carts"], "summary": "List carts with computer counts", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "post": {"tags": ["Carts"], "summary": "Create cart", "responses": {"201": {"description": "Created"}, "409": {"description": "Duplicate name"}}}
        },
        "/carros/{id}": {
            "get": {"tags": ["Carts"], "summary": "Get cart", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}},
            "put": {"tags": ["Carts"], "summary": "Update cart", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Carts"], "summary": "Delete cart", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "409": {"description": "Cart has computers"}}}
        },
        "/computadoras": {
            "get": {"tags": ["Computers"], "summary": "List computers", "parameters": [{"name": "id_carro", "in": "query", "type": "string"}, {"name": "estado", "in": "query", "type": "string"}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Computers"], "summary": "Create computer", "responses": {"201": {"description": "Created"}}}
        },
        "/computadoras/disponibles": {
            "get": {"tags": ["Computers"], "summary": "List available computers", "responses": {"200": {"description": "OK"}}}
        },
        "/computadoras/{id}": {
            "get": {"tags": ["Computers"], "summary": "Get computer", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["Computers"], "summary": "Update computer", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "409": {"description": "Computer on loan"}}},
            "delete": {"tags": ["Computers"], "summary": "Delete computer", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "409": {"description": "Computer has loans"}}}
        },
        "/alumnos": {
            "get": {"tags": ["Students"], "summary": "List students", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Students"], "summary": "Create student", "responses": {"201": {"description": "Created"}}}
        },
        "/alumnos/carga-masiva": {
            "post": {"tags": ["Students"], "summary": "Bulk import students from CSV or XLSX", "consumes": ["multipart/form-data"], "parameters": [{"name": "file", "in": "formData", "required": true, "type": "file"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ImportResult"}}}}
        },
        "/alumnos/dni/{dni}": {
            "get": {"tags": ["Students"], "summary": "Find student by DNI", "parameters": [{"name": "dni", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}}
        },
        "/alumnos/{id}": {
            "get": {"tags": ["Students"], "summary": "Get student", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["Students"], "summary": "Update student", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Students"], "summary": "Delete student", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "409": {"description": "Student has an active loan"}}}
        },
        "/docentes": {
            "get": {"tags": ["Teachers"], "summary": "List teachers", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Teachers"], "summary": "Create teacher", "responses": {"201": {"description": "Created"}}}
        },
        "/docentes/carga-masiva": {
            "post": {"tags": ["Teachers"], "summary": "Bulk import teachers from CSV or XLSX", "consumes": ["multipart/form-data"], "parameters": [{"name": "file", "in": "formData", "required": true, "type": "file"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ImportResult"}}}}
        },
        "/docentes/dni/{dni}": {
            "get": {"tags": ["Teachers"], "summary": "Find teacher by DNI", "parameters": [{"name": "dni", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}}
        },
        "/docentes/{id}": {
            "get": {"tags": ["Teachers"], "summary": "Get teacher", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["Teachers"], "summary": "Update teacher", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Teachers"], "summary": "Delete teacher", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "409": {"description": "Teacher has active loans"}}}
        },
        "/prestamos": {
            "get": {"tags": ["Loans"], "summary": "List loans", "parameters": [{"name": "page", "in": "query", "type": "integer"}, {"name": "limit", "in": "query", "type": "integer"}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Loans"], "summary": "Open a loan", "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateLoanRequest"}}], "responses": {"201": {"description": "Created"}, "409": {"description": "Computer unavailable"}}}
        },
        "/prestamos/activos": {
            "get": {"tags": ["Loans"], "summary": "List active loans", "responses": {"200": {"description": "OK"}}}
        },
        "/prestamos/usuario/{dni}": {
            "get": {"tags": ["Loans"], "summary": "Active loans of a borrower", "parameters": [{"name": "dni", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "404": {"description": "No active loans"}}}
        },
        "/prestamos/historial": {
            "get": {"tags": ["Loans"], "summary": "Loan history, optionally exported", "produces": ["application/json", "text/csv", "application/pdf"], "parameters": [{"name": "dni", "in": "query", "type": "string"}, {"name": "formato", "in": "query", "type": "string", "enum": ["csv", "pdf"]}], "responses": {"200": {"description": "OK"}}}
        },
        "/prestamos/historial/{dni}": {
            "get": {"tags": ["Loans"], "summary": "Loan history of a borrower", "parameters": [{"name": "dni", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}}
        },
        "/prestamos/{id}/devolver": {
            "post": {"tags": ["Loans"], "summary": "Return a loan", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "409": {"description": "Loan already closed"}}}
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "usuario": {"type": "string"},
                "contraseña": {"type": "string"}
            }
        },
        "CreateLoanRequest": {
            "type": "object",
            "properties": {
                "tipo": {"type": "string", "enum": ["alumno", "docente"]},
                "id_usuario": {"type": "string"},
                "id_computadora": {"type": "string"},
                "id_docente": {"type": "string"},
                "observaciones": {"type": "string"}
            }
        },
        "ImportResult": {
            "type": "object",
            "properties": {
                "total": {"type": "integer"},
                "insertados": {"type": "integer"},
                "omitidos": {"type": "integer"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
                "pagination": {"$ref": "#/definitions/Pagination"},
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
