package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SIS API",
        "description": "School information system: enrollment, masterlists, grades",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Login, token refresh, sessions"},
        {"name": "Users", "description": "Account administration"},
        {"name": "Students", "description": "Student profiles and promotion flags"},
        {"name": "Teachers", "description": "Faculty profiles"},
        {"name": "Enrollment", "description": "Enrollment applications and periods"},
        {"name": "Sections", "description": "Grade-level sections"},
        {"name": "Masterlists", "description": "Per-section rosters and assignments"},
        {"name": "Subjects", "description": "Curriculum subjects"},
        {"name": "Grades", "description": "Quarter marks and report cards"},
        {"name": "Schedules", "description": "Class schedule slots"},
        {"name": "Messages", "description": "Direct messaging"},
        {"name": "Notifications", "description": "Announcement broadcasts"},
        {"name": "Materials", "description": "Learning material uploads"},
        {"name": "Dashboard", "description": "Aggregate admin counts"}
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
        }
    },
    "definitions": {
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
