package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "PSUFlow API",
        "description": "Campus appointment booking: slots, decisions, notes, queues and staff reporting.",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/health": {
            "get": {
                "tags": [
                    "System"
                ],
                "summary": "Health check",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/ready": {
            "get": {
                "tags": [
                    "System"
                ],
                "summary": "Readiness (database ping)",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": [
                    "System"
                ],
                "summary": "Prometheus metrics",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": [
                    "Authentication"
                ],
                "summary": "Authenticate user",
                "parameters": [
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/auth/change-password": {
            "post": {
                "tags": [
                    "Authentication"
                ],
                "summary": "Change password",
                "parameters": [
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/announcements/latest": {
            "get": {
                "tags": [
                    "Announcements"
                ],
                "summary": "Latest active announcement",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/appointments/available/{facultyId}/{date}": {
            "get": {
                "tags": [
                    "Appointments"
                ],
                "summary": "Slot availability for a provider on a date",
                "parameters": [
                    {
                        "in": "path",
                        "name": "facultyId",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "in": "path",
                        "name": "date",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/appointments/book": {
            "post": {
                "tags": [
                    "Appointments"
                ],
                "summary": "Book an appointment (JSON or multipart)",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/appointments/{id}/decision": {
            "put": {
                "tags": [
                    "Appointments"
                ],
                "summary": "Approve or reject a waiting appointment",
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/appointments/{id}/decide": {
            "post": {
                "tags": [
                    "Appointments"
                ],
                "summary": "Approve or reject (legacy payload)",
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/appointments/cancel/{id}": {
            "post": {
                "tags": [
                    "Appointments"
                ],
                "summary": "Cancel an appointment",
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/appointments/reschedule/{id}": {
            "post": {
                "tags": [
                    "Appointments"
                ],
                "summary": "Move an appointment to another slot",
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/appointments/{id}/note": {
            "get": {
                "tags": [
                    "Notes"
                ],
                "summary": "Read the notes thread",
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            },
            "put": {
                "tags": [
                    "Notes"
                ],
                "summary": "Overwrite the notes thread",
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/appointments/comment/{id}": {
            "post": {
                "tags": [
                    "Notes"
                ],
                "summary": "Append a comment to the notes thread",
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/appointments/{id}": {
            "get": {
                "tags": [
                    "Appointments"
                ],
                "summary": "Appointment detail",
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/appointments/pending/{facultyId}": {
            "get": {
                "tags": [
                    "Appointments"
                ],
                "summary": "Waiting requests for a provider",
                "parameters": [
                    {
                        "in": "path",
                        "name": "facultyId",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "in": "query",
                        "name": "category",
                        "required": false,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/appointments/my/{studentId}": {
            "get": {
                "tags": [
                    "Appointments"
                ],
                "summary": "A student's appointments",
                "parameters": [
                    {
                        "in": "path",
                        "name": "studentId",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/appointments/upcoming/{facultyId}": {
            "get": {
                "tags": [
                    "Appointments"
                ],
                "summary": "Approved upcoming appointments for a provider",
                "parameters": [
                    {
                        "in": "path",
                        "name": "facultyId",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "in": "query",
                        "name": "category",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "in": "query",
                        "name": "onlyAcademic",
                        "required": false,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/appointments/categories/{facultyId}": {
            "get": {
                "tags": [
                    "Appointments"
                ],
                "summary": "Distinct categories booked with a provider",
                "parameters": [
                    {
                        "in": "path",
                        "name": "facultyId",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/faculty/blocks": {
            "post": {
                "tags": [
                    "Blocks"
                ],
                "summary": "Block a slot",
                "parameters": [
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            },
            "get": {
                "tags": [
                    "Blocks"
                ],
                "summary": "Blocked slots for a provider",
                "parameters": [
                    {
                        "in": "query",
                        "name": "facultyId",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "in": "query",
                        "name": "date",
                        "required": false,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            },
            "delete": {
                "tags": [
                    "Blocks"
                ],
                "summary": "Unblock a slot",
                "parameters": [
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/staff/appointments/upcoming": {
            "get": {
                "tags": [
                    "Staff"
                ],
                "summary": "Upcoming appointments across providers",
                "parameters": [
                    {
                        "in": "query",
                        "name": "from",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "in": "query",
                        "name": "to",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "in": "query",
                        "name": "category",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "in": "query",
                        "name": "status",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "in": "query",
                        "name": "q",
                        "required": false,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/staff/overview": {
            "get": {
                "tags": [
                    "Staff"
                ],
                "summary": "Every appointment from today, sorted",
                "parameters": [
                    {
                        "in": "query",
                        "name": "sortBy",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "in": "query",
                        "name": "order",
                        "required": false,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/staff/overview/export": {
            "get": {
                "tags": [
                    "Staff"
                ],
                "summary": "Export the staff overview as CSV or PDF",
                "parameters": [
                    {
                        "in": "query",
                        "name": "format",
                        "required": false,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/staff/inbox/{staffId}": {
            "get": {
                "tags": [
                    "Staff"
                ],
                "summary": "Most recent requests",
                "parameters": [
                    {
                        "in": "path",
                        "name": "staffId",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/staff/student-history": {
            "get": {
                "tags": [
                    "Staff"
                ],
                "summary": "Search a student's history",
                "parameters": [
                    {
                        "in": "query",
                        "name": "q",
                        "required": false,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/queues/summary": {
            "get": {
                "tags": [
                    "Queue"
                ],
                "summary": "Waiting line summary",
                "parameters": [
                    {
                        "in": "query",
                        "name": "category",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "in": "query",
                        "name": "facultyId",
                        "required": false,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/queue/status/{studentId}": {
            "get": {
                "tags": [
                    "Queue"
                ],
                "summary": "A student's place in line",
                "parameters": [
                    {
                        "in": "path",
                        "name": "studentId",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/notifications/user/{userId}": {
            "get": {
                "tags": [
                    "Notifications"
                ],
                "summary": "Notifications for a user",
                "parameters": [
                    {
                        "in": "path",
                        "name": "userId",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/notifications/{id}/read": {
            "put": {
                "tags": [
                    "Notifications"
                ],
                "summary": "Set the read flag",
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/attachments/{appointmentId}/{field}": {
            "get": {
                "tags": [
                    "Attachments"
                ],
                "summary": "Download a booking attachment",
                "parameters": [
                    {
                        "in": "path",
                        "name": "appointmentId",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "in": "path",
                        "name": "field",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "in": "query",
                        "name": "token",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/exports/{token}": {
            "get": {
                "tags": [
                    "Staff"
                ],
                "summary": "Download a rendered export",
                "parameters": [
                    {
                        "in": "path",
                        "name": "token",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
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
