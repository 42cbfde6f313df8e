package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"inkwell/internal/blocks"
)

// validate is the shared validator instance. Struct tags on the request
// payloads below describe the plain field rules; cross-field and storage
// checks stay in the handlers.
var validate = validator.New()

// decodeJSON parses the request body into dst and runs struct validation.
// Returns a human-readable message for the first failure, or "" on success.
func decodeJSON(r *http.Request, dst any) string {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return "Invalid JSON body"
	}
	if err := validate.Struct(dst); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) && len(errs) > 0 {
			return fieldMessage(errs[0])
		}
		return "Invalid request"
	}
	return ""
}

// fieldMessage turns the first validator failure into the API's message style.
func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return field + " must be at most " + fe.Param() + " characters"
	case "email":
		return field + " must be a valid email address"
	case "hexcolor":
		return field + " must be a hex color like #3B82F6"
	case "oneof":
		return field + " must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return field + " is invalid"
	}
}

// categoryPayload is the request body for category create/update.
// The same shape serves tags.
type categoryPayload struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
	Color       string `json:"color" validate:"omitempty,hexcolor"`
}

type postPayload struct {
	Title         string         `json:"title" validate:"required,max=200"`
	Excerpt       string         `json:"excerpt"`
	ContentBlocks []blocks.Block `json:"contentBlocks" validate:"required"`
	Status        string         `json:"status" validate:"omitempty,oneof=draft published archived"`
	Image         *string        `json:"image"`
	Featured      *bool          `json:"featured"`
	CategoryID    uuid.UUID      `json:"categoryId" validate:"required"`
	TagIDs        []uuid.UUID    `json:"tagIds"`
}

type statusPayload struct {
	Status string `json:"status" validate:"required,oneof=draft published archived"`
}

type featuredPayload struct {
	Featured *bool `json:"featured" validate:"required"`
}

type emailPayload struct {
	Email string `json:"email" validate:"required,email"`
}

type loginPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
