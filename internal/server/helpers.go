package server

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"unicode"

	"storyloom/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten tells a handler that a helper already sent the reply.
// Handlers return nil on it so the app error handler leaves the body alone.
var errResponseWritten = errors.New("response already written")

// parseID reads route parameter param as a positive id. On failure it answers
// 400 "Invalid <label>" and returns errResponseWritten.
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	raw, err := strconv.ParseUint(c.Params(param), 10, 32)
	if err != nil || raw == 0 {
		_ = respondError(c, models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(raw), nil
}

// parseBody decodes the JSON body into dest, answering 400 on failure.
func (s *Server) parseBody(c *fiber.Ctx, dest interface{}) error {
	if err := c.BodyParser(dest); err != nil {
		_ = respondError(c, models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// humanizeParam turns a route parameter into the label used in validation
// messages: "id" is "ID", "projectId" is "project ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	stem, ok := strings.CutSuffix(param, "Id")
	if !ok {
		return param
	}
	var b strings.Builder
	for i, r := range stem {
		if unicode.IsUpper(r) && i > 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String() + " ID"
}

// currentUserID returns the caller set by the auth middleware.
func currentUserID(c *fiber.Ctx) uint {
	userID, _ := c.Locals("userID").(uint)
	return userID
}

// respondError answers with the status mapped from err's code.
func respondError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, models.StatusForError(err), err)
}

// optionalID distinguishes an absent JSON field from an explicit null.
type optionalID struct {
	Set   bool
	Value *uint
}

func (o *optionalID) UnmarshalJSON(raw []byte) error {
	o.Set = true
	if string(raw) == "null" {
		o.Value = nil
		return nil
	}
	var v uint
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}
