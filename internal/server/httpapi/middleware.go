package httpapi

import (
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/userembed/internal/common"
	"github.com/dmitrijs2005/userembed/internal/server/auth"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	userIDKey    = "userID"
	requestIDKey = "requestID"
)

// requestLogger tags each request with an id and logs its outcome.
func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()

	rid := c.Get(common.RequestIDHeaderName)
	if rid == "" {
		rid = uuid.NewString()
	}
	c.Locals(requestIDKey, rid)
	c.Set(common.RequestIDHeaderName, rid)

	err := c.Next()
	if err != nil {
		// run the error handler now so the logged status is final
		if herr := s.errorHandler(c, err); herr != nil {
			return herr
		}
	}

	s.logger.Info(c.UserContext(), "request",
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"latency", time.Since(start),
		"request_id", rid,
	)
	return nil
}

// requireAuth resolves the bearer access token into the caller's user id.
func (s *Server) requireAuth(c *fiber.Ctx) error {
	header := c.Get(common.AuthorizationHeaderName)
	token, ok := strings.CutPrefix(header, common.BearerPrefix)
	if !ok || token == "" {
		return common.ErrorUnauthorized
	}

	userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
	if err != nil {
		return err
	}

	c.Locals(userIDKey, userID)
	return c.Next()
}

// requireAdmin must run after requireAuth.
func (s *Server) requireAdmin(c *fiber.Ctx) error {
	userID, ok := c.Locals(userIDKey).(int64)
	if !ok {
		return common.ErrorUnauthorized
	}

	isAdmin, err := s.users.IsAdmin(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			return common.ErrorUnauthorized
		}
		return err
	}
	if !isAdmin {
		return common.ErrorForbidden
	}
	return c.Next()
}

func currentUserID(c *fiber.Ctx) int64 {
	id, _ := c.Locals(userIDKey).(int64)
	return id
}
