package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/userembed/internal/common"
	"github.com/gofiber/fiber/v2"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

// apiError is an edge-level failure with a fixed status and code.
type apiError struct {
	status  int
	code    string
	message string
}

func (e *apiError) Error() string { return e.message }

type errorMapping struct {
	target error
	status int
	code   string
}

// Order matters only where sentinels could overlap; they do not today.
var errorTable = []errorMapping{
	{common.ErrUserNotFound, fiber.StatusNotFound, "USER_NOT_FOUND"},
	{common.ErrFeatureNotFound, fiber.StatusNotFound, "FEATURE_NOT_FOUND"},
	{common.ErrFeatureAlreadyExists, fiber.StatusConflict, "FEATURE_ALREADY_EXISTS"},
	{common.ErrFeatureShapeMismatch, fiber.StatusConflict, "FEATURE_SHAPE_MISMATCH"},
	{common.ErrUnsupportedProtocol, fiber.StatusBadRequest, "UNSUPPORTED_PROTOCOL"},
	{common.ErrUnsupportedDType, fiber.StatusBadRequest, "UNSUPPORTED_DTYPE"},
	{common.ErrInvalidVectorLength, fiber.StatusUnprocessableEntity, "INVALID_VECTOR_LENGTH"},
	{common.ErrEmbeddingProvider, fiber.StatusBadGateway, "EMBEDDING_SERVER_ERROR"},
	{common.ErrPasswordMismatch, fiber.StatusBadRequest, "PASSWORD_MISMATCH"},
	{common.ErrDuplicateUserIdentity, fiber.StatusConflict, "DUPLICATE_USER"},
	{common.ErrTokenExpired, fiber.StatusUnauthorized, "TOKEN_EXPIRED"},
	{common.ErrRefreshTokenExpired, fiber.StatusUnauthorized, "REFRESH_TOKEN_EXPIRED"},
	{common.ErrInvalidToken, fiber.StatusUnauthorized, "INVALID_TOKEN"},
	{common.ErrorUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
	{common.ErrorForbidden, fiber.StatusForbidden, "FORBIDDEN"},
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	status, body := s.classify(c, err)
	return c.Status(status).JSON(body)
}

func (s *Server) classify(c *fiber.Ctx, err error) (int, ErrorResponse) {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae.status, ErrorResponse{ErrorCode: ae.code, Message: ae.message}
	}

	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			return m.status, ErrorResponse{ErrorCode: m.code, Message: err.Error()}
		}
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := strings.ToUpper(strings.ReplaceAll(http.StatusText(fe.Code), " ", "_"))
		return fe.Code, ErrorResponse{ErrorCode: code, Message: fe.Message}
	}

	s.logger.Error(c.UserContext(), "unhandled error",
		"method", c.Method(), "path", c.Path(),
		"request_id", c.Locals(requestIDKey), "error", err)
	return fiber.StatusInternalServerError, ErrorResponse{ErrorCode: "INTERNAL_ERROR", Message: "internal error"}
}
