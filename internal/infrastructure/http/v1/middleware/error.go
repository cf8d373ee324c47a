package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tiendero/internal/core/apperror"
	"tiendero/internal/infrastructure/storage/postgres"
	"tiendero/pkg/logger"
)

// ErrorHandler renders accumulated gin errors as a JSON body with code,
// message and details. Unknown errors are logged in full and returned as a
// generic 500 so internals never leak to the client.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		// A handler that already wrote a body wins.
		if c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err

		if appErr, ok := apperror.AsAppError(err); ok {
			if appErr.Err != nil {
				logger.Error(c.Request.Context(), "request error",
					"code", appErr.Code,
					"cause", appErr.Err,
				)
			}

			body := gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
				"details": appErr.Details,
			}
			failIdempotencyKey(c, appErr.HTTPStatus, body)
			c.JSON(appErr.HTTPStatus, body)
			return
		}

		logger.Error(c.Request.Context(), "unhandled error", "error", err)

		body := gin.H{
			"code":    apperror.CodeInternal,
			"message": "Internal server error",
			"details": map[string]any{
				"request_id": c.GetString("request_id"),
			},
		}
		failIdempotencyKey(c, http.StatusInternalServerError, body)
		c.JSON(http.StatusInternalServerError, body)
	}
}

// failIdempotencyKey records the error response under the request's
// idempotency key, if the request carried one. Best-effort: a retry that
// finds no completed record simply re-executes.
func failIdempotencyKey(c *gin.Context, status int, body any) {
	key, hasKey := c.Get("idempotency_key")
	if !hasKey {
		return
	}
	store, hasStore := c.Get("idempotency_store")
	if !hasStore {
		return
	}
	if s, ok := store.(*postgres.IdempotencyStore); ok && s != nil {
		_ = s.FailKey(c.Request.Context(), key.(string), status, "application/json", body)
	}
}
