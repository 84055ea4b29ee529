package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/openwitness/witness-backend/internal/interface/http/response"
	"github.com/openwitness/witness-backend/internal/logger"
	"github.com/openwitness/witness-backend/internal/pkg/apperror"
)

// ErrorHandler отвечает конвертом на ошибки, записанные через c.Error без ответа,
// и на panic в обработчиках.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Component("http").WithField("panic", r).Error("Panic in handler")
				if !c.Writer.Written() {
					response.Error(c, apperror.Newf(apperror.ErrCodeInternal, "panic: %v", r))
				}
				c.Abort()
			}
		}()

		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}
		response.Error(c, c.Errors.Last().Err)
	}
}
