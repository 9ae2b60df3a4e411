package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"linkgate/internal/apperrors"
	"linkgate/internal/i18n"
	"linkgate/response"
)

// GlobalErrorMiddleware 全局错误中间件，错误消息按请求语言本地化
func GlobalErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			for _, err := range c.Errors {
				var appErr *apperrors.AppError
				if errors.As(err.Err, &appErr) {
					message := i18n.T(c.Request.Context(), appErr.Message, nil)
					c.AbortWithStatusJSON(appErr.Code, response.Error(message))
					return
				}
			}

			// 默认处理未定义的错误
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error("System error"))
			return
		}
	}
}
