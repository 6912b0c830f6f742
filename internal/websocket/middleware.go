package websocket

import (
	"net/http"
	"net/url"
	"time"

	"github.com/cleberrangel/schedule-progress-api/internal/model"
	"github.com/gin-gonic/gin"
)

const dateContextKey = "ws_date"

// DateParam validates ?date=YYYY-MM-DD before the upgrade
func DateParam() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Query("date")
		if _, err := time.Parse(model.DateLayout, raw); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, model.ErrorResponse{
				Success: false,
				Error:   "parâmetro date inválido",
				Details: "esperado YYYY-MM-DD",
			})
			return
		}
		c.Set(dateContextKey, raw)
		c.Next()
	}
}

// BuildWebSocketURL builds the URL a client uses to watch a day
func BuildWebSocketURL(baseURL, date, token string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return baseURL
	}

	q := u.Query()
	q.Set("date", date)
	if token != "" {
		q.Set("token", token)
	}
	u.RawQuery = q.Encode()

	return u.String()
}
