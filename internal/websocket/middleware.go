package websocket

import (
	"net/url"

	"github.com/cleberrangel/caregiver-fit-api/internal/middleware"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware valida o token da API no upgrade do websocket.
// Além do header, aceita ?token= (navegadores não enviam headers no handshake).
func AuthMiddleware(tokenAPI string) gin.HandlerFunc {
	return middleware.BearerAuth(middleware.AuthConfig{
		TokenAPI:   tokenAPI,
		AllowQuery: true,
	})
}

// BuildWebSocketURL monta o caminho de inscrição de uma avaliação
func BuildWebSocketURL(basePath, assessmentID string) string {
	u, err := url.Parse(basePath)
	if err != nil {
		return basePath
	}

	q := u.Query()
	q.Set("assessment_id", assessmentID)
	u.RawQuery = q.Encode()

	return u.String()
}
