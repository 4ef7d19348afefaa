package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/cleberrangel/caregiver-fit-api/internal/logger"
	"github.com/cleberrangel/caregiver-fit-api/internal/model"
	"github.com/gin-gonic/gin"
)

// Códigos devolvidos no campo "code" das respostas 401
const (
	CodeTokenNotFound  = "TOKEN_NOT_FOUND"
	CodeTokenMalformed = "TOKEN_MALFORMED"
	CodeTokenInvalid   = "TOKEN_INVALID"
)

var (
	ErrTokenNotFound  = errors.New("token ausente")
	ErrTokenMalformed = errors.New("formato inválido, esperado: Bearer {token}")
	ErrTokenInvalid   = errors.New("token inválido")
)

// AuthConfig contém a configuração do middleware de autenticação.
// AllowQuery aceita ?token= quando o header não vem; só o upgrade do
// websocket usa, porque navegadores não enviam headers no handshake.
type AuthConfig struct {
	TokenAPI   string
	AllowQuery bool
}

// CheckToken extrai o token da requisição e compara com TOKEN_API
func CheckToken(c *gin.Context, cfg AuthConfig) error {
	token, err := extractToken(c, cfg.AllowQuery)
	if err != nil {
		return err
	}

	if cfg.TokenAPI == "" || subtle.ConstantTimeCompare([]byte(token), []byte(cfg.TokenAPI)) != 1 {
		return ErrTokenInvalid
	}
	return nil
}

func extractToken(c *gin.Context, allowQuery bool) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if allowQuery {
			if token := c.Query("token"); token != "" {
				return token, nil
			}
		}
		return "", ErrTokenNotFound
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", ErrTokenMalformed
	}
	return strings.TrimSpace(token), nil
}

// BearerAuth retorna um middleware que valida o token Bearer
func BearerAuth(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := CheckToken(c, cfg); err != nil {
			logger.FromGin(c).Warn().
				Str("path", c.Request.URL.Path).
				Str("reason", err.Error()).
				Msg("Requisição não autenticada")

			c.AbortWithStatusJSON(http.StatusUnauthorized, model.ErrorResponse{
				Success: false,
				Error:   err.Error(),
				Code:    tokenCode(err),
			})
			return
		}

		c.Next()
	}
}

func tokenCode(err error) string {
	switch {
	case errors.Is(err, ErrTokenNotFound):
		return CodeTokenNotFound
	case errors.Is(err, ErrTokenMalformed):
		return CodeTokenMalformed
	default:
		return CodeTokenInvalid
	}
}
