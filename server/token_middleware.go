package server

import (
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/legit-games/apidocs-gateway/errors"
	"github.com/legit-games/apidocs-gateway/models"
)

// RequireOperation gates every inbound request to a non-anonymous
// operation. It extracts the bearer token, validates signature, issuer,
// audience and expiry, then checks that the granted scopes cover the
// operation's annotated requirement. 401 for a missing or invalid token,
// 403 for insufficient scope. The request reaches the handler unchanged.
func (s *Server) RequireOperation(op *models.Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := bearerToken(c)
		if err != nil {
			abortWith(c, err)
			return
		}

		token, err := s.Validator.ValidateToken(c.Request.Context(), raw)
		if err != nil {
			// Validation detail goes to the log, never to the caller.
			log.Printf("[gateway] token rejected for %s %s: %v", op.Method, op.Path, err)
			abortWith(c, errors.ErrInvalidToken)
			return
		}

		req := s.requirements[op.Key()]
		if req != nil && !token.HasScopes(req.Scopes...) {
			c.Header("WWW-Authenticate", `Bearer error="insufficient_scope", scope="`+strings.Join(req.Scopes, " ")+`"`)
			abortWith(c, errors.ErrInsufficientScope)
			return
		}

		c.Set("token_scopes", token.Scopes)
		c.Set("token_issuer", token.Issuer)
		c.Next()
	}
}

// bearerToken extracts the bearer credential from the Authorization
// header.
func bearerToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", errors.ErrMissingToken
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", errors.ErrMissingToken
	}
	return parts[1], nil
}

// abortWith writes the taxonomy response for err and stops the chain.
func abortWith(c *gin.Context, err error) {
	status, body := errors.NewResponse(err)
	c.AbortWithStatusJSON(status, body)
}
