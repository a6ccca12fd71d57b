package middleware

import (
	"FaceSignal/internal/entity"
	jwtPkg "FaceSignal/pkg/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"strings"
)

const (
	AccessTokenSecret = "JWT_ACCESS_TOKEN_SECRET"
)

type tokenMiddleware struct {
}

func newTokenMiddleware() *tokenMiddleware {
	return &tokenMiddleware{}
}

func (m *middleware) NewTokenMiddleware(ctx *fiber.Ctx) error {
	authHeader := ctx.Get("Authorization")

	if authHeader == "" {
		m.log.WithFields(logrus.Fields{
			"path":      ctx.Path(),
			"client_ip": ctx.IP(),
			"error":     "Authorization header is missing",
		}).Warn("Authorization header check")
		return m.unauthorized(ctx)
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		m.log.WithFields(logrus.Fields{
			"error": "Authorization header format is invalid",
		}).Warn("Authorization header check")
		return m.unauthorized(ctx)
	}

	operatorToken, err := jwtPkg.VerifyTokenHeader(ctx, AccessTokenSecret)
	if err != nil {
		m.log.WithFields(logrus.Fields{
			"error": err.Error(),
		}).Warn("Token verification failed")
		return m.unauthorized(ctx)
	}

	claims, ok := operatorToken.Claims.(jwt.MapClaims)
	if !ok {
		m.log.WithFields(logrus.Fields{
			"error": "Invalid token claims",
		}).Warn("Token claims check")
		return m.unauthorized(ctx)
	}

	id, idOk := claims["id"].(string)
	username, usernameOk := claims["username"].(string)
	if !idOk || !usernameOk || id == "" || username == "" {
		m.log.WithFields(logrus.Fields{
			"error": "Token claims are missing required fields",
		}).Warn("Token claims check")
		return m.unauthorized(ctx)
	}

	ctx.Locals(jwtPkg.OperatorLocalsKey, entity.OperatorLoginData{
		ID:       id,
		Username: username,
	})

	m.log.WithField("operator", username).Debug("Authentication successful")
	return ctx.Next()
}

func (m *middleware) unauthorized(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "Unauthorized, access token invalid or expired",
	})
}
