package main

import (
	"FaceSignal/internal/entity"
	jwtPkg "FaceSignal/pkg/jwt"
	"FaceSignal/pkg/log"
	"fmt"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"time"
)

// token prints an operator access token for the protected snapshot route.
func main() {
	envFile := pflag.String("env-file", ".env", "path to the .env file")
	id := pflag.String("id", "", "operator id")
	username := pflag.String("username", "", "operator username")
	ttl := pflag.Duration("ttl", 24*time.Hour, "token lifetime")
	pflag.Parse()

	logger := log.NewLogger()
	if err := godotenv.Load(*envFile); err != nil {
		logger.Warnf("Could not load %s: %v", *envFile, err)
	}

	token, expiresAt, err := jwtPkg.SignOperator(entity.OperatorLoginData{ID: *id, Username: *username}, *ttl)
	if err != nil {
		logger.Fatal(err)
	}

	logger.WithField("expires_at", time.Unix(expiresAt, 0).Format(time.RFC3339)).Info("Operator token issued")
	fmt.Println(token)
}
