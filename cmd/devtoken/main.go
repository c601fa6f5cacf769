// Command devtoken mints an access token for local development, signed with
// the same JWT_SECRET_KEY and JWT_ISSUER the API verifies with.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/learnpulse/learnpulse-backend/internal/app"
	"github.com/learnpulse/learnpulse-backend/internal/platform/logger"
	"github.com/learnpulse/learnpulse-backend/internal/services"
)

func main() {
	var userFlag string
	flag.StringVar(&userFlag, "user", "", "user id to issue the token for (random when empty)")
	flag.Parse()

	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	userID := uuid.New()
	if userFlag != "" {
		userID, err = uuid.Parse(userFlag)
		if err != nil || userID == uuid.Nil {
			fmt.Fprintf(os.Stderr, "invalid -user %q\n", userFlag)
			os.Exit(2)
		}
	}

	auth := services.NewAuthService(logger.Nop(), cfg.JWTSecretKey, cfg.JWTIssuer, cfg.AccessTokenTTL)
	token, err := auth.IssueAccessToken(userID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "issue token: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "user %s, expires in %s\n", userID, auth.GetAccessTTL())
	fmt.Println(token)
}
