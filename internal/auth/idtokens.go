package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/idtoken"
)

type ExternalTokenClaims struct {
	Issuer  string
	Subject string
	Email   string
}

// VerifyFirebaseIDToken validates a Firebase Authentication ID token for
// the given project. Firebase tokens are Google-signed JWTs with the
// project ID as audience and a securetoken issuer.
func VerifyFirebaseIDToken(ctx context.Context, tokenString, projectID string) (*ExternalTokenClaims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, errors.New("missing id token")
	}
	if strings.TrimSpace(projectID) == "" {
		return nil, errors.New("missing firebase project id")
	}

	payload, err := idtoken.Validate(ctx, tokenString, projectID)
	if err != nil {
		return nil, err
	}
	if payload.Issuer != "https://securetoken.google.com/"+projectID {
		return nil, fmt.Errorf("unexpected issuer: %s", payload.Issuer)
	}
	if strings.TrimSpace(payload.Subject) == "" {
		return nil, errors.New("id token missing subject")
	}

	email := ""
	if raw, ok := payload.Claims["email"]; ok {
		if v, ok := raw.(string); ok {
			email = v
		}
	}

	return &ExternalTokenClaims{
		Issuer:  payload.Issuer,
		Subject: payload.Subject,
		Email:   strings.TrimSpace(strings.ToLower(email)),
	}, nil
}
