package services

import (
	"context"

	"google.golang.org/api/idtoken"

	apperrors "budgetwise/internal/errors"
)

// googleVerifier validates Google ID tokens issued for one OAuth client.
type googleVerifier struct {
	clientID string
	validate func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

// NewGoogleVerifier creates an IdentityVerifier for Google sign-in. It
// returns nil when clientID is empty, which disables federated login.
func NewGoogleVerifier(clientID string) IdentityVerifier {
	if clientID == "" {
		return nil
	}
	return &googleVerifier{clientID: clientID, validate: idtoken.Validate}
}

// Verify checks the token signature, audience and expiry, and extracts the
// identity claims.
func (v *googleVerifier) Verify(ctx context.Context, token string) (*FederatedIdentity, error) {
	if token == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "id_token is required")
	}

	payload, err := v.validate(ctx, token, v.clientID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidToken, err)
	}

	return identityFromClaims(payload.Subject, payload.Claims), nil
}

func identityFromClaims(subject string, claims map[string]interface{}) *FederatedIdentity {
	identity := &FederatedIdentity{Subject: subject}
	if email, ok := claims["email"].(string); ok {
		identity.Email = email
	}
	switch verified := claims["email_verified"].(type) {
	case bool:
		identity.EmailVerified = verified
	case string:
		identity.EmailVerified = verified == "true"
	}
	if name, ok := claims["name"].(string); ok {
		identity.Name = name
	}
	return identity
}
