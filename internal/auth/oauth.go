// AngelaMos | 2026
// oauth.go

package auth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/storyhaven/storyhaven-api/internal/config"
	"github.com/storyhaven/storyhaven-api/internal/core"
)

const googleIssuer = "https://accounts.google.com"

// GoogleVerifier turns a Google authorization code or raw ID token into
// a verified OAuthProfile. It trusts nothing in the request body beyond
// what the provider's signature covers.
type GoogleVerifier struct {
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
	oauth    *oauth2.Config
}

func NewGoogleVerifier(
	ctx context.Context,
	cfg config.OAuthConfig,
) (*GoogleVerifier, error) {
	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, fmt.Errorf("discover google oidc: %w", err)
	}

	return &GoogleVerifier{
		provider: provider,
		verifier: provider.Verifier(&oidc.Config{
			ClientID: cfg.GoogleClientID,
		}),
		oauth: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Endpoint:     google.Endpoint,
			Scopes: []string{
				oidc.ScopeOpenID,
				"email",
				"profile",
			},
		},
	}, nil
}

// ExchangeCode trades an authorization code for tokens and verifies the
// ID token that comes back.
func (v *GoogleVerifier) ExchangeCode(
	ctx context.Context,
	code string,
) (*OAuthProfile, error) {
	token, err := v.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", core.ErrTokenInvalid)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, fmt.Errorf(
			"exchange code: no id_token in response: %w",
			core.ErrTokenInvalid,
		)
	}

	return v.VerifyIDToken(ctx, rawIDToken)
}

// VerifyIDToken checks the signature, issuer, audience and expiry of a
// Google ID token and extracts the identity claims.
func (v *GoogleVerifier) VerifyIDToken(
	ctx context.Context,
	rawIDToken string,
) (*OAuthProfile, error) {
	idToken, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("verify id token: %w", core.ErrTokenInvalid)
	}

	var claims struct {
		Sub     string `json:"sub"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("extract claims: %w", core.ErrTokenInvalid)
	}

	return &OAuthProfile{
		Email:       claims.Email,
		Name:        claims.Name,
		Avatar:      claims.Picture,
		AccountType: AccountTypeGoogle,
		GoogleID:    claims.Sub,
	}, nil
}
