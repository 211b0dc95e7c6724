// Copyright (C) 2025 Attestix Labs (eng@attestix.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package extensions defines interfaces for enterprise functionality.
//
// The open source evaluator runs as a single-user local service; these
// extension points let an enterprise deployment plug in real identity
// providers without modifying the core codebase. The defaults are
// no-ops that allow everything.
//
// # Thread Safety
//
// All interface implementations must be safe for concurrent use.
package extensions

import (
	"context"
	"errors"
)

// ErrUnauthorized is returned when authentication fails. Enterprise
// implementations should wrap this error with additional context.
var ErrUnauthorized = errors.New("unauthorized")

// AuthInfo contains identity information returned after successful
// authentication. UserID is always populated; the rest is optional.
type AuthInfo struct {
	// UserID is the unique identifier for the authenticated user.
	UserID string

	// Email is the user's email address, if the provider supplies one.
	Email string

	// Roles contains the user's role memberships for authorization
	// decisions. Common roles: "admin", "analyst", "viewer".
	Roles []string
}

// HasRole checks if the user has a specific role.
func (a *AuthInfo) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// AuthProvider validates authentication tokens and returns user
// identity.
//
// # Open Source Behavior
//
// The default NopAuthProvider always returns a valid "local-user"
// with admin privileges, so the CLI and local service work without
// any authentication infrastructure.
//
// # Enterprise Implementation
//
// Enterprise versions validate tokens against identity providers like
// Okta, Auth0, or Azure AD and return real user identity.
type AuthProvider interface {
	// Validate checks if the token is valid and returns the user's
	// identity. Returns ErrUnauthorized (or a wrap of it) for invalid
	// tokens.
	Validate(ctx context.Context, token string) (*AuthInfo, error)
}

// NopAuthProvider is the default authentication provider for open
// source. It always returns a valid local user with admin privileges.
//
// Thread-safe: this implementation has no mutable state.
type NopAuthProvider struct{}

// Validate always returns a valid local user with admin privileges.
// The token is ignored; any value including empty string succeeds.
func (p *NopAuthProvider) Validate(_ context.Context, _ string) (*AuthInfo, error) {
	return &AuthInfo{
		UserID: "local-user",
		Roles:  []string{"admin"},
	}, nil
}

var _ AuthProvider = (*NopAuthProvider)(nil)
