// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// BasicAuthManager validates HTTP Basic credentials against the single
// configured admin account. The password is bcrypt-hashed once at
// startup.
type BasicAuthManager struct {
	username     string
	passwordHash []byte
}

// NewBasicAuthManager hashes the admin password and returns a manager.
func NewBasicAuthManager(username, password string) (*BasicAuthManager, error) {
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if password == "" {
		return nil, fmt.Errorf("password is required")
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	return &BasicAuthManager{
		username:     username,
		passwordHash: hash,
	}, nil
}

// ValidateCredentials checks an Authorization header value of the form
// "Basic base64(user:pass)" and returns the username on success.
func (m *BasicAuthManager) ValidateCredentials(authHeader string) (string, error) {
	if !strings.HasPrefix(authHeader, "Basic ") {
		return "", fmt.Errorf("invalid authorization header format")
	}

	credentials, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(authHeader, "Basic "))
	if err != nil {
		return "", fmt.Errorf("failed to decode credentials")
	}

	parts := strings.SplitN(string(credentials), ":", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid credentials format")
	}

	if !m.ValidateUsernamePassword(parts[0], parts[1]) {
		return "", fmt.Errorf("invalid username or password")
	}
	return parts[0], nil
}

// ValidateUsernamePassword checks a username/password pair with
// constant-time username comparison and a bcrypt password check.
func (m *BasicAuthManager) ValidateUsernamePassword(username, password string) bool {
	usernameMatch := subtle.ConstantTimeCompare([]byte(username), []byte(m.username)) == 1
	passwordMatch := bcrypt.CompareHashAndPassword(m.passwordHash, []byte(password)) == nil
	return usernameMatch && passwordMatch
}
