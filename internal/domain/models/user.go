package models

import (
	"encoding/json"
	"fmt"
)

// User is the authenticated operator.
type User struct {
	ID    RecordID `json:"id"`
	Email string   `json:"email"`
	Name  string   `json:"name"`
	Role  string   `json:"role,omitempty"`
}

// LoginRequest is the body posted to the authentication endpoint.
type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

// LoginResponse is returned by the authentication endpoint on success.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// EncodeUser serializes the identity for the session store.
func EncodeUser(u User) (string, error) {
	raw, err := json.Marshal(u)
	if err != nil {
		return "", fmt.Errorf("encode user: %w", err)
	}
	return string(raw), nil
}

// DecodeUser reads an identity written by EncodeUser.
func DecodeUser(value string) (User, error) {
	var u User
	if err := json.Unmarshal([]byte(value), &u); err != nil {
		return User{}, fmt.Errorf("decode user: %w", err)
	}
	return u, nil
}
