package authentication

import (
	"crypto/subtle"
	"encoding/base64"
	"strings"
)

type IBasicAuthService interface {
	Validate(username, password string) bool
	ValidateAdmin(username, password string) bool
	DecodeFromHeader(auth string) (string, string)
}

// BasicAuthTConfig holds the reader and admin credential pairs.
type BasicAuthTConfig struct {
	Username string

	Password string

	AdminUsername string

	AdminPassword string
}

type basicAuth struct {
	username      string
	password      string
	adminUsername string
	adminPassword string
}

func NewBasicAuthService(config *BasicAuthTConfig) IBasicAuthService {
	if config == nil {
		config = &BasicAuthTConfig{}
	}
	return &basicAuth{
		username:      config.Username,
		password:      config.Password,
		adminUsername: config.AdminUsername,
		adminPassword: config.AdminPassword,
	}
}

// Validate accepts reader credentials. Admin credentials are accepted too.
func (b *basicAuth) Validate(username, password string) bool {
	return matches(b.username, b.password, username, password) || b.ValidateAdmin(username, password)
}

func (b *basicAuth) ValidateAdmin(username, password string) bool {
	return matches(b.adminUsername, b.adminPassword, username, password)
}

func (b *basicAuth) DecodeFromHeader(auth string) (string, string) {
	encoded := strings.TrimPrefix(auth, "Basic ")

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ""
	}

	parts := strings.SplitN(string(decoded), ":", 2)
	if len(parts) != 2 {
		return "", ""
	}

	return parts[0], parts[1]
}

func matches(wantUser, wantPass, user, pass string) bool {
	if wantUser == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(wantUser), []byte(user)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(wantPass), []byte(pass)) == 1
	return userOK && passOK
}
