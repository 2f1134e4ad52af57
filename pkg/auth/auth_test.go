package authentication

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBasicAuthService(t *testing.T) {
	svc := NewBasicAuthService(&BasicAuthTConfig{
		Username:      "reader",
		Password:      "readerpass",
		AdminUsername: "admin",
		AdminPassword: "password",
	})

	assert.True(t, svc.Validate("reader", "readerpass"))
	assert.True(t, svc.Validate("admin", "password"), "admin can read")
	assert.False(t, svc.Validate("reader", "wrong"))
	assert.True(t, svc.ValidateAdmin("admin", "password"))
	assert.False(t, svc.ValidateAdmin("reader", "readerpass"))
}

func TestBasicAuthServiceEmptyConfig(t *testing.T) {
	svc := NewBasicAuthService(nil)
	assert.False(t, svc.Validate("", ""))
	assert.False(t, svc.ValidateAdmin("", ""))
}

func TestDecodeFromHeader(t *testing.T) {
	svc := NewBasicAuthService(nil)
	header := "Basic " + base64.StdEncoding.EncodeToString([]byte("user:pa:ss"))

	user, pass := svc.DecodeFromHeader(header)
	assert.Equal(t, "user", user)
	assert.Equal(t, "pa:ss", pass)

	user, pass = svc.DecodeFromHeader("Basic !!!")
	assert.Empty(t, user)
	assert.Empty(t, pass)
}
