package jwt

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken(&Payload{ID: "user-1", Nickname: "Ann"}, testSecret, time.Hour)
	require.NoError(t, err)

	payload, err := ParseToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", payload.ID)
	assert.Equal(t, "Ann", payload.Nickname)
	assert.Equal(t, TokenIssuer, payload.Issuer)
}

func TestParseToken_Rejects(t *testing.T) {
	valid, err := GenerateToken(&Payload{ID: "user-1"}, testSecret, time.Hour)
	require.NoError(t, err)

	expired, err := GenerateToken(&Payload{ID: "user-1"}, testSecret, -time.Minute)
	require.NoError(t, err)

	noID, err := GenerateToken(&Payload{}, testSecret, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{"wrong secret", valid, "other-secret"},
		{"expired", expired, testSecret},
		{"missing user id", noID, testSecret},
		{"garbage", "not.a.token", testSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(tt.token, tt.secret)
			assert.Error(t, err)
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		url    string
		want   string
	}{
		{"header", "Bearer abc", "/ws", "abc"},
		{"lowercase scheme", "bearer abc", "/ws", "abc"},
		{"header wins over query", "Bearer abc", "/ws?token=xyz", "abc"},
		{"query fallback", "", "/ws?token=xyz", "xyz"},
		{"wrong scheme", "Basic abc", "/ws?token=xyz", ""},
		{"nothing", "", "/ws", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.url, nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, BearerToken(r))
		})
	}
}
