package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRequest_Validation(t *testing.T) {
	tests := []struct {
		name    string
		request RegisterRequest
		wantErr bool
	}{
		{
			name:    "valid request",
			request: RegisterRequest{Email: "john@example.com", Password: "password123"},
			wantErr: false,
		},
		{
			name:    "missing email",
			request: RegisterRequest{Password: "password123"},
			wantErr: true,
		},
		{
			name:    "invalid email format",
			request: RegisterRequest{Email: "not-an-email", Password: "password123"},
			wantErr: true,
		},
		{
			name:    "password too short",
			request: RegisterRequest{Email: "john@example.com", Password: "short"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestVerifyEmailRequest_Validation(t *testing.T) {
	tests := []struct {
		name    string
		request VerifyEmailRequest
		wantErr bool
	}{
		{
			name:    "valid six digit code",
			request: VerifyEmailRequest{Email: "a@b.com", Code: "123456"},
			wantErr: false,
		},
		{
			name:    "code too short",
			request: VerifyEmailRequest{Email: "a@b.com", Code: "123"},
			wantErr: true,
		},
		{
			name:    "code not numeric",
			request: VerifyEmailRequest{Email: "a@b.com", Code: "abc123"},
			wantErr: true,
		},
		{
			name:    "missing email",
			request: VerifyEmailRequest{Code: "123456"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUser_JSONRoundTrip(t *testing.T) {
	data := []byte(`{
		"id": "4f5c8f1e-8f7a-4a8e-9a5e-111122223333",
		"email": "john@example.com",
		"is_verified": true,
		"created_at": "2026-01-15T10:30:00Z"
	}`)

	var u User
	require.NoError(t, json.Unmarshal(data, &u))
	assert.Equal(t, "john@example.com", u.Email)
	assert.True(t, u.IsVerified)
	assert.Equal(t, "4f5c8f1e-8f7a-4a8e-9a5e-111122223333", u.ID.String())
}
