package auth

import (
	"strings"
	"testing"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{
			name:     "valid password",
			password: "validpassword123",
			wantErr:  nil,
		},
		{
			name:     "password too short",
			password: "short",
			wantErr:  ErrPasswordTooShort,
		},
		{
			name:     "password at minimum length",
			password: strings.Repeat("a", MinPasswordLength),
			wantErr:  nil,
		},
		{
			name:     "password too long",
			password: strings.Repeat("a", 73),
			wantErr:  ErrPasswordTooLong,
		},
		{
			name:     "password at maximum length",
			password: strings.Repeat("a", 72),
			wantErr:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password, 10)
			if err != tt.wantErr {
				t.Errorf("HashPassword() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr == nil && hash == "" {
				t.Error("HashPassword() returned empty hash for valid password")
			}
		})
	}
}

func TestCheckPassword(t *testing.T) {
	password := "testpassword123"
	hash, err := HashPassword(password, 10)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	if err := CheckPassword(password, hash); err != nil {
		t.Errorf("CheckPassword() rejected the correct password: %v", err)
	}
	if err := CheckPassword("wrongpassword", hash); err != ErrInvalidPassword {
		t.Errorf("CheckPassword() error = %v, want ErrInvalidPassword", err)
	}
}

func TestGenerateAPIToken(t *testing.T) {
	plaintext, hash, err := GenerateAPIToken()
	if err != nil {
		t.Fatalf("GenerateAPIToken() error = %v", err)
	}
	if len(plaintext) != 64 {
		t.Errorf("expected 64 hex characters, got %d", len(plaintext))
	}
	if HashToken(plaintext) != hash {
		t.Error("returned hash does not match HashToken(plaintext)")
	}

	second, _, err := GenerateAPIToken()
	if err != nil {
		t.Fatalf("GenerateAPIToken() error = %v", err)
	}
	if second == plaintext {
		t.Error("two generated tokens are identical")
	}
}

func TestGenerateStateToken(t *testing.T) {
	first, err := GenerateStateToken()
	if err != nil {
		t.Fatalf("GenerateStateToken() error = %v", err)
	}
	second, err := GenerateStateToken()
	if err != nil {
		t.Fatalf("GenerateStateToken() error = %v", err)
	}
	if first == "" || first == second {
		t.Error("state tokens must be non-empty and unique")
	}
}
