package tests

import (
	"net/http"
	"testing"
)

func TestRegister(t *testing.T) {
	email := uniqueEmail("register")

	// Act
	first := register(t, email)
	status, body := doJSON(t, http.MethodPost, "/api/v1/identity/register", map[string]string{
		"email":     email,
		"password":  userPassword,
		"full_name": "Otp Gate",
	}, "")

	// Assert
	if first.ExpiresAt.IsZero() {
		t.Fatal("register returned no expires_at")
	}
	if status != http.StatusTooManyRequests {
		t.Fatalf("second register status = %d, want %d", status, http.StatusTooManyRequests)
	}
	if msg := decodeError(t, body).Message; msg == "" {
		t.Fatal("cooldown error has no message")
	}
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]string
	}{
		{name: "bad email", payload: map[string]string{"email": "nope", "password": userPassword, "full_name": "A"}},
		{name: "short password", payload: map[string]string{"email": uniqueEmail("short"), "password": "123", "full_name": "A"}},
		{name: "missing name", payload: map[string]string{"email": uniqueEmail("name"), "password": userPassword}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			status, body := doJSON(t, http.MethodPost, "/api/v1/identity/register", tt.payload, "")

			// Assert
			if status != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want %d", status, http.StatusUnprocessableEntity)
			}
			if env := decodeError(t, body); len(env.Error) == 0 {
				t.Fatalf("error fields are empty: %+v", env)
			}
		})
	}
}

func TestRegisterVerifyRejects(t *testing.T) {
	email := uniqueEmail("verify")
	reg := register(t, email)

	tests := []struct {
		name       string
		email      string
		code       string
		wantStatus int
	}{
		{name: "malformed code", email: email, code: "12ab", wantStatus: http.StatusUnprocessableEntity},
		{name: "wrong code", email: email, code: "000000", wantStatus: http.StatusUnauthorized},
		{name: "unknown email", email: uniqueEmail("ghost"), code: "123456", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			status, _ := doJSON(t, http.MethodPost, "/api/v1/identity/register/verify", map[string]string{
				"email":         tt.email,
				"code":          tt.code,
				"challenge_ref": reg.ChallengeRef,
			}, "")

			// Assert
			if status != tt.wantStatus {
				t.Fatalf("status = %d, want %d", status, tt.wantStatus)
			}
		})
	}
}

func TestRegisterResendUnknownEmail(t *testing.T) {
	// Act
	status, body := doJSON(t, http.MethodPost, "/api/v1/identity/register/resend", map[string]string{
		"email": uniqueEmail("nobody"),
	}, "")

	// Assert
	if status != http.StatusOK {
		t.Fatalf("status = %d, want %d", status, http.StatusOK)
	}
	if env := decodeSuccess(t, body, nil); env.Message == "" {
		t.Fatal("resend returned no message")
	}
}

func TestLoginUnknownAccount(t *testing.T) {
	// Act
	status, body := doJSON(t, http.MethodPost, "/api/v1/identity/login", map[string]string{
		"email":    uniqueEmail("stranger"),
		"password": userPassword,
	}, "")

	// Assert
	if status != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", status, http.StatusUnauthorized)
	}
	if msg := decodeError(t, body).Message; msg != "Invalid email or password" {
		t.Fatalf("message = %q", msg)
	}
}

func TestRefreshRejectsUnknownToken(t *testing.T) {
	// Act
	status, _ := doJSON(t, http.MethodPost, "/api/v1/identity/refresh", map[string]string{
		"refresh_token": "not-a-real-token",
	}, "")

	// Assert
	if status != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", status, http.StatusUnauthorized)
	}
}

func TestProfileRequiresAuth(t *testing.T) {
	// Act
	status, _ := doJSON(t, http.MethodGet, "/api/v1/identity/profile", nil, "")

	// Assert
	if status != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", status, http.StatusUnauthorized)
	}
}

func TestSignUpAndSession(t *testing.T) {
	email := uniqueEmail("session")
	session := activeSession(t, email)

	// Act
	status, body := doJSON(t, http.MethodGet, "/api/v1/identity/profile", nil, session.AccessToken)

	// Assert
	if status != http.StatusOK {
		t.Fatalf("profile status = %d", status)
	}
	var profile struct {
		Email  string `json:"email"`
		Status string `json:"status"`
	}
	decodeSuccess(t, body, &profile)
	if profile.Email != email || profile.Status != "Active" {
		t.Fatalf("profile = %+v", profile)
	}

	status, body = doJSON(t, http.MethodPost, "/api/v1/identity/refresh", map[string]string{
		"refresh_token": session.RefreshToken,
	}, "")
	if status != http.StatusOK {
		t.Fatalf("refresh status = %d", status)
	}
	var rotated sessionData
	decodeSuccess(t, body, &rotated)

	status, _ = doJSON(t, http.MethodPost, "/api/v1/identity/refresh", map[string]string{
		"refresh_token": session.RefreshToken,
	}, "")
	if status != http.StatusUnauthorized {
		t.Fatalf("reused refresh status = %d, want %d", status, http.StatusUnauthorized)
	}

	status, _ = doJSON(t, http.MethodPost, "/api/v1/identity/logout", map[string]string{
		"refresh_token": rotated.RefreshToken,
	}, rotated.AccessToken)
	if status != http.StatusOK {
		t.Fatalf("logout status = %d", status)
	}
}
