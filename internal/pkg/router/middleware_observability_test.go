package router

import (
	"net/http"
	"reflect"
	"testing"

	"github.com/shandysiswandi/otpgate/internal/pkg/config"
)

func TestMaskSetBody(t *testing.T) {
	cfg, err := config.NewViperFromBytes("yaml", []byte(`
instrument:
  log_mask_fields: ["Full_Name"]
`))
	if err != nil {
		t.Fatalf("NewViperFromBytes() error = %v", err)
	}
	ms := newMaskSet(cfg)

	tests := []struct {
		name      string
		raw       string
		truncated bool
		want      any
	}{
		{
			name: "code masked without config",
			raw:  `{"email":"a@b.co","code":"123456","challenge_ref":"r1"}`,
			want: map[string]any{"email": "a@b.co", "code": maskedValue, "challenge_ref": "r1"},
		},
		{
			name: "nested tokens and configured field",
			raw:  `{"data":{"access_token":"x","full_name":"Otp Gate"},"items":[{"Refresh_Token":"y"}]}`,
			want: map[string]any{
				"data":  map[string]any{"access_token": maskedValue, "full_name": maskedValue},
				"items": []any{map[string]any{"Refresh_Token": maskedValue}},
			},
		},
		{
			name: "plain text is summarized",
			raw:  `code=123456`,
			want: map[string]any{"bytes": 11, "truncated": false},
		},
		{
			name:      "truncated json is summarized",
			raw:       `{"code":"12`,
			truncated: true,
			want:      map[string]any{"bytes": 11, "truncated": true},
		},
		{name: "empty", raw: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			got := ms.body([]byte(tt.raw), tt.truncated)

			// Assert
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("body() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestMaskSetHeaders(t *testing.T) {
	ms := newMaskSet(nil)
	h := http.Header{}
	h.Set("Authorization", "Bearer secret")
	h.Set("Content-Type", "application/json")

	// Act
	got := ms.headers(h)

	// Assert
	if got.Get("Authorization") != maskedValue {
		t.Fatalf("Authorization = %q", got.Get("Authorization"))
	}
	if got.Get("Content-Type") != "application/json" {
		t.Fatalf("Content-Type = %q", got.Get("Content-Type"))
	}
	if h.Get("Authorization") != "Bearer secret" {
		t.Fatal("original headers were modified")
	}
}

func TestLevelForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{status: http.StatusOK, want: "INFO"},
		{status: http.StatusTooManyRequests, want: "WARN"},
		{status: http.StatusServiceUnavailable, want: "ERROR"},
	}

	for _, tt := range tests {
		if got := levelForStatus(tt.status).String(); got != tt.want {
			t.Fatalf("levelForStatus(%d) = %s, want %s", tt.status, got, tt.want)
		}
	}
}
