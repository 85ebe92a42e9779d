package strcase

import "testing"

func TestToLowerSnake(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "Email", want: "email"},
		{in: "ChallengeRef", want: "challenge_ref"},
		{in: "OwnerID", want: "owner_id"},
		{in: "SubjectID", want: "subject_id"},
		{in: "HTTPStatus", want: "http_status"},
		{in: "Base64URL", want: "base64_url"},
		{in: "full_name", want: "full_name"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ToLowerSnake(tt.in); got != tt.want {
				t.Fatalf("ToLowerSnake(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
