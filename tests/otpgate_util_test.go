package tests

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"testing"
	"time"
)

const (
	userPassword = "Secret123!"
	adminEmail   = "admin@otpgate.local"
)

var codePattern = regexp.MustCompile(`Code:\s*(\d{6})`)

type challengeData struct {
	ChallengeRef string    `json:"challenge_ref"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type sessionData struct {
	ChallengeRef string `json:"challenge_ref"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s+%d@otpgate.test", prefix, time.Now().UnixNano())
}

func register(t *testing.T, email string) challengeData {
	t.Helper()

	status, body := doJSON(t, http.MethodPost, "/api/v1/identity/register", map[string]string{
		"email":     email,
		"password":  userPassword,
		"full_name": "Otp Gate",
	}, "")
	if status != http.StatusOK {
		t.Fatalf("register failed: status=%d message=%q", status, decodeError(t, body).Message)
	}

	var data challengeData
	decodeSuccess(t, body, &data)
	if data.ChallengeRef == "" {
		t.Fatal("register returned no challenge_ref")
	}

	return data
}

// mailpitURL points at the SMTP catcher the server delivers to. Flows that
// need a real code are skipped without it.
func mailpitURL(t *testing.T) string {
	t.Helper()

	u := strings.TrimRight(strings.TrimSpace(os.Getenv("OTPGATE_MAILPIT_URL")), "/")
	if u == "" {
		t.Skip("OTPGATE_MAILPIT_URL is not set")
	}
	return u
}

// latestCode polls the mail catcher for the newest code sent to email no
// earlier than since. Messages without a code are skipped.
func latestCode(t *testing.T, email string, since time.Time) string {
	t.Helper()

	base := mailpitURL(t)
	query := url.QueryEscape(fmt.Sprintf("to:%q", email))
	deadline := time.Now().Add(10 * time.Second)

	for time.Now().Before(deadline) {
		var list struct {
			Messages []struct {
				ID      string    `json:"ID"`
				Created time.Time `json:"Created"`
			} `json:"messages"`
		}
		if getJSON(t, base+"/api/v1/search?query="+query, &list) {
			for _, item := range list.Messages {
				if item.Created.Before(since) {
					break
				}
				var msg struct {
					Text string `json:"Text"`
				}
				if !getJSON(t, base+"/api/v1/message/"+item.ID, &msg) {
					continue
				}
				if m := codePattern.FindStringSubmatch(msg.Text); len(m) == 2 {
					return m[1]
				}
			}
		}
		time.Sleep(250 * time.Millisecond)
	}

	t.Fatalf("no code delivered to %s", email)
	return ""
}

func getJSON(t *testing.T, u string, out any) bool {
	t.Helper()

	resp, err := httpClient.Get(u)
	if err != nil {
		t.Fatalf("get %s: %v", u, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read %s: %v", u, err)
	}
	if resp.StatusCode != http.StatusOK {
		return false
	}
	return json.Unmarshal(body, out) == nil
}

// activeSession registers email, verifies it and completes the two step login.
func activeSession(t *testing.T, email string) sessionData {
	t.Helper()

	mailpitURL(t)
	since := time.Now().Truncate(time.Second)
	verifyRegistration(t, email, register(t, email).ChallengeRef, since)
	return loginSession(t, email)
}

func verifyRegistration(t *testing.T, email, challengeRef string, since time.Time) {
	t.Helper()

	status, body := doJSON(t, http.MethodPost, "/api/v1/identity/register/verify", map[string]string{
		"email":         email,
		"code":          latestCode(t, email, since),
		"challenge_ref": challengeRef,
	}, "")
	if status != http.StatusOK {
		t.Fatalf("register verify failed: status=%d message=%q", status, decodeError(t, body).Message)
	}
}

// loginSession signs an active account in.
func loginSession(t *testing.T, email string) sessionData {
	t.Helper()

	since := time.Now()
	status, body := doJSON(t, http.MethodPost, "/api/v1/identity/login", map[string]string{
		"email":    email,
		"password": userPassword,
	}, "")
	if status != http.StatusOK {
		t.Fatalf("login failed: status=%d message=%q", status, decodeError(t, body).Message)
	}

	var login sessionData
	decodeSuccess(t, body, &login)
	if login.AccessToken != "" {
		return login
	}

	status, body = doJSON(t, http.MethodPost, "/api/v1/identity/login/verify", map[string]string{
		"email":         email,
		"code":          latestCode(t, email, since),
		"challenge_ref": login.ChallengeRef,
	}, "")
	if status != http.StatusOK {
		t.Fatalf("login verify failed: status=%d message=%q", status, decodeError(t, body).Message)
	}

	var session sessionData
	decodeSuccess(t, body, &session)
	if session.AccessToken == "" {
		t.Fatal("login verify returned no access token")
	}
	return session
}

// adminSession signs the configured admin in, registering it on first use.
func adminSession(t *testing.T) sessionData {
	t.Helper()

	mailpitURL(t)
	since := time.Now().Truncate(time.Second)
	status, body := doJSON(t, http.MethodPost, "/api/v1/identity/register", map[string]string{
		"email":     adminEmail,
		"password":  userPassword,
		"full_name": "Otp Admin",
	}, "")
	if status == http.StatusConflict {
		return loginSession(t, adminEmail)
	}
	if status == http.StatusTooManyRequests {
		t.Skip("admin registration is cooling down")
	}
	if status != http.StatusOK {
		t.Fatalf("admin register status = %d", status)
	}

	var reg challengeData
	decodeSuccess(t, body, &reg)
	verifyRegistration(t, adminEmail, reg.ChallengeRef, since)
	return loginSession(t, adminEmail)
}
