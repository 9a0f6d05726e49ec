package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func apiBaseURL(t *testing.T) string {
	t.Helper()
	base := os.Getenv("GHOSTDRIVE_API_URL")
	if base == "" {
		t.Skip("GHOSTDRIVE_API_URL not set; integration tests need a running stack")
	}
	return base
}

// registerTestUser registers a fresh user and returns their access token.
func registerTestUser(t *testing.T, client *http.Client, baseURL string) string {
	t.Helper()

	payload := map[string]string{
		"email":    fmt.Sprintf("it_%s@example.com", uuid.NewString()),
		"password": "IntegrationPass1!",
	}
	body, _ := json.Marshal(payload)

	resp, err := client.Post(baseURL+"/v1/auth/register", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var registered struct {
		Tokens struct {
			AccessToken string `json:"access_token"`
		} `json:"tokens"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&registered))
	require.NotEmpty(t, registered.Tokens.AccessToken)

	return registered.Tokens.AccessToken
}

func doJSON(t *testing.T, client *http.Client, method, url, token string, payload any) *http.Response {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}
