package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestUserFullWorkflow exercises the whole drive surface against a running
// stack: register, build a folder tree, register files, presign uploads,
// check usage, search, and tear everything down.
func TestUserFullWorkflow(t *testing.T) {
	baseURL := os.Getenv("GHOSTDRIVE_API_URL")
	if baseURL == "" {
		t.Skip("GHOSTDRIVE_API_URL not set; e2e tests need a running stack")
	}
	client := &http.Client{Timeout: 30 * time.Second}

	// 1. Register; registration provisions the bucket and root folder.
	email := fmt.Sprintf("e2e_%d@example.com", time.Now().UnixNano())
	password := "E2EPassword1!"

	resp := postJSON(t, client, baseURL+"/v1/auth/register", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// 2. Login.
	resp = postJSON(t, client, baseURL+"/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var login struct {
		Tokens struct {
			AccessToken string `json:"access_token"`
		} `json:"tokens"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	resp.Body.Close()
	token := login.Tokens.AccessToken
	require.NotEmpty(t, token)

	// 3. Create a folder.
	resp = postJSON(t, client, baseURL+"/v1/folders", token, map[string]any{
		"name": "inbox",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var inbox struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&inbox))
	resp.Body.Close()

	// 4. Register three files in it and presign an upload for each.
	names := []string{"one.txt", "two.txt", "three.txt"}
	var fileIDs []string
	for _, name := range names {
		resp = postJSON(t, client, baseURL+"/v1/files", token, map[string]any{
			"name":       name,
			"object_key": "e2e/" + name,
			"size":       16,
			"folder_id":  inbox.ID,
			"mime_type":  "text/plain",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		var file struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&file))
		resp.Body.Close()
		fileIDs = append(fileIDs, file.ID)

		resp = postJSON(t, client, baseURL+"/v1/upload/upload-url", token, map[string]any{
			"object_key": "e2e/" + name,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	// 5. The folder listing holds all three.
	resp = getAuth(t, client, fmt.Sprintf("%s/v1/folders/contents?folder_id=%s", baseURL, inbox.ID), token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var contents struct {
		TotalElements int64 `json:"total_elements"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&contents))
	resp.Body.Close()
	assert.Equal(t, int64(3), contents.TotalElements)

	// 6. Usage reflects the declared bytes.
	resp = getAuth(t, client, baseURL+"/v1/storage/usage", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var usage struct {
		TotalBytes int64 `json:"total_bytes"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&usage))
	resp.Body.Close()
	assert.Equal(t, int64(48), usage.TotalBytes)

	// 7. Search finds by substring.
	resp = getAuth(t, client, baseURL+"/v1/files/search?q=two", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var search struct {
		TotalElements int64 `json:"total_elements"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&search))
	resp.Body.Close()
	assert.Equal(t, int64(1), search.TotalElements)

	// 8. Cascade delete clears the folder and the usage.
	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/v1/folders/%s", baseURL, inbox.ID), nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = client.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = getAuth(t, client, baseURL+"/v1/storage/usage", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&usage))
	resp.Body.Close()
	assert.Equal(t, int64(0), usage.TotalBytes)

	for _, id := range fileIDs {
		resp = getAuth(t, client, fmt.Sprintf("%s/v1/files/%s", baseURL, id), token)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	}
}

func postJSON(t *testing.T, client *http.Client, url, token string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

func getAuth(t *testing.T, client *http.Client, url, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}
