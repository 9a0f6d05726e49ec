package integration

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuotaEnforcement(t *testing.T) {
	baseURL := apiBaseURL(t)
	client := &http.Client{Timeout: 10 * time.Second}
	token := registerTestUser(t, client, baseURL)

	// The default quota is 1 GiB; registering a file declared past it is
	// rejected before any presigned URL is handed out.
	resp := doJSON(t, client, http.MethodPost, baseURL+"/v1/files", token, map[string]any{
		"name":       "too-big.bin",
		"object_key": "uploads/too-big.bin",
		"size":       int64(2) << 30,
	})
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	resp.Body.Close()

	// A small file fits.
	resp = doJSON(t, client, http.MethodPost, baseURL+"/v1/files", token, map[string]any{
		"name":       "small.bin",
		"object_key": "uploads/small.bin",
		"size":       1024,
		"mime_type":  "application/octet-stream",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// The usage report reflects the declared size.
	resp = doJSON(t, client, http.MethodGet, baseURL+"/v1/storage/usage", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var usage struct {
		TotalBytes int64 `json:"total_bytes"`
		OtherBytes int64 `json:"other_bytes"`
		QuotaBytes int64 `json:"quota_bytes"`
	}
	decodeBody(t, resp, &usage)
	assert.Equal(t, int64(1024), usage.TotalBytes)
	assert.Equal(t, int64(1024), usage.OtherBytes)
	assert.Equal(t, int64(1)<<30, usage.QuotaBytes)
}
