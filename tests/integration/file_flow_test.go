package integration

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileUploadFlow(t *testing.T) {
	baseURL := apiBaseURL(t)
	client := &http.Client{Timeout: 10 * time.Second}
	token := registerTestUser(t, client, baseURL)

	// Register metadata first; uploads are presigned against the record.
	resp := doJSON(t, client, http.MethodPost, baseURL+"/v1/files", token, map[string]any{
		"name":       "notes.txt",
		"object_key": "uploads/notes.txt",
		"size":       64,
		"mime_type":  "text/plain",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var file struct {
		ID string `json:"id"`
	}
	decodeBody(t, resp, &file)

	resp = doJSON(t, client, http.MethodPost, baseURL+"/v1/upload/upload-url", token, map[string]any{
		"object_key": "uploads/notes.txt",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var uploadURL struct {
		UploadURL string `json:"upload_url"`
	}
	decodeBody(t, resp, &uploadURL)
	require.NotEmpty(t, uploadURL.UploadURL)

	resp = doJSON(t, client, http.MethodPost, baseURL+"/v1/upload/download-url", token, map[string]any{
		"object_key": "uploads/notes.txt",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var downloadURL struct {
		DownloadURL string `json:"download_url"`
	}
	decodeBody(t, resp, &downloadURL)
	require.NotEmpty(t, downloadURL.DownloadURL)

	// The file shows up in root listings and in search.
	resp = doJSON(t, client, http.MethodGet, baseURL+"/v1/folders/contents", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var contents struct {
		Contents      []map[string]any `json:"contents"`
		TotalElements int64            `json:"total_elements"`
	}
	decodeBody(t, resp, &contents)
	assert.Equal(t, int64(1), contents.TotalElements)

	resp = doJSON(t, client, http.MethodGet, baseURL+"/v1/files/search?q=notes", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var search struct {
		TotalElements int64 `json:"total_elements"`
	}
	decodeBody(t, resp, &search)
	assert.Equal(t, int64(1), search.TotalElements)

	// Delete removes both the object and the record.
	resp = doJSON(t, client, http.MethodDelete, fmt.Sprintf("%s/v1/files/%s", baseURL, file.ID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, client, http.MethodGet, fmt.Sprintf("%s/v1/files/%s", baseURL, file.ID), token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestMultipartUploadSession(t *testing.T) {
	baseURL := apiBaseURL(t)
	client := &http.Client{Timeout: 10 * time.Second}
	token := registerTestUser(t, client, baseURL)

	resp := doJSON(t, client, http.MethodPost, baseURL+"/v1/files", token, map[string]any{
		"name":       "archive.zip",
		"object_key": "uploads/archive.zip",
		"size":       32 << 20,
		"mime_type":  "application/zip",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, client, http.MethodPost, baseURL+"/v1/upload/upload-multipart-url", token, map[string]any{
		"object_key":   "uploads/archive.zip",
		"total_chunks": 4,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var session struct {
		UploadID string `json:"upload_id"`
		PartURLs []struct {
			PartNumber int    `json:"part_number"`
			URL        string `json:"url"`
		} `json:"part_urls"`
	}
	decodeBody(t, resp, &session)
	require.NotEmpty(t, session.UploadID)
	require.Len(t, session.PartURLs, 4)
	for i, part := range session.PartURLs {
		assert.Equal(t, i+1, part.PartNumber)
		assert.NotEmpty(t, part.URL)
	}

	// Nothing was transferred; release the session.
	resp = doJSON(t, client, http.MethodPost, baseURL+"/v1/upload/abort-multipart-upload", token, map[string]any{
		"object_key": "uploads/archive.zip",
		"upload_id":  session.UploadID,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}
