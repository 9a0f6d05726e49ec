package integration

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFolderTreeLifecycle(t *testing.T) {
	baseURL := apiBaseURL(t)
	client := &http.Client{Timeout: 10 * time.Second}
	token := registerTestUser(t, client, baseURL)

	// Create documents/ and documents/photos.
	resp := doJSON(t, client, http.MethodPost, baseURL+"/v1/folders", token, map[string]any{
		"name": "documents",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var documents struct {
		ID string `json:"id"`
	}
	decodeBody(t, resp, &documents)

	resp = doJSON(t, client, http.MethodPost, baseURL+"/v1/folders", token, map[string]any{
		"name":      "photos",
		"parent_id": documents.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var photos struct {
		ID string `json:"id"`
	}
	decodeBody(t, resp, &photos)

	// Moving documents under its own child must be rejected.
	resp = doJSON(t, client, http.MethodPut, fmt.Sprintf("%s/v1/folders/%s", baseURL, documents.ID), token, map[string]any{
		"name":      "documents",
		"parent_id": photos.ID,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// The ancestry of photos runs root then documents.
	resp = doJSON(t, client, http.MethodGet, fmt.Sprintf("%s/v1/folders/parent-tree?folder_id=%s", baseURL, photos.ID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tree struct {
		Ancestors []struct {
			Name string `json:"name"`
		} `json:"ancestors"`
	}
	decodeBody(t, resp, &tree)
	require.Len(t, tree.Ancestors, 2)
	assert.Equal(t, "/", tree.Ancestors[0].Name)
	assert.Equal(t, "documents", tree.Ancestors[1].Name)

	// Move destinations for the documents subtree exclude it entirely.
	resp = doJSON(t, client, http.MethodGet, fmt.Sprintf("%s/v1/folders/move-destinations?type=folder&source_folder_id=%s", baseURL, documents.ID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var dests struct {
		Destinations []struct {
			Path string `json:"path"`
		} `json:"destinations"`
	}
	decodeBody(t, resp, &dests)
	for _, d := range dests.Destinations {
		assert.NotContains(t, d.Path, "documents")
	}

	// Cascade delete removes the subtree.
	resp = doJSON(t, client, http.MethodDelete, fmt.Sprintf("%s/v1/folders/%s", baseURL, documents.ID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, client, http.MethodGet, baseURL+"/v1/folders/children", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var children struct {
		Folders []struct {
			ID string `json:"id"`
		} `json:"folders"`
	}
	decodeBody(t, resp, &children)
	assert.Empty(t, children.Folders)
}
