package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_PreservesEncoding(t *testing.T) {
	var payload struct {
		A ID `json:"a"`
		B ID `json:"b"`
		C ID `json:"c"`
		D ID `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 7, "b": "f3a9", "c": null, "d": ""}`), &payload))

	assert.Equal(t, NumberID(7), payload.A)
	assert.Equal(t, StringID("f3a9"), payload.B)
	assert.True(t, payload.C.IsZero())
	assert.True(t, payload.D.IsZero())
	assert.Equal(t, "7", payload.A.String())
	assert.Equal(t, "f3a9", payload.B.String())

	out, err := json.Marshal(ChatRequest{VectorDBID: payload.A, Query: "hi"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"vector_db_id": 7, "query": "hi"}`, string(out))

	out, err = json.Marshal(DeleteRequest{VectorDBID: payload.B})
	require.NoError(t, err)
	assert.JSONEq(t, `{"vector_db_id": "f3a9"}`, string(out))
}

func TestID_Zero(t *testing.T) {
	assert.True(t, ID{}.IsZero())
	assert.True(t, StringID("").IsZero())
	assert.Equal(t, ID{}, StringID(""))
	assert.NotEqual(t, NumberID(7), StringID("7"))
}

func TestSite_HasVectorDB(t *testing.T) {
	var sites []Site
	body := `[
		{"id": 1, "url": "https://a.example", "vector_db_id": "abc", "date_scraped": "2025-01-02T03:04:05Z"},
		{"id": 2, "url": "https://b.example", "vector_db_id": "", "date_scraped": "2025-01-02T03:04:05Z"},
		{"id": 3, "url": "https://c.example", "vector_db_id": null, "date_scraped": "2025-01-02T03:04:05Z"}
	]`
	require.NoError(t, json.Unmarshal([]byte(body), &sites))

	assert.True(t, sites[0].HasVectorDB())
	assert.False(t, sites[1].HasVectorDB())
	assert.False(t, sites[2].HasVectorDB())

	sel := sites[0].Selection()
	assert.Equal(t, NumberID(1), sel.WebsiteID)
	assert.Equal(t, StringID("abc"), sel.VectorDBID)
	assert.Equal(t, "https://a.example", sel.URL)
}

func TestSystemInfo_Resolve(t *testing.T) {
	body := `{
		"ollama_running": true,
		"vectorized_databases": [
			"abc",
			{"id": 4, "url": "https://d.example", "vector_db_id": "ddd"},
			"orphan"
		],
		"websites": [
			{"id": 1, "url": "https://a.example", "vector_db_id": "abc"}
		]
	}`
	var info SystemInfo
	require.NoError(t, json.Unmarshal([]byte(body), &info))

	assert.True(t, info.OllamaRunning)
	resolved := info.Resolve()
	require.Len(t, resolved, 3)

	assert.Equal(t, "https://a.example", resolved[0].URL)
	assert.True(t, resolved[0].Known)
	assert.Equal(t, "https://d.example", resolved[1].URL)
	assert.Equal(t, StringID("ddd"), resolved[1].VectorDBID)
	assert.False(t, resolved[2].Known)
	assert.Equal(t, "orphan", resolved[2].VectorDBID.String())
}

func TestIsFileLocked(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"process is using", &APIError{StatusCode: 500, Message: "another process is using the file"}, true},
		{"windows", &APIError{StatusCode: 500, Message: "[WinError 32] The process cannot access the file because it is being used by another process"}, true},
		{"wrapped", fmt.Errorf("delete: %w", &APIError{StatusCode: 500, Message: "file is locked"}), true},
		{"other backend error", &APIError{StatusCode: 404, Message: "Website not found in database"}, false},
		{"plain error", errors.New("process is using"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsFileLocked(tt.err))
		})
	}
}

func TestDeleteErrorMessage(t *testing.T) {
	locked := &APIError{StatusCode: 500, Message: "An error occurred while deleting: process is using chroma.sqlite3"}
	assert.Equal(t, FileLockMessage, DeleteErrorMessage(locked))
	assert.NotContains(t, DeleteErrorMessage(locked), "chroma.sqlite3")

	notFound := &APIError{StatusCode: 404, Message: "Website not found in database"}
	assert.Equal(t, "Website not found in database", DeleteErrorMessage(notFound))

	transport := &APIError{Message: "dial tcp: connection refused"}
	assert.Equal(t, "Failed to delete website data. Please try again.", DeleteErrorMessage(transport))
}
