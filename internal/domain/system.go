package domain

import (
	"bytes"
	"encoding/json"
)

// SystemInfo is a read-only snapshot of backend health
type SystemInfo struct {
	OllamaRunning       bool           `json:"ollama_running"`
	VectorizedDatabases []VectorizedDB `json:"vectorized_databases"`
	Websites            []Site         `json:"websites,omitempty"`
}

// VectorizedDB is one vector database reported by system_info. The backend
// sends either a bare id or an object carrying the owning site.
type VectorizedDB struct {
	VectorDBID ID     `json:"vector_db_id"`
	WebsiteID  ID     `json:"id"`
	URL        string `json:"url,omitempty"`
}

// UnmarshalJSON accepts both encodings
func (v *VectorizedDB) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] != '{' {
		*v = VectorizedDB{}
		return v.VectorDBID.UnmarshalJSON(b)
	}
	type plain VectorizedDB
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*v = VectorizedDB(p)
	return nil
}

// ResolvedDB is a vectorized database with its owning URL, if known
type ResolvedDB struct {
	VectorDBID ID
	URL        string
	Known      bool
}

// Resolve maps every vectorized database id to its owning site URL
func (s SystemInfo) Resolve() []ResolvedDB {
	urls := make(map[ID]string, len(s.Websites))
	for _, site := range s.Websites {
		if site.HasVectorDB() {
			urls[site.VectorDBID] = site.URL
		}
	}

	out := make([]ResolvedDB, 0, len(s.VectorizedDatabases))
	for _, db := range s.VectorizedDatabases {
		url := db.URL
		if url == "" {
			url = urls[db.VectorDBID]
		}
		out = append(out, ResolvedDB{VectorDBID: db.VectorDBID, URL: url, Known: url != ""})
	}
	return out
}
