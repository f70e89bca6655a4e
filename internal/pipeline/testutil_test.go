package pipeline

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/dgallion1/gedgest/internal/pathstore"
)

const familyGedcom = `0 HEAD
1 GEDC
2 VERS 5.5.1
0 @I1@ INDI
1 NAME John /Doe/
1 SEX M
1 BIRT
2 DATE 1 JAN 1900
2 PLAC Ohio
0 @I2@ INDI
1 NAME Jane /Roe/
1 SEX F
0 @I3@ INDI
1 NAME Baby /Doe/
1 FAMC @F1@
0 @F1@ FAM
1 HUSB @I1@
1 WIFE @I2@
1 CHIL @I3@
1 CHIL @I9@
1 MARR
2 DATE 1925
0 TRLR
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakePathstore records writes and can fail a given number of requests.
type fakePathstore struct {
	mu       sync.Mutex
	nodes    map[string]map[string]any
	links    []pathstore.LinkRequest
	deleted  []string
	failNext int
	failCode int
	apiKey   string
}

func newFakePathstore(t *testing.T) (*fakePathstore, *pathstore.Client) {
	t.Helper()
	f := &fakePathstore{nodes: map[string]map[string]any{}, failCode: http.StatusServiceUnavailable}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, pathstore.NewClient(srv.URL, "ps-key")
}

func (f *fakePathstore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.apiKey = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

	if f.failNext > 0 {
		f.failNext--
		http.Error(w, "unavailable", f.failCode)
		return
	}

	switch {
	case r.Method == http.MethodPut && r.URL.Path == "/links":
		var req pathstore.LinkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.links = append(f.links, req)
	case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/kv/"):
		var req struct {
			Value map[string]any `json:"value"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.nodes[strings.TrimPrefix(r.URL.Path, "/kv/")] = req.Value
	case r.Method == http.MethodDelete:
		f.deleted = append(f.deleted, strings.TrimPrefix(r.URL.Path, "/kv/")+"?"+r.URL.RawQuery)
		w.WriteHeader(http.StatusNoContent)
		return
	default:
		http.Error(w, "unexpected request", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (f *fakePathstore) nodeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.nodes)
}

func (f *fakePathstore) node(key string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nodes[key]
}

func (f *fakePathstore) nodeKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.nodes))
	for k := range f.nodes {
		keys = append(keys, k)
	}
	return keys
}

func (f *fakePathstore) linkList() []pathstore.LinkRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]pathstore.LinkRequest(nil), f.links...)
}

func (f *fakePathstore) deletedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func (f *fakePathstore) lastAPIKey() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.apiKey
}
