package fhir

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/patientforms/internal/core/domain"
)

// fakeServer serves canned bundles per resource type and records requests.
type fakeServer struct {
	*httptest.Server
	handlers map[string]http.HandlerFunc

	mu       sync.Mutex
	requests []*http.Request
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	fs := &fakeServer{handlers: make(map[string]http.HandlerFunc)}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.mu.Lock()
		fs.requests = append(fs.requests, r.Clone(context.Background()))
		fs.mu.Unlock()
		h, ok := fs.handlers[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fakeServer) base() string {
	return fs.URL + "/fhir"
}

func (fs *fakeServer) handle(resourceType string, h http.HandlerFunc) {
	fs.handlers["/fhir/"+resourceType] = h
}

// requestsFor returns the recorded requests for one resource type.
func (fs *fakeServer) requestsFor(resourceType string) []*http.Request {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	var out []*http.Request
	for _, r := range fs.requests {
		if r.URL.Path == "/fhir/"+resourceType {
			out = append(out, r)
		}
	}
	return out
}

func newTestClient(t *testing.T, base string) *Client {
	t.Helper()
	c, err := NewClient(context.Background(), domain.FHIRSettings{
		BaseURL:           base,
		RequestsPerSecond: 1000,
		Burst:             100,
	})
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func bundleOf(total *int, next string, resources ...any) Bundle {
	b := Bundle{ResourceType: resourceBundle, Type: "searchset", Total: total}
	if next != "" {
		b.Link = append(b.Link, BundleLink{Relation: "next", URL: next})
	}
	for _, r := range resources {
		raw, _ := json.Marshal(r)
		b.Entry = append(b.Entry, BundleEntry{Resource: raw, Search: &BundleSearch{Mode: "match"}})
	}
	return b
}

func intPtr(n int) *int {
	return &n
}

func questionnaire(id, name, title string) Questionnaire {
	return Questionnaire{ResourceType: resourceQuestionnaire, ID: id, Name: name, Title: title, Status: "active"}
}

func response(id, questionnaire, authored, encounter string) QuestionnaireResponse {
	r := QuestionnaireResponse{
		ResourceType:  resourceQuestionnaireResponse,
		ID:            id,
		Questionnaire: questionnaire,
		Status:        "completed",
		Authored:      authored,
	}
	if encounter != "" {
		r.Encounter = &Reference{Reference: encounter}
	}
	return r
}

func emptyBundle(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, bundleOf(intPtr(0), ""))
}
