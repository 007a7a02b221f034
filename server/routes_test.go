package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otolabs/oto/ai"
	"github.com/otolabs/oto/internal/profile"
	"github.com/otolabs/oto/space"
)

// failingProvider always reports unavailable.
type failingProvider struct{}

func (failingProvider) GenerateResponse(context.Context, string, *ai.Context) (string, error) {
	return "", ai.ErrProviderUnavailable
}
func (failingProvider) Moderate(context.Context, string) (ai.ModerationResult, error) {
	return ai.ModerationResult{}, ai.ErrProviderUnavailable
}
func (failingProvider) Summarize(context.Context, string, int) (string, error) {
	return "", ai.ErrProviderUnavailable
}
func (failingProvider) ExtractTasks(context.Context, string) ([]ai.TaskSuggestion, error) {
	return nil, ai.ErrProviderUnavailable
}
func (failingProvider) IsAvailable(context.Context) bool { return false }

func roleByUserID(_ context.Context, _, userID string) (space.Role, bool) {
	role, ok := space.ParseRole(userID)
	return role, ok
}

func newTestServer(t *testing.T, p ai.Provider) *Server {
	t.Helper()
	registry := ai.NewRegistry()
	desc := ai.SimulatedDescriptor()
	if p == nil {
		p = ai.NewSimulatedProvider()
	}
	require.NoError(t, registry.Register(desc.ID, p, desc))
	return New(&profile.Profile{Mode: "dev", Port: 0, Version: "test"}, registry, roleByUserID, nil)
}

func doJSON(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func TestPostMessagePermissionGate(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name       string
		userID     string
		spaceType  string
		wantStatus int
	}{
		{"member posts in team", "member", "Team", http.StatusOK},
		{"member blocked in community", "member", "Community", http.StatusForbidden},
		{"content creator posts in community", "content_creator", "Community", http.StatusOK},
		{"guest blocked everywhere", "guest", "Room", http.StatusForbidden},
		{"unknown user rejected", "stranger", "Team", http.StatusForbidden},
		{"garbage space type rejected", "member", "hallway", http.StatusBadRequest},
		{"missing space type rejected", "owner", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"userId":"` + tt.userID + `","spaceType":"` + tt.spaceType + `","content":"hello"}`
			rec := doJSON(t, s, http.MethodPost, "/api/v1/spaces/s1/messages", body)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestPostMessageWithMentionGetsReply(t *testing.T) {
	s := newTestServer(t, nil)

	body := `{"userId":"member","spaceType":"Team","content":"@oto summarize the standup"}`
	rec := doJSON(t, s, http.MethodPost, "/api/v1/spaces/s1/messages", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		ID    string `json:"id"`
		Reply string `json:"reply"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	assert.Contains(t, resp.Reply, "summarize the standup")
}

func TestPostMessageWithoutMentionHasNoReply(t *testing.T) {
	s := newTestServer(t, nil)

	body := `{"userId":"member","spaceType":"Team","content":"plain message"}`
	rec := doJSON(t, s, http.MethodPost, "/api/v1/spaces/s1/messages", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"reply"`)
}

func TestPostMessageSurvivesProviderFailure(t *testing.T) {
	s := newTestServer(t, failingProvider{})

	// The human message is accepted even though the AI reply failed.
	body := `{"userId":"member","spaceType":"Team","content":"@oto are you there?"}`
	rec := doJSON(t, s, http.MethodPost, "/api/v1/spaces/s1/messages", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"reply"`)
}

func TestChatRoute(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/ai/chat",
		`{"messages":[{"role":"user","content":"hello"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "simulated", resp.ProviderID)
	assert.NotEmpty(t, resp.Content)
}

func TestChatRouteValidation(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/ai/chat", `{"messages":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/v1/ai/chat",
		`{"messages":[{"role":"user","content":"x"}],"providerId":"ghost"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChatRouteProviderFailure(t *testing.T) {
	s := newTestServer(t, failingProvider{})

	rec := doJSON(t, s, http.MethodPost, "/api/v1/ai/chat",
		`{"messages":[{"role":"user","content":"hello"}]}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestListProviders(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doJSON(t, s, http.MethodGet, "/api/v1/ai/providers", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var views []providerView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "simulated", views[0].ID)
	assert.True(t, views[0].IsDefault)
}

func TestPermissionsRoute(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doJSON(t, s, http.MethodGet, "/api/v1/spaces/s1/permissions?userId=moderator&spaceType=Team", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp permissionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "moderator", resp.Role)
	assert.Equal(t, 3, resp.RoleLevel)
	assert.ElementsMatch(t, []string{"post", "moderate", "invite"}, resp.Permissions)
	assert.Len(t, resp.DefaultTools, 13)
}

func TestHealthRoute(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doJSON(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"simulated":true`)
}

func TestHealthRouteAllProvidersDown(t *testing.T) {
	s := newTestServer(t, failingProvider{})

	rec := doJSON(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
