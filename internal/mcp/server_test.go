package mcp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takeshy/ddsbatch/internal/batch"
	"github.com/takeshy/ddsbatch/internal/rules"
	"github.com/takeshy/ddsbatch/internal/store"
	"github.com/takeshy/ddsbatch/internal/texconv"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	m, err := store.NewManager(filepath.Join(t.TempDir(), "ddsbatch.yaml"))
	require.NoError(t, err)
	return NewServer(m, "test")
}

func TestRuleTools(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, out, err := s.handleAddRule(ctx, nil, AddRuleInput{Suffix: "_N", Format: "bc5_unorm"})
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.True(t, out.Success)
	assert.Equal(t, rules.DefaultProfileName, out.Profile)
	assert.Equal(t, rules.BC5Unorm, out.Rule.Format)

	res, out, err = s.handleAddRule(ctx, nil, AddRuleInput{Suffix: "_n", Format: "BC7_UNORM"})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.False(t, out.Success)
	assert.Contains(t, out.Error, rules.ErrDuplicateSuffix.Error())

	_, _, err = s.handleAddRule(ctx, nil, AddRuleInput{Suffix: "_D", Format: "JPEG"})
	assert.ErrorIs(t, err, rules.ErrUnknownFormat)

	_, out, err = s.handleRemoveLastRule(ctx, nil, RemoveLastRuleInput{})
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, "_N", out.Rule.Suffix)
	assert.Empty(t, out.Rules)

	res, out, err = s.handleRemoveLastRule(ctx, nil, RemoveLastRuleInput{})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, out.Error, rules.ErrEmptyProfile.Error())
}

func TestProfileTools(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, s.store.CreateProfile("Unreal", rules.BC1Unorm))
	require.NoError(t, s.store.AddRule("Unreal", "_ORM", rules.BC7Unorm, nil))

	_, list, err := s.handleListProfiles(ctx, nil, ListProfilesInput{})
	require.NoError(t, err)
	assert.Equal(t, rules.DefaultProfileName, list.Active)
	require.Len(t, list.Profiles, 2)
	assert.Equal(t, "Unreal", list.Profiles[1].Name)
	assert.Len(t, list.Profiles[1].Rules, 1)

	_, active, err := s.handleSetActiveProfile(ctx, nil, SetActiveProfileInput{Profile: "Unreal"})
	require.NoError(t, err)
	assert.True(t, active.Success)

	res, active, err := s.handleSetActiveProfile(ctx, nil, SetActiveProfileInput{Profile: "Nope"})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "Unreal", active.Active)

	_, resolved, err := s.handleResolve(ctx, nil, ResolveInput{Names: []string{"crate_ORM.png", "crate_N", "crate"}})
	require.NoError(t, err)
	assert.Equal(t, "Unreal", resolved.Profile)
	require.Len(t, resolved.Results, 3)
	assert.Equal(t, rules.BC7Unorm, resolved.Results[0].Format)
	assert.Equal(t, "_ORM", resolved.Results[0].Suffix)
	assert.Equal(t, rules.BC1Unorm, resolved.Results[1].Format)
	assert.Equal(t, rules.BC1Unorm, resolved.Results[2].Format)
}

func TestPlanTool(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.store.AddRule(rules.DefaultProfileName, "_N", rules.BC5Unorm, nil))

	dir := t.TempDir()
	past := time.Now().Add(-time.Hour)
	for _, name := range []string{"rock_N.png", "rock_D.png"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("img"), 0o644))
		require.NoError(t, os.Chtimes(p, past, past))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, batch.OutputDirName), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, batch.OutputDirName, "rock_D.dds"), []byte("DDS "), 0o644))

	_, out, err := s.handlePlan(context.Background(), nil, PlanInput{SourceDir: dir})
	require.NoError(t, err)

	assert.Equal(t, 2, out.Total)
	assert.Equal(t, 1, out.Pending)
	byName := map[string]PlanItem{}
	for _, item := range out.Jobs {
		byName[filepath.Base(item.Source)] = item
	}
	assert.Equal(t, rules.BC5Unorm, byName["rock_N.png"].Format)
	assert.Equal(t, batch.StatusPending, byName["rock_N.png"].Status)
	assert.Equal(t, "up to date", byName["rock_D.png"].Note)

	_, _, err = s.handlePlan(context.Background(), nil, PlanInput{})
	assert.Error(t, err)
}

func TestRunBatchTool(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rock_N.png"), []byte("img"), 0o644))

	_, _, err := s.handleRunBatch(ctx, nil, RunBatchInput{})
	assert.Error(t, err)

	require.NoError(t, s.store.SetConverterPath(filepath.Join(t.TempDir(), "texconv.exe")))
	res, _, err := s.handleRunBatch(ctx, nil, RunBatchInput{SourceDir: dir})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, res.Content[0].(*mcp.TextContent).Text, texconv.ErrConverterNotFound.Error())
}

func TestRunBatchToolDisabled(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, settings, err := s.handleSetToggle(ctx, nil, SetToggleInput{Name: store.ToggleExportDDS, Value: false})
	require.NoError(t, err)
	assert.False(t, settings.Settings.Toggles.ExportDDS)

	_, out, err := s.handleRunBatch(ctx, nil, RunBatchInput{SourceDir: t.TempDir()})
	require.NoError(t, err)
	assert.True(t, out.Disabled)
	assert.Zero(t, out.Total)

	_, _, err = s.handleSetToggle(ctx, nil, SetToggleInput{Name: "dark_mode", Value: true})
	assert.ErrorIs(t, err, store.ErrUnknownToggle)
}

func TestAPIKeyMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := APIKeyMiddleware("secret", ok)

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		target string
		want   int
	}{
		{"header", func(r *http.Request) { r.Header.Set("X-API-Key", "secret") }, "/mcp", http.StatusNoContent},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer secret") }, "/mcp", http.StatusNoContent},
		{"query", func(r *http.Request) {}, "/mcp?api_key=secret", http.StatusNoContent},
		{"wrong key", func(r *http.Request) { r.Header.Set("X-API-Key", "guess") }, "/mcp", http.StatusUnauthorized},
		{"missing", func(r *http.Request) {}, "/mcp", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
