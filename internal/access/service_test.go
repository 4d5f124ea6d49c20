package access

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

type memoryProfiles struct {
	mu        sync.Mutex
	profiles  map[string]Profile
	createErr error
	creates   int
}

func newMemoryProfiles() *memoryProfiles {
	return &memoryProfiles{profiles: make(map[string]Profile)}
}

func (r *memoryProfiles) Get(_ context.Context, uid string) (Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[uid]
	if !ok {
		return Profile{}, ErrProfileNotFound
	}
	return p, nil
}

func (r *memoryProfiles) Create(_ context.Context, p Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if r.createErr != nil {
		return r.createErr
	}
	if _, ok := r.profiles[p.UID]; ok {
		return ErrProfileExists
	}
	r.profiles[p.UID] = p
	return nil
}

func TestResolveCreatesViewerProfile(t *testing.T) {
	repo := newMemoryProfiles()
	svc := NewService(repo, "boss", nil)

	profile, err := svc.Resolve(context.Background(), Principal{UID: "u1", Email: "a@b.c"})
	require.NoError(t, err)
	require.Equal(t, RoleViewer, profile.Role)
	require.Equal(t, "User", profile.DisplayName)
	require.Empty(t, profile.Permissions)
	require.Empty(t, AccessibleModules(profile))

	stored, err := repo.Get(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, profile.Email, stored.Email)

	_, err = svc.Resolve(context.Background(), Principal{UID: "u1"})
	require.NoError(t, err)
	require.Equal(t, 1, repo.creates)
}

func TestResolveSeededAdmin(t *testing.T) {
	svc := NewService(newMemoryProfiles(), "boss", nil)

	profile, err := svc.Resolve(context.Background(), Principal{UID: "boss", Name: "Owner"})
	require.NoError(t, err)
	require.Equal(t, RoleAdmin, profile.Role)
	require.Equal(t, "Owner", profile.DisplayName)
	require.Len(t, AccessibleModules(profile), len(Modules))
}

func TestResolveSurvivesPersistFailure(t *testing.T) {
	repo := newMemoryProfiles()
	repo.createErr = errors.New("db down")
	svc := NewService(repo, "", nil)

	profile, err := svc.Resolve(context.Background(), Principal{UID: "u2"})
	require.NoError(t, err)
	require.Equal(t, RoleViewer, profile.Role)
}

func TestPermissionsLimitModules(t *testing.T) {
	profile := Profile{Role: RoleViewer, Permissions: []ModuleID{ModuleStock, ModulePSIR, "unknown"}}
	modules := AccessibleModules(profile)
	require.Len(t, modules, 2)
	require.Equal(t, ModulePSIR, modules[0].ID)
	require.Equal(t, ModuleStock, modules[1].ID)
	require.True(t, CanAccess(profile, ModuleStock))
	require.False(t, CanAccess(profile, ModuleIndent))
}

func TestTokenRoundTrip(t *testing.T) {
	v := NewTokenVerifier("secret", "acu")
	raw, err := v.Issue(Principal{UID: "u1", Email: "a@b.c"}, time.Minute)
	require.NoError(t, err)

	p, err := v.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, "u1", p.UID)
	require.Equal(t, "a@b.c", p.Email)

	_, err = NewTokenVerifier("other", "acu").Verify(raw)
	require.ErrorIs(t, err, ErrInvalidToken)

	expired, err := v.Issue(Principal{UID: "u1"}, -time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(expired)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddlewareGuardsModules(t *testing.T) {
	repo := newMemoryProfiles()
	repo.profiles["u1"] = Profile{UID: "u1", Role: RoleViewer, Permissions: []ModuleID{ModuleStock}}
	verifier := NewTokenVerifier("secret", "")
	mw := Middleware{Verifier: verifier, Service: NewService(repo, "", nil)}

	r := chi.NewRouter()
	r.Use(mw.Authenticate)
	r.With(mw.RequireModule(ModuleStock)).Get("/stock", func(w http.ResponseWriter, r *http.Request) {
		ws, _ := WorkspaceFromContext(r.Context())
		_, _ = w.Write([]byte(ws))
	})
	r.With(mw.RequireModule(ModuleIndent)).Get("/indent", func(w http.ResponseWriter, r *http.Request) {})
	r.Mount("/me", func() http.Handler {
		sub := chi.NewRouter()
		NewHandler(nil, mw.Service).MountRoutes(sub)
		return sub
	}())

	token, err := verifier.Issue(Principal{UID: "u1"}, time.Minute)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stock", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/stock", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "u1", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/indent?access_token="+token, nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var body meResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Modules, 1)
	require.Equal(t, ModuleStock, body.Modules[0].ID)
}
