package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"carpool/internal/domain"
	redisstore "carpool/internal/redis"
	"carpool/internal/repository"
)

type stubProfileRepo struct {
	profiles map[string]*domain.Profile

	getCalls int
}

func (s *stubProfileRepo) Create(ctx context.Context, profile *domain.Profile) error {
	s.profiles[profile.ID] = profile
	return nil
}

func (s *stubProfileRepo) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	s.getCalls++
	p, ok := s.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (s *stubProfileRepo) Update(ctx context.Context, profile *domain.Profile) error {
	if _, ok := s.profiles[profile.ID]; !ok {
		return repository.ErrNotFound
	}
	s.profiles[profile.ID] = profile
	return nil
}

type stubProfileCache struct {
	entries map[string]*redisstore.CachedProfile
}

func newStubProfileCache() *stubProfileCache {
	return &stubProfileCache{entries: make(map[string]*redisstore.CachedProfile)}
}

func (s *stubProfileCache) GetProfile(ctx context.Context, profileID string) (*redisstore.CachedProfile, error) {
	return s.entries[profileID], nil
}

func (s *stubProfileCache) SetProfile(ctx context.Context, profile *redisstore.CachedProfile) error {
	s.entries[profile.ID] = profile
	return nil
}

func (s *stubProfileCache) InvalidateProfile(ctx context.Context, profileID string) error {
	delete(s.entries, profileID)
	return nil
}

func getProfile(t *testing.T, h *ProfileHandler, id string) (*httptest.ResponseRecorder, ProfileResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/v1/profiles/"+id, nil)
	c.Params = gin.Params{{Key: "id", Value: id}}

	h.Get(c)

	var resp ProfileResponse
	if w.Code == http.StatusOK {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return w, resp
}

func TestProfileHandler_Get_CacheHitKeepsBio(t *testing.T) {
	t.Parallel()

	repo := &stubProfileRepo{profiles: map[string]*domain.Profile{}}
	cache := newStubProfileCache()
	cache.entries["profile-1"] = &redisstore.CachedProfile{
		ID:       "profile-1",
		FullName: "Asha Verma",
		Bio:      "Weekend driver on the Delhi-Agra route",
		Phone:    "+91-9000000001",
	}

	h := NewProfileHandler(repo, cache)

	w, resp := getProfile(t, h, "profile-1")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if resp.Bio != "Weekend driver on the Delhi-Agra route" {
		t.Errorf("cache hit dropped the bio, got %q", resp.Bio)
	}
	if repo.getCalls != 0 {
		t.Errorf("expected repository untouched on cache hit, got %d reads", repo.getCalls)
	}
}

func TestProfileHandler_Get_CacheMissStoresBio(t *testing.T) {
	t.Parallel()

	repo := &stubProfileRepo{profiles: map[string]*domain.Profile{
		"profile-1": {
			ID:       "profile-1",
			FullName: "Asha Verma",
			Bio:      "Weekend driver on the Delhi-Agra route",
			Phone:    "+91-9000000001",
		},
	}}
	cache := newStubProfileCache()

	h := NewProfileHandler(repo, cache)

	w, resp := getProfile(t, h, "profile-1")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if resp.Bio == "" {
		t.Error("expected bio in response")
	}

	stored := cache.entries["profile-1"]
	if stored == nil {
		t.Fatal("expected profile cached after miss")
	}
	if stored.Bio != "Weekend driver on the Delhi-Agra route" {
		t.Errorf("cached entry dropped the bio, got %q", stored.Bio)
	}

	// A follow-up read served from cache renders the same body.
	w2, resp2 := getProfile(t, h, "profile-1")
	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200 on cache hit, got %d", w2.Code)
	}
	if resp2 != resp {
		t.Errorf("cache hit rendered differently: %+v vs %+v", resp2, resp)
	}
}
