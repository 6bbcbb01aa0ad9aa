package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"carpool/internal/domain"
	redisstore "carpool/internal/redis"
	"carpool/internal/repository"
)

// ProfileHandler handles HTTP requests for profiles.
type ProfileHandler struct {
	profileRepo repository.ProfileRepository
	cache       redisstore.ProfileCacheInterface
}

// NewProfileHandler creates a new ProfileHandler. cache may be nil.
func NewProfileHandler(profileRepo repository.ProfileRepository, cache redisstore.ProfileCacheInterface) *ProfileHandler {
	return &ProfileHandler{profileRepo: profileRepo, cache: cache}
}

// ProfileRequest is the HTTP request body for creating or updating a profile.
type ProfileRequest struct {
	FullName  string `json:"full_name"`
	Bio       string `json:"bio,omitempty"`
	Phone     string `json:"phone"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// ProfileResponse is the HTTP response for profile data.
type ProfileResponse struct {
	ID        string `json:"id"`
	FullName  string `json:"full_name"`
	Bio       string `json:"bio,omitempty"`
	Phone     string `json:"phone"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Create handles POST /v1/profiles
func (h *ProfileHandler) Create(c *gin.Context) {
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if req.FullName == "" || req.Phone == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "full_name and phone are required"})
		return
	}

	profile := &domain.Profile{
		ID:        uuid.New().String(),
		FullName:  req.FullName,
		Bio:       req.Bio,
		Phone:     req.Phone,
		AvatarURL: req.AvatarURL,
	}

	if err := h.profileRepo.Create(c.Request.Context(), profile); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, ProfileResponse{
		ID:        profile.ID,
		FullName:  profile.FullName,
		Bio:       profile.Bio,
		Phone:     profile.Phone,
		AvatarURL: profile.AvatarURL,
	})
}

// Get handles GET /v1/profiles/:id
func (h *ProfileHandler) Get(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	if h.cache != nil {
		cached, err := h.cache.GetProfile(ctx, id)
		if err != nil {
			log.Printf("profile cache read failed for %s: %v", id, err)
		} else if cached != nil {
			respondJSON(c, http.StatusOK, ProfileResponse{
				ID:        cached.ID,
				FullName:  cached.FullName,
				Bio:       cached.Bio,
				Phone:     cached.Phone,
				AvatarURL: cached.AvatarURL,
			})
			return
		}
	}

	profile, err := h.profileRepo.GetByID(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}

	if h.cache != nil {
		err := h.cache.SetProfile(ctx, &redisstore.CachedProfile{
			ID:        profile.ID,
			FullName:  profile.FullName,
			Bio:       profile.Bio,
			Phone:     profile.Phone,
			AvatarURL: profile.AvatarURL,
		})
		if err != nil {
			log.Printf("profile cache write failed for %s: %v", id, err)
		}
	}

	respondJSON(c, http.StatusOK, ProfileResponse{
		ID:        profile.ID,
		FullName:  profile.FullName,
		Bio:       profile.Bio,
		Phone:     profile.Phone,
		AvatarURL: profile.AvatarURL,
	})
}

// Update handles PUT /v1/profiles/:id
func (h *ProfileHandler) Update(c *gin.Context) {
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	id := c.Param("id")
	profile := &domain.Profile{
		ID:        id,
		FullName:  req.FullName,
		Bio:       req.Bio,
		Phone:     req.Phone,
		AvatarURL: req.AvatarURL,
	}

	if err := h.profileRepo.Update(c.Request.Context(), profile); err != nil {
		respondError(c, err)
		return
	}

	if h.cache != nil {
		if err := h.cache.InvalidateProfile(c.Request.Context(), id); err != nil {
			log.Printf("profile cache invalidation failed for %s: %v", id, err)
		}
	}

	respondJSON(c, http.StatusOK, ProfileResponse{
		ID:        profile.ID,
		FullName:  profile.FullName,
		Bio:       profile.Bio,
		Phone:     profile.Phone,
		AvatarURL: profile.AvatarURL,
	})
}
