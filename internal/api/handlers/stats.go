package handlers

import (
	"context"
	"errors"

	"backend/internal/models"
	"backend/internal/repository"
	"backend/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Pinger checks the health of one backing dependency
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatsHandler handles HTTP requests for the stats pipeline
type StatsHandler struct {
	service   *service.StatsService
	validator *validator.Validate
	postgres  Pinger
	redis     Pinger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(service *service.StatsService, postgres, redis Pinger) *StatsHandler {
	return &StatsHandler{
		service:   service,
		validator: validator.New(),
		postgres:  postgres,
		redis:     redis,
	}
}

// GetStats handles GET /api/v1/stats
// @Summary Look up provider stats for a single identity
// @Description Fetches normalized GitHub and/or LeetCode stats; degraded results carry warnings
// @Produce json
// @Param github query string false "GitHub username"
// @Param leetcode query string false "LeetCode username"
// @Success 200 {object} models.StatsResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /api/v1/stats [get]
func (h *StatsHandler) GetStats(c *fiber.Ctx) error {
	githubUser := c.Query("github")
	leetcodeUser := c.Query("leetcode")

	if githubUser == "" && leetcodeUser == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "Invalid request",
			Message: "At least one of github or leetcode must be provided",
		})
	}

	resp, err := h.service.GetStats(c.Context(), githubUser, leetcodeUser)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
			Error:   "Failed to fetch stats",
			Message: err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// RefreshParticipant handles POST /api/v1/rooms/:roomId/participants/:userId/refresh
// @Summary Refresh one participant's stats
// @Produce json
// @Success 200 {object} models.RefreshParticipantResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/rooms/{roomId}/participants/{userId}/refresh [post]
func (h *StatsHandler) RefreshParticipant(c *fiber.Ctx) error {
	roomID := c.Params("roomId")
	userID := c.Params("userId")

	resp, err := h.service.RefreshParticipant(c.Context(), roomID, userID)
	if err != nil {
		return h.serviceError(c, err, "Failed to refresh participant")
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// RefreshRoom handles POST /api/v1/rooms/:roomId/refresh
// @Summary Refresh stats for every active participant of a room
// @Produce json
// @Success 200 {object} models.RefreshRoomResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/rooms/{roomId}/refresh [post]
func (h *StatsHandler) RefreshRoom(c *fiber.Ctx) error {
	roomID := c.Params("roomId")

	resp, err := h.service.RefreshRoom(c.Context(), roomID)
	if err != nil {
		return h.serviceError(c, err, "Failed to refresh room")
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// GetLeaderboard handles GET /api/v1/rooms/:roomId/leaderboard
// @Summary Compute a room's ranked leaderboard
// @Produce json
// @Success 200 {object} models.LeaderboardResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/rooms/{roomId}/leaderboard [get]
func (h *StatsHandler) GetLeaderboard(c *fiber.Ctx) error {
	roomID := c.Params("roomId")

	resp, err := h.service.ComputeLeaderboard(c.Context(), roomID)
	if err != nil {
		return h.serviceError(c, err, "Failed to compute leaderboard")
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// UpdateProfiles handles PUT /api/v1/users/:userId/profiles
// @Summary Update a user's linked provider usernames
// @Description Persists the new usernames and propagates fresh stats to every room the user is active in
// @Accept json
// @Produce json
// @Param request body models.ProfileUpdateRequest true "Profile update request"
// @Success 200 {object} models.SyncReport
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/users/{userId}/profiles [put]
func (h *StatsHandler) UpdateProfiles(c *fiber.Ctx) error {
	userID := c.Params("userId")

	var req models.ProfileUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
	}

	if err := h.validator.Struct(&req); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "Validation failed",
			Message: validationErrors.Error(),
		})
	}

	report, err := h.service.SyncUserProfiles(c.Context(), userID, req)
	if err != nil {
		return h.serviceError(c, err, "Failed to sync profiles")
	}

	return c.Status(fiber.StatusOK).JSON(report)
}

// HealthCheck handles GET /api/v1/health
// @Summary Health check
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} models.ErrorResponse
// @Router /api/v1/health [get]
func (h *StatsHandler) HealthCheck(c *fiber.Ctx) error {
	if err := h.postgres.Ping(c.Context()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error:   "Health check failed",
			Message: "PostgreSQL: " + err.Error(),
		})
	}
	if err := h.redis.Ping(c.Context()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error:   "Health check failed",
			Message: "Redis: " + err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "healthy",
		"message": "All systems operational",
	})
}

// serviceError maps service-layer errors to HTTP responses
func (h *StatsHandler) serviceError(c *fiber.Ctx, err error, title string) error {
	status := fiber.StatusInternalServerError
	if errors.Is(err, repository.ErrNotFound) {
		status = fiber.StatusNotFound
	}
	return c.Status(status).JSON(models.ErrorResponse{
		Error:   title,
		Message: err.Error(),
	})
}
