package handlers

import (
	"strconv"

	"github.com/civicfix/civicfix-backend/internal/dto"
	"github.com/civicfix/civicfix-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type LeaderboardHandler struct {
	leaderboard *services.LeaderboardService
}

func NewLeaderboardHandler(leaderboard *services.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboard: leaderboard}
}

// Top returns the ranked contributors. A missing or non-positive limit
// falls back to the service default.
func (h *LeaderboardHandler) Top(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit"))

	entries, err := h.leaderboard.Top(c.UserContext(), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to load leaderboard",
		})
	}
	return c.JSON(entries)
}
