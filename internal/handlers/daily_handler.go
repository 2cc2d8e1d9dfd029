package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/mertkaradayi/goalflow/internal/dto"
	"github.com/mertkaradayi/goalflow/internal/middleware"
	"github.com/mertkaradayi/goalflow/internal/services"
)

type DailyHandler struct {
	scheduler *services.SchedulerService
}

func NewDailyHandler(scheduler *services.SchedulerService) *DailyHandler {
	return &DailyHandler{scheduler: scheduler}
}

// Today handles GET /daily/today - carries unfinished work forward, fills in
// fresh actions and returns the full set for the current logical day.
func (h *DailyHandler) Today(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	actions, err := h.scheduler.TodayActions(c.UserContext(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	resp := make([]dto.DailyActionResponse, 0, len(actions))
	for i := range actions {
		resp = append(resp, dto.NewDailyActionResponse(&actions[i]))
	}
	return c.JSON(resp)
}

// CheckIn handles POST /daily/check-in.
func (h *DailyHandler) CheckIn(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.CheckInRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}
	if req.ActionID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "action_id is required",
		})
	}

	if err := h.scheduler.CheckIn(userID, req.ActionID, req.Completed); err != nil {
		if errors.Is(err, services.ErrActionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	return c.JSON(dto.CheckInResponse{Success: true})
}
