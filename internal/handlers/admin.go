package handlers

import (
	"context"
	"net/http"

	"github.com/gulfreturn/gulf-api/internal/models"
	"github.com/gulfreturn/gulf-api/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/sirupsen/logrus"
)

type AdminHandler struct {
	userService UserServiceInterface
	log         *logrus.Logger
}

func NewAdminHandler(userService UserServiceInterface, log *logrus.Logger) *AdminHandler {
	return &AdminHandler{userService: userService, log: log}
}

// Stats reports how many staff accounts exist. Mounted behind RequireRole(moderator).
func (h *AdminHandler) Stats(c *drift.Context) {
	ctx := context.Background()

	admins, err := h.userService.CountByRole(ctx, models.RoleAdmin)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	moderators, err := h.userService.CountByRole(ctx, models.RoleModerator)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	_ = c.JSON(http.StatusOK, dto.AdminStatsResponse{
		AdminCount:     admins,
		ModeratorCount: moderators,
	})
}
