package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gulfreturn/gulf-api/internal/middleware"
	"github.com/gulfreturn/gulf-api/internal/services"
	"github.com/gulfreturn/gulf-api/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/sirupsen/logrus"
)

type UserHandler struct {
	userService UserServiceInterface
	log         *logrus.Logger
}

func NewUserHandler(userService UserServiceInterface, log *logrus.Logger) *UserHandler {
	return &UserHandler{userService: userService, log: log}
}

func (h *UserHandler) GetMe(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		writeDetail(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	user, err := h.userService.GetByID(context.Background(), userID)
	if errors.Is(err, services.ErrNotFound) {
		writeDetail(c, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	_ = c.JSON(http.StatusOK, dto.NewUserResponse(user))
}
