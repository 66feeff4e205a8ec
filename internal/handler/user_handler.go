package handler

import (
	"net/http"
	"strconv"

	"openbook-server/internal/redis"
	"openbook-server/internal/services"
	"openbook-server/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UserHandler struct {
	users    *services.UserService
	presence *redis.PresenceStore
}

func NewUserHandler(users *services.UserService, presence *redis.PresenceStore) *UserHandler {
	return &UserHandler{users: users, presence: presence}
}

// Presence reports whether a user currently holds a live realtime
// connection, with their last seen time when offline.
func (h *UserHandler) Presence(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid user id", "INVALID_REQUEST"))
		return
	}
	if h.presence == nil {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"isOnline": false}))
		return
	}

	status, err := h.presence.GetPresence(c.Request.Context(), userID.String())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{
		"isOnline": status.IsOnline,
		"lastSeen": status.LastSeen,
	}))
}

func (h *UserHandler) Search(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	query := c.Query("search")

	profiles, total, err := h.users.Search(c.Request.Context(), query, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{
		"users": profiles,
		"total": total,
	}))
}

func (h *UserHandler) Friends(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	profiles, err := h.users.Friends(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(profiles))
}

func (h *UserHandler) DeleteAccount(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	if err := h.users.DeleteAccount(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}
