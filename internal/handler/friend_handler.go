package handler

import (
	"net/http"

	"openbook-server/internal/domain/request"
	"openbook-server/internal/services"
	"openbook-server/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// FriendHandler exposes the friend-request handshake. Unlike the chat
// endpoints these address requests by the other user's id, not by
// request id, matching how the client drives them from profile pages.
type FriendHandler struct {
	requests *services.RequestService
}

func NewFriendHandler(requests *services.RequestService) *FriendHandler {
	return &FriendHandler{requests: requests}
}

func (h *FriendHandler) bindTarget(c *gin.Context) (uuid.UUID, uuid.UUID, string, bool) {
	var req httpdto.FriendActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return uuid.Nil, uuid.Nil, "", false
	}

	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return uuid.Nil, uuid.Nil, "", false
	}

	targetID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid userId", "INVALID_REQUEST"))
		return uuid.Nil, uuid.Nil, "", false
	}

	return userID, targetID, req.Message, true
}

func (h *FriendHandler) SendRequest(c *gin.Context) {
	userID, targetID, message, ok := h.bindTarget(c)
	if !ok {
		return
	}

	view, err := h.requests.Send(c.Request.Context(), userID, targetID, request.KindFriend, message)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(view))
}

func (h *FriendHandler) AcceptRequest(c *gin.Context) {
	userID, senderID, _, ok := h.bindTarget(c)
	if !ok {
		return
	}

	result, err := h.requests.RespondToSender(c.Request.Context(), senderID, userID, request.KindFriend, "accept")
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(result))
}

func (h *FriendHandler) DeclineRequest(c *gin.Context) {
	userID, senderID, _, ok := h.bindTarget(c)
	if !ok {
		return
	}

	result, err := h.requests.RespondToSender(c.Request.Context(), senderID, userID, request.KindFriend, "decline")
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(result))
}

func (h *FriendHandler) CancelRequest(c *gin.Context) {
	userID, targetID, _, ok := h.bindTarget(c)
	if !ok {
		return
	}

	if err := h.requests.Cancel(c.Request.Context(), userID, targetID, request.KindFriend); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func (h *FriendHandler) RemoveFriend(c *gin.Context) {
	userID, targetID, _, ok := h.bindTarget(c)
	if !ok {
		return
	}

	if err := h.requests.RemoveFriend(c.Request.Context(), userID, targetID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func (h *FriendHandler) Status(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	otherID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid user id", "INVALID_REQUEST"))
		return
	}

	status, err := h.requests.QueryStatus(c.Request.Context(), userID, otherID, request.KindFriend)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(status))
}

func (h *FriendHandler) ReceivedRequests(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	views, err := h.requests.ListReceived(c.Request.Context(), userID, request.KindFriend)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(views))
}
