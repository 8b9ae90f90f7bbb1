package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/huddle-server/internal/core"
	"github.com/vovakirdan/huddle-server/internal/proto"
	"github.com/vovakirdan/huddle-server/internal/store"
)

// RoomHandlers serves read-only views of live rooms and their moderation log.
type RoomHandlers struct {
	hub   *core.Hub
	store store.AuditStore
	log   *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(hub *core.Hub, auditStore store.AuditStore, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		hub:   hub,
		store: auditStore,
		log:   logger,
	}
}

// RoomResponse represents a live room in API responses.
type RoomResponse struct {
	RoomID    string       `json:"roomId"`
	RoomName  string       `json:"roomName"`
	AdminID   string       `json:"adminId,omitempty"`
	CreatedAt string       `json:"createdAt"`
	Users     []proto.User `json:"users"`
}

// ModerationResponse is one moderation log entry.
type ModerationResponse struct {
	ID       int64  `json:"id"`
	Action   string `json:"action"`
	ActorID  string `json:"actorId,omitempty"`
	TargetID string `json:"targetId,omitempty"`
	At       string `json:"at"`
}

// GetRoom returns the presence snapshot of a room.
// GET /api/rooms/:id
func (h *RoomHandlers) GetRoom(c *gin.Context) {
	roomID := c.Param("id")

	snap, ok, err := h.hub.Snapshot(c.Request.Context(), roomID)
	if err != nil {
		h.log.Error().Err(err).Str("room_id", roomID).Msg("failed to query room")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "room coordinator unavailable"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
		return
	}

	c.JSON(http.StatusOK, RoomResponse{
		RoomID:    snap.RoomID,
		RoomName:  snap.RoomName,
		AdminID:   snap.AdminID,
		CreatedAt: snap.CreatedAt.UTC().Format(time.RFC3339),
		Users:     usersFrom(&snap),
	})
}

// ListModeration returns recent moderation entries of a room, newest first.
// GET /api/rooms/:id/moderation?limit=N
func (h *RoomHandlers) ListModeration(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "moderation log disabled"})
		return
	}

	roomID := c.Param("id")
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = n
	}

	entries, err := h.store.ListModeration(c.Request.Context(), roomID, limit)
	if err != nil {
		h.log.Error().Err(err).Str("room_id", roomID).Msg("failed to list moderation log")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]ModerationResponse, 0, len(entries))
	for _, e := range entries {
		response = append(response, ModerationResponse{
			ID:       e.ID,
			Action:   e.Action,
			ActorID:  e.ActorID,
			TargetID: e.TargetID,
			At:       e.At.UTC().Format(time.RFC3339),
		})
	}

	h.log.Debug().Str("room_id", roomID).Int("entries", len(response)).Msg("moderation log listed")
	c.JSON(http.StatusOK, response)
}
