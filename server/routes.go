package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/otolabs/oto/ai"
	"github.com/otolabs/oto/space"
)

type chatRequest struct {
	Messages   []chatMessage `json:"messages"`
	ProviderID string        `json:"providerId,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID         string `json:"id"`
	Content    string `json:"content"`
	ProviderID string `json:"providerId"`
}

// handleChat routes a raw chat request through the registry, honoring an
// explicit provider id and the one-hop default fallback.
func (s *Server) handleChat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if len(req.Messages) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "messages are required")
	}

	messages := make([]ai.Message, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = ai.Message{Role: m.Role, Content: m.Content}
	}

	resp, err := s.registry.Chat(c.Request().Context(), ai.Request{Messages: messages}, req.ProviderID)
	if err != nil {
		return mapAIError(err)
	}
	return c.JSON(http.StatusOK, chatResponse{
		ID:         uuid.NewString(),
		Content:    resp.Content,
		ProviderID: resp.ProviderID,
	})
}

type providerView struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Kind        string `json:"kind"`
	IsDefault   bool   `json:"isDefault"`
	Status      string `json:"status"`
}

func (s *Server) handleListProviders(c echo.Context) error {
	descs := s.registry.GetAll()
	views := make([]providerView, len(descs))
	for i, d := range descs {
		views[i] = providerView{
			ID:          d.ID,
			DisplayName: d.DisplayName,
			Kind:        string(d.Kind),
			IsDefault:   d.IsDefault,
			Status:      string(d.Status),
		}
	}
	return c.JSON(http.StatusOK, views)
}

type postMessageRequest struct {
	UserID    string `json:"userId"`
	SpaceType string `json:"spaceType"`
	Content   string `json:"content"`
}

type postMessageResponse struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	// Reply carries the assistant's answer when the message mentioned it
	// and the provider call succeeded. Absent otherwise; the human message
	// is accepted either way.
	Reply string `json:"reply,omitempty"`
}

// handlePostMessage checks the poster's permission first, then produces a
// best-effort assistant reply when the message mentions it. A provider
// failure never fails the message itself.
func (s *Server) handlePostMessage(c echo.Context) error {
	var req postMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if req.UserID == "" || req.Content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "userId and content are required")
	}

	spaceID := c.Param("spaceID")
	spaceType, ok := space.ParseType(req.SpaceType)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown spaceType")
	}

	role, ok := s.roles(c.Request().Context(), spaceID, req.UserID)
	if !ok {
		return echo.NewHTTPError(http.StatusForbidden, "not a member of this space")
	}
	if !space.HasPermission(role, space.ActionPost, spaceType) {
		return echo.NewHTTPError(http.StatusForbidden, "role may not post in this space")
	}

	resp := postMessageResponse{
		ID:      uuid.NewString(),
		Content: req.Content,
	}

	if ai.IsMentioned(req.Content) {
		reply, err := s.assistant.HandleMention(c.Request().Context(), req.Content, &ai.Context{
			SpaceID:   spaceID,
			SpaceType: spaceType,
			UserID:    req.UserID,
		})
		if err != nil {
			// The AI reply is additive; log and keep the message.
			slog.Warn("assistant reply failed", "space", spaceID, "error", err)
		} else {
			resp.Reply = reply
		}
	}

	return c.JSON(http.StatusOK, resp)
}

type permissionsResponse struct {
	Role         string   `json:"role"`
	RoleLevel    int      `json:"roleLevel"`
	Permissions  []string `json:"permissions"`
	DefaultTools []string `json:"defaultTools"`
}

// handlePermissions reports the caller's effective permissions and the
// default tool set for the space type.
func (s *Server) handlePermissions(c echo.Context) error {
	userID := c.QueryParam("userId")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "userId is required")
	}
	spaceID := c.Param("spaceID")
	spaceType, ok := space.ParseType(c.QueryParam("spaceType"))
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown spaceType")
	}

	role, ok := s.roles(c.Request().Context(), spaceID, userID)
	if !ok {
		return echo.NewHTTPError(http.StatusForbidden, "not a member of this space")
	}

	actions := []space.Action{
		space.ActionPost, space.ActionModerate, space.ActionManageTools,
		space.ActionManageRoles, space.ActionCreateChannels, space.ActionInvite,
	}
	granted := make([]string, 0, len(actions))
	for _, action := range actions {
		if space.HasPermission(role, action, spaceType) {
			granted = append(granted, string(action))
		}
	}

	return c.JSON(http.StatusOK, permissionsResponse{
		Role:         string(role),
		RoleLevel:    space.RoleLevel(role),
		Permissions:  granted,
		DefaultTools: space.DefaultTools(spaceType),
	})
}

// mapAIError converts registry error kinds to HTTP status codes.
func mapAIError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ai.ErrProviderNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "provider not found")
	case errors.Is(err, ai.ErrNoProvidersRegistered):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "no AI providers configured")
	case ai.IsUnavailable(err):
		return echo.NewHTTPError(http.StatusBadGateway, "AI provider unavailable")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "AI request failed")
	}
}
