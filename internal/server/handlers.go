package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"chathub/internal/chat"
	"chathub/internal/core"
	"chathub/internal/providers"
	"chathub/internal/store"
)

// Handler holds the HTTP handlers
type Handler struct {
	store      store.Store
	chat       *chat.Service
	dispatcher *providers.Dispatcher
}

// NewHandler creates a new handler
func NewHandler(st store.Store, svc *chat.Service, dispatcher *providers.Dispatcher) *Handler {
	return &Handler{
		store:      st,
		chat:       svc,
		dispatcher: dispatcher,
	}
}

// Health handles GET /health
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Register handles POST /api/auth/register
func (h *Handler) Register(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewValidationError("invalid request body"))
	}
	if req.Username == "" || req.Password == "" {
		return handleError(c, core.NewValidationError("username and password are required"))
	}

	if _, err := h.store.GetUserByUsername(c.Request().Context(), req.Username); err == nil {
		return handleError(c, core.NewValidationError("username already exists"))
	} else if !core.IsErrorType(err, core.ErrorTypeNotFound) {
		return handleError(c, err)
	}

	user, err := h.store.CreateUser(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"user": userResponse{ID: user.ID, Username: user.Username},
	})
}

// Login handles POST /api/auth/login
func (h *Handler) Login(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewValidationError("invalid request body"))
	}
	if req.Username == "" || req.Password == "" {
		return handleError(c, core.NewValidationError("username and password are required"))
	}

	user, err := h.store.GetUserByUsername(c.Request().Context(), req.Username)
	if err != nil || user.Password != req.Password {
		return c.JSON(http.StatusUnauthorized, map[string]interface{}{
			"error": map[string]interface{}{
				"type":    "authentication_error",
				"message": "invalid username or password",
			},
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"user": userResponse{ID: user.ID, Username: user.Username},
	})
}

// Logout handles POST /api/auth/logout. No server-side session state is
// held, so this only exists for client symmetry.
func (h *Handler) Logout(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"message": "logged out"})
}

// ListConversations handles GET /api/conversations
func (h *Handler) ListConversations(c echo.Context) error {
	conversations, err := h.store.ListConversations(c.Request().Context())
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, conversations)
}

// GetConversation handles GET /api/conversations/:id
func (h *Handler) GetConversation(c echo.Context) error {
	id, err := conversationID(c)
	if err != nil {
		return handleError(c, err)
	}

	conversation, err := h.store.GetConversation(c.Request().Context(), id)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, conversation)
}

type createConversationRequest struct {
	Title string `json:"title"`
	Model string `json:"model"`
}

// CreateConversation handles POST /api/conversations
func (h *Handler) CreateConversation(c echo.Context) error {
	var req createConversationRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewValidationError("invalid request body"))
	}
	if req.Title == "" || req.Model == "" {
		return handleError(c, core.NewValidationError("title and model are required"))
	}
	if !h.dispatcher.Registry().Supports(req.Model) {
		return handleError(c, core.NewUnsupportedModelError(req.Model))
	}

	conversation, err := h.store.CreateConversation(c.Request().Context(), req.Title, req.Model)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusCreated, conversation)
}

type updateConversationRequest struct {
	Title     *string    `json:"title"`
	Model     *string    `json:"model"`
	UpdatedAt *time.Time `json:"updatedAt"`
}

// UpdateConversation handles PATCH /api/conversations/:id
func (h *Handler) UpdateConversation(c echo.Context) error {
	id, err := conversationID(c)
	if err != nil {
		return handleError(c, err)
	}

	var req updateConversationRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewValidationError("invalid request body"))
	}
	if req.Model != nil && !h.dispatcher.Registry().Supports(*req.Model) {
		return handleError(c, core.NewUnsupportedModelError(*req.Model))
	}

	conversation, err := h.store.UpdateConversation(c.Request().Context(), id, store.ConversationUpdate{
		Title:     req.Title,
		Model:     req.Model,
		UpdatedAt: req.UpdatedAt,
	})
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, conversation)
}

// DeleteConversation handles DELETE /api/conversations/:id
func (h *Handler) DeleteConversation(c echo.Context) error {
	id, err := conversationID(c)
	if err != nil {
		return handleError(c, err)
	}

	deleted, err := h.store.DeleteConversation(c.Request().Context(), id)
	if err != nil {
		return handleError(c, err)
	}
	if !deleted {
		return handleError(c, core.NewNotFoundError("conversation not found"))
	}
	return c.NoContent(http.StatusNoContent)
}

// ListMessages handles GET /api/conversations/:id/messages
func (h *Handler) ListMessages(c echo.Context) error {
	id, err := conversationID(c)
	if err != nil {
		return handleError(c, err)
	}

	messages, err := h.store.ListMessages(c.Request().Context(), id)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, messages)
}

type sendMessageRequest struct {
	Content string `json:"content"`
	Model   string `json:"model"`
}

// SendMessage handles POST /api/conversations/:id/messages. This is the
// message-exchange entry point: it delegates to the orchestrator and
// returns both persisted messages with the measured latency.
func (h *Handler) SendMessage(c echo.Context) error {
	id, err := conversationID(c)
	if err != nil {
		return handleError(c, err)
	}

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewValidationError("invalid request body"))
	}

	result, err := h.chat.HandleIncomingMessage(c.Request().Context(), id, req.Content, req.Model)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// ClearMessages handles DELETE /api/conversations/:id/messages
func (h *Handler) ClearMessages(c echo.Context) error {
	id, err := conversationID(c)
	if err != nil {
		return handleError(c, err)
	}

	if err := h.store.ClearMessages(c.Request().Context(), id); err != nil {
		return handleError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type modelResponse struct {
	ID        string `json:"id"`
	Provider  string `json:"provider"`
	Available bool   `json:"available"`
}

// ListModels handles GET /api/models
func (h *Handler) ListModels(c echo.Context) error {
	registry := h.dispatcher.Registry()
	models := make([]modelResponse, 0)
	for _, id := range registry.Models() {
		cfg, err := registry.Resolve(id)
		if err != nil {
			continue
		}
		models = append(models, modelResponse{
			ID:        id,
			Provider:  string(cfg.Kind),
			Available: h.dispatcher.Available(cfg.Kind),
		})
	}
	return c.JSON(http.StatusOK, models)
}

type validateKeyRequest struct {
	Model  string `json:"model"`
	APIKey string `json:"apiKey"`
}

// ValidateKey handles POST /api/validate-key. The check is offline and
// shape-only; a passing key says nothing about live validity.
func (h *Handler) ValidateKey(c echo.Context) error {
	var req validateKeyRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewValidationError("invalid request body"))
	}
	if req.Model == "" || req.APIKey == "" {
		return handleError(c, core.NewValidationError("model and apiKey are required"))
	}

	valid := h.dispatcher.ValidateKeyFormat(req.Model, req.APIKey)
	return c.JSON(http.StatusOK, map[string]bool{"valid": valid})
}

// conversationID parses the :id path parameter.
func conversationID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, core.NewValidationError("invalid conversation ID")
	}
	return id, nil
}

// handleError converts service errors to appropriate HTTP responses
func handleError(c echo.Context, err error) error {
	var svcErr *core.ServiceError
	if errors.As(err, &svcErr) {
		return c.JSON(svcErr.HTTPStatusCode(), svcErr.ToJSON())
	}

	// Fallback for unexpected errors
	return c.JSON(http.StatusInternalServerError, map[string]interface{}{
		"error": map[string]interface{}{
			"type":    "internal_error",
			"message": "an unexpected error occurred",
		},
	})
}
