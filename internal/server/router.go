package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/doodledrop/backend/internal/doodles"
	"github.com/doodledrop/backend/internal/friends"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	requestIDContextKey = "doodledrop_request_id"
	requestIDHeader     = "X-Request-ID"

	// Request bodies above this size are rejected before any parsing.
	maxRequestBodyBytes = 10 << 20
)

var (
	errMissingDoodleService = errors.New("doodle service dependency required")
	errMissingFriendService = errors.New("friend request service dependency required")
)

// Dependencies lists the collaborators the HTTP layer is wired with.
type Dependencies struct {
	Doodles *doodles.Service
	Friends *friends.Service
	Logger  *zap.Logger
}

// NewHTTPHandler builds the full route surface of the backend.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Doodles == nil {
		return nil, errMissingDoodleService
	}
	if deps.Friends == nil {
		return nil, errMissingFriendService
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(requestIDMiddleware())
	router.Use(requestLogMiddleware(logger))
	router.Use(bodyLimitMiddleware(maxRequestBodyBytes))

	handler := &httpHandler{
		doodleService: deps.Doodles,
		friendService: deps.Friends,
		logger:        logger,
	}

	router.POST("/api/doodles", handler.handleCreateDoodle)
	router.GET("/api/inbox/:code", handler.handleInbox)
	router.POST("/api/friend-requests", handler.handleCreateFriendRequest)
	router.GET("/api/friend-requests/:code", handler.handleListFriendRequests)
	router.PATCH("/api/friend-requests/:id", handler.handleResolveFriendRequest)
	router.GET("/inbox/:code", handler.handleInboxPage)

	return router, nil
}

func corsMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowHeaders: []string{"Content-Type"},
		MaxAge:       24 * time.Hour,
	})
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDContextKey, requestID)
		c.Header(requestIDHeader, requestID)
		c.Next()
	}
}

func requestLogMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request handled",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString(requestIDContextKey)),
		)
	}
}

func bodyLimitMiddleware(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

type httpHandler struct {
	doodleService *doodles.Service
	friendService *friends.Service
	logger        *zap.Logger
}

// bindJSONOrEmpty decodes the request body into payload. An absent or
// malformed body leaves the payload at its zero value so that field
// validation produces the client error. An oversized body is reported
// immediately and false is returned.
func (h *httpHandler) bindJSONOrEmpty(c *gin.Context, payload any) bool {
	err := c.ShouldBindJSON(payload)
	if err == nil {
		return true
	}
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		respondError(c, http.StatusRequestEntityTooLarge, "Payload too large")
		return false
	}
	return true
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"ok": false, "error": message})
}

type doodleItemPayload struct {
	ID        int64  `json:"id"`
	FromCode  string `json:"fromCode"`
	FromName  string `json:"fromName"`
	DataURL   string `json:"dataUrl"`
	CreatedAt int64  `json:"createdAt"`
}

type createDoodlePayload struct {
	ToCode   string `json:"toCode"`
	FromCode string `json:"fromCode"`
	FromName string `json:"fromName"`
	DataURL  string `json:"dataUrl"`
}

func (h *httpHandler) handleCreateDoodle(c *gin.Context) {
	var request createDoodlePayload
	if !h.bindJSONOrEmpty(c, &request) {
		return
	}

	created, err := h.doodleService.Create(c.Request.Context(), doodles.CreateRequest{
		ToCode:   request.ToCode,
		FromCode: request.FromCode,
		FromName: request.FromName,
		DataURL:  request.DataURL,
	})
	if errors.Is(err, doodles.ErrMissingFields) {
		respondError(c, http.StatusBadRequest, "Missing toCode or dataUrl")
		return
	}
	if err != nil {
		h.logger.Error("failed to store doodle", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to store doodle")
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "id": created.ID, "createdAt": created.CreatedAt})
}

func (h *httpHandler) handleInbox(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		respondError(c, http.StatusBadRequest, "Missing code")
		return
	}

	items, err := h.doodleService.Inbox(c.Request.Context(), code)
	if errors.Is(err, doodles.ErrMissingCode) {
		respondError(c, http.StatusBadRequest, "Missing code")
		return
	}
	if err != nil {
		h.logger.Error("failed to load inbox", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to load inbox")
		return
	}

	payload := make([]doodleItemPayload, 0, len(items))
	for _, item := range items {
		payload = append(payload, doodleItemPayload{
			ID:        item.ID,
			FromCode:  item.FromCode,
			FromName:  item.FromName,
			DataURL:   item.DataURL,
			CreatedAt: item.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "items": payload})
}

type friendRequestPayload struct {
	ID        int64  `json:"id"`
	FromCode  string `json:"fromCode"`
	FromName  string `json:"fromName"`
	ToCode    string `json:"toCode"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"createdAt"`
}

func friendRequestPayloads(rows []friends.FriendRequest) []friendRequestPayload {
	payload := make([]friendRequestPayload, 0, len(rows))
	for _, row := range rows {
		payload = append(payload, friendRequestPayload{
			ID:        row.ID,
			FromCode:  row.FromCode,
			FromName:  row.FromName,
			ToCode:    row.ToCode,
			Status:    string(row.Status),
			CreatedAt: row.CreatedAt,
		})
	}
	return payload
}

type createFriendRequestPayload struct {
	FromCode string `json:"fromCode"`
	FromName string `json:"fromName"`
	ToCode   string `json:"toCode"`
}

func (h *httpHandler) handleCreateFriendRequest(c *gin.Context) {
	var request createFriendRequestPayload
	if !h.bindJSONOrEmpty(c, &request) {
		return
	}

	created, duplicate, err := h.friendService.Create(c.Request.Context(), friends.CreateRequest{
		FromCode: request.FromCode,
		FromName: request.FromName,
		ToCode:   request.ToCode,
	})
	if errors.Is(err, friends.ErrMissingFields) {
		respondError(c, http.StatusBadRequest, "Missing fromCode, fromName, or toCode")
		return
	}
	if errors.Is(err, friends.ErrSelfRequest) {
		respondError(c, http.StatusBadRequest, "Cannot send a request to yourself")
		return
	}
	if err != nil {
		h.logger.Error("failed to store friend request", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to store friend request")
		return
	}

	if duplicate {
		c.JSON(http.StatusOK, gin.H{"ok": true, "id": created.ID, "duplicate": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "id": created.ID, "createdAt": created.CreatedAt})
}

func (h *httpHandler) handleListFriendRequests(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		respondError(c, http.StatusBadRequest, "Missing code")
		return
	}

	incoming, accepted, err := h.friendService.ListForCode(c.Request.Context(), code)
	if errors.Is(err, friends.ErrMissingCode) {
		respondError(c, http.StatusBadRequest, "Missing code")
		return
	}
	if err != nil {
		h.logger.Error("failed to load friend requests", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to load friend requests")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"incoming": friendRequestPayloads(incoming),
		"accepted": friendRequestPayloads(accepted),
	})
}

type resolveFriendRequestPayload struct {
	Status string `json:"status"`
	// Code identifies the responder. When omitted the recipient check is
	// skipped; see DESIGN.md before tightening this.
	Code string `json:"code"`
}

func (h *httpHandler) handleResolveFriendRequest(c *gin.Context) {
	requestID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusNotFound, "Request not found")
		return
	}

	var request resolveFriendRequestPayload
	if !h.bindJSONOrEmpty(c, &request) {
		return
	}

	resolved, err := h.friendService.Resolve(c.Request.Context(), requestID, friends.Status(request.Status), request.Code)
	switch {
	case errors.Is(err, friends.ErrInvalidStatus):
		respondError(c, http.StatusBadRequest, "Status must be 'accepted' or 'declined'")
		return
	case errors.Is(err, friends.ErrRequestNotFound):
		respondError(c, http.StatusNotFound, "Request not found")
		return
	case errors.Is(err, friends.ErrNotAuthorized):
		respondError(c, http.StatusForbidden, "Not authorized")
		return
	case errors.Is(err, friends.ErrAlreadyResolved):
		respondError(c, http.StatusConflict, "Request already resolved")
		return
	case err != nil:
		h.logger.Error("failed to update friend request", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to update friend request")
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "id": resolved.ID, "status": string(resolved.Status)})
}
