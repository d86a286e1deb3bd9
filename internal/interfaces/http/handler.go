// @title           Trade Book API
// @version         1.0
// @description     Fetches, normalizes and stores the Alice Blue trade book per account

// @contact.name   API Support

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /api

package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	apptradebook "tradebook/internal/application/service/tradebook"
	domain "tradebook/internal/domain/entity/trades"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const (
	aliceBasePath  = "/api/alice"
	tradesBasePath = "/api/trades"

	tradeBookSource = "alice-blue-api"
	noTokenMessage  = "No OAuth token found for this account"
)

var (
	errInvalidLimit = errors.New("limit must be a positive integer")
	errMissingToken = errors.New("token is required")
)

type Handler struct {
	router   *gin.Engine
	service  *apptradebook.Service
	cache    *redis.Client
	cacheTTL time.Duration
	logger   *logrus.Entry
}

var _ http.Handler = (*Handler)(nil)

func NewHandler(svc *apptradebook.Service, cache *redis.Client, cacheTTL time.Duration, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	router := gin.New()

	h := &Handler{
		router:   router,
		service:  svc,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger.WithField("component", "http"),
	}
	router.Use(h.requestLogger(), gin.CustomRecovery(h.recover))
	h.registerRoutes()
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	h.router.GET("/health", h.health)

	alice := h.router.Group(aliceBasePath)
	{
		alice.GET("/trade-book", h.getTradeBook)
		alice.PUT("/tokens/:accountId", h.putToken)
		alice.GET("/tokens/:accountId", h.getTokenStatus)
	}

	trades := h.router.Group(tradesBasePath)
	if h.cache != nil {
		trades.Use(h.cacheMiddleware())
	}
	{
		trades.GET("", h.listTrades)
	}
}

// health reports liveness
// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// getTradeBook fetches the broker trade book for an account
// @Summary      Fetch trade book
// @Description  Calls the Alice Blue trade book API with the stored token, stores new trades and returns the normalized list
// @Tags         alice
// @Produce      json
// @Param        accountId  query     string  false  "Account id (defaults to Master)"
// @Success      200        {object}  tradeBookResponse
// @Failure      401        {object}  errorResponse
// @Failure      403        {object}  upstreamErrorResponse
// @Failure      500        {object}  errorResponse
// @Router       /alice/trade-book [get]
func (h *Handler) getTradeBook(c *gin.Context) {
	result, err := h.service.FetchTradeBook(c.Request.Context(), c.Query("accountId"))
	if err != nil {
		var upstream *domain.UpstreamError
		switch {
		case errors.Is(err, domain.ErrUnauthenticated):
			c.JSON(http.StatusUnauthorized, errorResponse{OK: false, Message: noTokenMessage})
		case errors.As(err, &upstream):
			c.JSON(upstream.Status, upstreamErrorResponse{OK: false, Message: upstream.Error(), Details: upstream.Body})
		default:
			h.logger.WithError(err).Error("trade book fetch failed")
			writeError(c, http.StatusInternalServerError, err)
		}
		return
	}

	if result.Inserted > 0 {
		h.invalidateTrades(c.Request.Context())
	}

	trades := result.Trades
	if trades == nil {
		trades = []domain.Trade{}
	}
	c.JSON(http.StatusOK, tradeBookResponse{
		OK:        true,
		Trades:    trades,
		Count:     len(trades),
		Source:    tradeBookSource,
		AccountID: result.AccountID,
	})
}

// listTrades returns stored trades
// @Summary      List stored trades
// @Description  Returns stored trades, most recent first, optionally filtered by account
// @Tags         trades
// @Produce      json
// @Param        accountId  query     string  false  "Account id"
// @Param        limit      query     int     false  "Maximum number of trades (default 200)"
// @Success      200        {object}  tradesResponse
// @Failure      400        {object}  errorResponse
// @Router       /trades [get]
func (h *Handler) listTrades(c *gin.Context) {
	limit, err := parseLimitQuery(c, "limit")
	if err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}

	accountID := c.Query("accountId")
	trades := h.service.ListTrades(c.Request.Context(), accountID, limit)
	if trades == nil {
		trades = []domain.Trade{}
	}
	c.JSON(http.StatusOK, tradesResponse{
		OK:        true,
		Trades:    trades,
		Count:     len(trades),
		AccountID: accountID,
	})
}

// putToken stores OAuth credentials for an account
// @Summary      Save token
// @Description  Stores the OAuth token for an account, replacing any previous one
// @Tags         alice
// @Accept       json
// @Param        accountId  path      string        true  "Account id"
// @Param        token      body      tokenPayload  true  "Token data"
// @Success      204        "No Content"
// @Failure      400        {object}  errorResponse
// @Router       /alice/tokens/{accountId} [put]
func (h *Handler) putToken(c *gin.Context) {
	var payload tokenPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	if payload.Token == "" {
		writeError(c, http.StatusBadRequest, errMissingToken)
		return
	}
	if err := h.service.SaveToken(c.Request.Context(), c.Param("accountId"), payload.Token, payload.RefreshToken, payload.ExpiresAt); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// getTokenStatus reports whether an account has a stored token
// @Summary      Token status
// @Tags         alice
// @Produce      json
// @Param        accountId  path      string  true  "Account id"
// @Success      200        {object}  tokenStatusResponse
// @Router       /alice/tokens/{accountId} [get]
func (h *Handler) getTokenStatus(c *gin.Context) {
	status := h.service.TokenStatus(c.Request.Context(), c.Param("accountId"))
	c.JSON(http.StatusOK, tokenStatusResponse{OK: true, TokenStatus: status})
}

type tokenPayload struct {
	Token        string  `json:"token"`
	RefreshToken *string `json:"refreshToken"`
	ExpiresAt    *int64  `json:"expiresAt"`
}

type tradeBookResponse struct {
	OK        bool           `json:"ok"`
	Trades    []domain.Trade `json:"trades"`
	Count     int            `json:"count"`
	Source    string         `json:"source"`
	AccountID string         `json:"accountId"`
}

type tradesResponse struct {
	OK        bool           `json:"ok"`
	Trades    []domain.Trade `json:"trades"`
	Count     int            `json:"count"`
	AccountID string         `json:"accountId"`
}

type tokenStatusResponse struct {
	OK bool `json:"ok"`
	apptradebook.TokenStatus
}

type errorResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// upstreamErrorResponse always carries details, even when the broker sent an empty body.
type upstreamErrorResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	Details string `json:"details"`
}

func writeError(c *gin.Context, status int, err error) {
	if err == nil {
		status = http.StatusInternalServerError
		err = errors.New("unknown error")
	}
	c.JSON(status, errorResponse{OK: false, Message: err.Error()})
}

func (h *Handler) recover(c *gin.Context, recovered any) {
	h.logger.WithField("panic", recovered).Error("handler panicked")
	writeError(c, http.StatusInternalServerError, fmt.Errorf("%v", recovered))
	c.Abort()
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Debug("request handled")
	}
}

// cacheMiddleware caches GET responses in Redis.
func (h *Handler) cacheMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.cache == nil || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := h.cacheKey(c)
		ctx := c.Request.Context()

		if cached, err := h.cache.Get(ctx, key).Result(); err == nil {
			c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(cached))
			c.Abort()
			return
		}

		recorder := &responseRecorder{
			ResponseWriter: c.Writer,
			status:         http.StatusOK,
			body:           &bytes.Buffer{},
		}
		c.Writer = recorder

		c.Next()

		if recorder.status >= 200 && recorder.status < 300 && recorder.body.Len() > 0 {
			if err := h.cache.Set(ctx, key, recorder.body.Bytes(), h.cacheTTL).Err(); err != nil {
				h.logger.WithError(err).WithField("key", key).Warn("cache set failed")
			}
		}
	}
}

type responseRecorder struct {
	gin.ResponseWriter
	body   *bytes.Buffer
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(data []byte) (int, error) {
	if len(data) > 0 {
		r.body.Write(data)
	}
	return r.ResponseWriter.Write(data)
}

func (h *Handler) cacheKey(c *gin.Context) string {
	return cacheKey(c.Request.Method, c.FullPath(), c.Request.URL.RawQuery)
}

func cacheKey(method, path, rawQuery string) string {
	return fmt.Sprintf("cache:%s:%s?%s", method, path, rawQuery)
}

// invalidateTrades drops every cached stored-trades listing.
func (h *Handler) invalidateTrades(ctx context.Context) {
	if h.cache == nil {
		return
	}
	pattern := cacheKey(http.MethodGet, tradesBasePath, "") + "*"
	var keys []string
	iter := h.cache.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		h.logger.WithError(err).Warn("scan cached trades failed")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := h.cache.Del(ctx, keys...).Err(); err != nil {
		h.logger.WithError(err).Warn("invalidate cached trades failed")
	}
}

// parseLimitQuery returns 0 when key is absent so the service default applies.
func parseLimitQuery(c *gin.Context, key string) (int, error) {
	value := c.Query(key)
	if value == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(value)
	if err != nil || limit <= 0 {
		return 0, errInvalidLimit
	}
	return limit, nil
}
