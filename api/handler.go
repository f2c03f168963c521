// Package api 是HTTP入口：用户注册、排行查询、排行变化订阅（websocket）、健康检查与指标。
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/SlpAus/hotelier-ranking-backend/internal/catalog"
	"github.com/SlpAus/hotelier-ranking-backend/internal/notify"
	"github.com/SlpAus/hotelier-ranking-backend/internal/platform/health"
	"github.com/SlpAus/hotelier-ranking-backend/internal/user"
	"github.com/SlpAus/hotelier-ranking-backend/pkg/token"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Registrar 注册新用户，*store.Store 满足该接口。
type Registrar interface {
	Register(username, password string) error
}

// Handler 持有HTTP处理函数依赖的组件。
type Handler struct {
	users    Registrar
	rankings notify.RankingSource
	registry *notify.Registry
	signer   *token.Signer
	health   *health.Checker
	upgrader websocket.Upgrader
	sinks    sync.Map // handle -> *wsSink
	log      *slog.Logger
}

// NewHandler 创建处理器。checker 可以为空，此时 /healthz 总是健康。
func NewHandler(users Registrar, rankings notify.RankingSource, registry *notify.Registry, signer *token.Signer, checker *health.Checker) *Handler {
	if checker == nil {
		checker = health.NewChecker()
	}
	registerValidators()
	return &Handler{
		users:    users,
		rankings: rankings,
		registry: registry,
		signer:   signer,
		health:   checker,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 跨域由CORS中间件负责
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log: slog.With("component", "http"),
	}
}

// errorBody 与TCP协议使用相同的错误名。
func errorBody(name string, err error) gin.H {
	return gin.H{"error": name, "message": err.Error()}
}

// RegisterRequestBody 定义了注册请求体的JSON结构
type RegisterRequestBody struct {
	Username string `json:"username" binding:"required,username"`
	Password string `json:"password" binding:"required"`
}

// Register 处理用户注册
func (h *Handler) Register(c *gin.Context) {
	var body RegisterRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("InvalidCredential", err))
		return
	}

	err := h.users.Register(body.Username, body.Password)
	switch {
	case err == nil:
		h.log.Info("新用户注册", "user", body.Username)
		c.JSON(http.StatusCreated, gin.H{"username": body.Username})
	case errors.Is(err, user.ErrAlreadyExists):
		c.JSON(http.StatusConflict, errorBody("AlreadyExists", err))
	case errors.Is(err, user.ErrInvalidCredential):
		c.JSON(http.StatusBadRequest, errorBody("InvalidCredential", err))
	default:
		h.log.Error("注册失败", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "内部错误"})
	}
}

// GetRanking 返回城市当前的排行
func (h *Handler) GetRanking(c *gin.Context) {
	city, _, err := catalog.LookupCity(c.Param("city"))
	if err != nil {
		c.JSON(http.StatusNotFound, errorBody("InvalidCity", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"city": city.Name, "hotels": h.rankings.Ranking(city.Name)})
}

// Health 返回各组件的健康状态
func (h *Handler) Health(c *gin.Context) {
	report := h.health.Report()
	status := http.StatusOK
	if report.Status != health.StateHealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}
