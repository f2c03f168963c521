package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/SlpAus/hotelier-ranking-backend/internal/catalog"
	"github.com/SlpAus/hotelier-ranking-backend/internal/notify"
	"github.com/SlpAus/hotelier-ranking-backend/pkg/token"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	signatureHeader = "X-Signature"
	writeWait       = 5 * time.Second
)

// welcomeFrame 是订阅建立后的第一帧。
type welcomeFrame struct {
	Handle    string              `json:"handle"`
	Signature string              `json:"signature"`
	Snapshot  map[string][]string `json:"snapshot"`
}

// wsSink 把排行更新写到websocket连接上。
// 第一帧（welcome）写出之前，更新会在 ready 上等待，保证客户端先看到快照。
type wsSink struct {
	conn      *websocket.Conn
	mu        sync.Mutex
	ready     chan struct{}
	closeOnce sync.Once
}

func newWSSink(conn *websocket.Conn) *wsSink {
	return &wsSink{conn: conn, ready: make(chan struct{})}
}

func (s *wsSink) writeJSON(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(v)
}

func (s *wsSink) Deliver(ctx context.Context, u notify.Update) error {
	select {
	case <-s.ready:
	case <-ctx.Done():
		return ctx.Err()
	}
	return s.writeJSON(u)
}

func (s *wsSink) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		s.mu.Unlock()
		err = s.conn.Close()
	})
	return err
}

// parseCities 解析逗号分隔的城市列表，返回规范化的城市名。
func parseCities(raw string) ([]string, error) {
	var cities []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		city, _, err := catalog.LookupCity(part)
		if err != nil {
			return nil, err
		}
		cities = append(cities, city.Name)
	}
	if len(cities) == 0 {
		return nil, catalog.ErrInvalidCity
	}
	return cities, nil
}

// Subscribe 将请求升级为websocket，并为其订阅的城市推送排行变化。
// 连接关闭即取消订阅。
func (h *Handler) Subscribe(c *gin.Context) {
	cities, err := parseCities(c.Query("cities"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("InvalidCity", err))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 已经写好了错误响应
		h.log.Warn("websocket升级失败", "error", err)
		return
	}

	handle := uuid.NewString()
	sink := newWSSink(conn)
	snapshot, err := h.registry.Subscribe(handle, cities, sink)
	if err != nil {
		h.log.Error("注册订阅失败", "handle", handle, "error", err)
		_ = sink.Close()
		return
	}
	h.sinks.Store(handle, sink)
	defer func() {
		h.sinks.Delete(handle)
		h.registry.Unsubscribe(handle)
		_ = sink.Close()
	}()

	signature, err := h.signer.Sign(token.Payload{Handle: handle})
	if err != nil {
		h.log.Error("订阅签名失败", "handle", handle, "error", err)
		return
	}
	if err := sink.writeJSON(welcomeFrame{Handle: handle, Signature: signature, Snapshot: snapshot}); err != nil {
		return
	}
	close(sink.ready)

	// 客户端不发送业务消息，读循环只用于感知关闭。
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			var ce *websocket.CloseError
			if !errors.As(err, &ce) {
				h.log.Debug("订阅连接读取结束", "handle", handle, "error", err)
			}
			return
		}
	}
}

// Unsubscribe 显式取消订阅，需要携带订阅时下发的签名。
func (h *Handler) Unsubscribe(c *gin.Context) {
	handle := c.Param("handle")
	if !h.signer.Verify(token.Payload{Handle: handle}, c.GetHeader(signatureHeader)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "签名无效"})
		return
	}
	if !h.registry.Unsubscribe(handle) {
		c.JSON(http.StatusNotFound, gin.H{"error": "订阅不存在"})
		return
	}
	if sink, ok := h.sinks.Load(handle); ok {
		_ = sink.(*wsSink).Close()
	}
	c.Status(http.StatusNoContent)
}
