package protocol

const (
	guestPrefix   = "guest:"
	sessionPrefix = "session:"
	userPrefix    = "user:"
)

// SessionKind 区分访客与已登录会话。
type SessionKind int

const (
	Guest SessionKind = iota
	Authenticated
)

// Session 是一个连接的会话状态，只由连接复用器的事件循环读写。
type Session struct {
	Kind     SessionKind
	Identity string
	PeerHost string
}

// NewGuestSession 创建访客会话，身份为对端主机。
func NewGuestSession(peerHost string) Session {
	return Session{Kind: Guest, Identity: peerHost, PeerHost: peerHost}
}

func (s Session) login(username string) Session {
	return Session{Kind: Authenticated, Identity: username, PeerHost: s.PeerHost}
}

func (s Session) logout() Session {
	return NewGuestSession(s.PeerHost)
}

// IsAuthenticated 判断会话是否已登录。
func (s Session) IsAuthenticated() bool {
	return s.Kind == Authenticated
}

// Tag 返回会话的路由标签，例如 "guest:10.0.0.1" 或 "session:alice"。只用于日志，不写入套接字。
func (s Session) Tag() string {
	if s.IsAuthenticated() {
		return sessionPrefix + s.Identity
	}
	return guestPrefix + s.Identity
}

// owns 判断会话是否以 username 的身份登录。
func (s Session) owns(username string) bool {
	return s.IsAuthenticated() && s.Identity == username
}
