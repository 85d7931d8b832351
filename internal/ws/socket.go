package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/ondacomunitaria/radiotrivia/internal/chat"
	"github.com/ondacomunitaria/radiotrivia/internal/hub"
	"github.com/ondacomunitaria/radiotrivia/internal/quiz"
	"github.com/rs/zerolog/log"
)

const (
	chatRoom       = "chat"
	historyOnJoin  = 50
	requestTimeout = 10 * time.Second
)

type ConnCtx struct {
	Token string
}

// Server relays presenter events and chat between viewers and their sockets.
type Server struct {
	hub  *hub.Hub
	room *chat.Room

	mu      sync.RWMutex
	members map[string]map[string]socketio.Conn // viewer token -> socketID -> Conn

	cancelChat func()
}

func New(h *hub.Hub, room *chat.Room) *Server {
	srv := &Server{hub: h, room: room, members: make(map[string]map[string]socketio.Conn)}
	h.SetEmitter(srv)
	return srv
}

// Emit sends one presenter event to every socket attached to the viewer.
func (srv *Server) Emit(token, event string, payload any) {
	srv.mu.RLock()
	defer srv.mu.RUnlock()
	for _, c := range srv.members[token] {
		c.Emit(event, payload)
	}
}

// Mount attaches Socket.IO server with handlers to the given Gin engine.
func (srv *Server) Mount(r *gin.Engine) *socketio.Server {
	io := socketio.NewServer(nil)

	io.OnConnect("/", func(s socketio.Conn) error {
		s.SetContext(&ConnCtx{})
		s.Join(chatRoom)
		log.Info().Str("sid", s.ID()).Msg("socket connected")
		return nil
	})

	// viewer:attach binds this socket to a viewer opened over REST
	io.OnEvent("/", "viewer:attach", func(s socketio.Conn, payload struct {
		Token string `json:"token"`
	}) map[string]any {
		client, err := srv.hub.Get(payload.Token)
		if err != nil {
			return srv.err(s, "unknown_viewer", "Unknown viewer")
		}
		if prev, ok := s.Context().(*ConnCtx); ok && prev.Token != "" && prev.Token != payload.Token {
			srv.removeMember(prev.Token, s)
		}
		s.SetContext(&ConnCtx{Token: payload.Token})
		srv.addMember(payload.Token, s)
		log.Info().Str("sid", s.ID()).Str("viewer", payload.Token).Msg("viewer:attach")

		s.Emit(hub.EventState, hub.Redact(client.View()))
		s.Emit("chat:history", map[string]any{"messages": srv.room.History(historyOnJoin)})
		return map[string]any{"ok": true, "player": client.CurrentPlayer()}
	})

	// chat:send
	io.OnEvent("/", "chat:send", func(s socketio.Conn, payload struct {
		Body string `json:"body"`
	}) map[string]any {
		ctx, _ := s.Context().(*ConnCtx)
		if ctx == nil || ctx.Token == "" {
			return srv.err(s, "unknown_viewer", "Attach a viewer first")
		}
		client, err := srv.hub.Get(ctx.Token)
		if err != nil {
			return srv.err(s, "unknown_viewer", "Unknown viewer")
		}
		reqCtx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		msg, err := srv.room.Post(reqCtx, client, payload.Body)
		if err != nil {
			return srv.err(s, "bad_request", err.Error())
		}
		return map[string]any{"ok": true, "time": msg.Time}
	})

	io.OnError("/", func(s socketio.Conn, e error) {
		log.Error().Str("sid", s.ID()).Err(e).Msg("socket error")
	})
	io.OnDisconnect("/", func(s socketio.Conn, reason string) {
		if ctx, ok := s.Context().(*ConnCtx); ok && ctx.Token != "" {
			srv.removeMember(ctx.Token, s)
		}
		log.Info().Str("sid", s.ID()).Str("reason", reason).Msg("socket disconnected")
	})

	srv.cancelChat = srv.room.Subscribe(func(m quiz.ChatMessage) {
		io.BroadcastToRoom("/", chatRoom, "chat:message", m)
	})

	go func() {
		if err := io.Serve(); err != nil {
			log.Error().Err(err).Msg("socket server stopped")
		}
	}()

	r.GET("/socket.io/*any", gin.WrapH(io))
	r.POST("/socket.io/*any", gin.WrapH(io))

	// Basic CORS preflight for Socket.IO POST
	r.OPTIONS("/socket.io/*any", func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Status(http.StatusNoContent)
	})

	return io
}

// Close stops relaying chat. The socket server itself is closed by its owner.
func (srv *Server) Close() {
	if srv.cancelChat != nil {
		srv.cancelChat()
	}
}

func (srv *Server) addMember(token string, c socketio.Conn) {
	srv.mu.Lock()
	if srv.members[token] == nil {
		srv.members[token] = make(map[string]socketio.Conn)
	}
	_, known := srv.members[token][c.ID()]
	srv.members[token][c.ID()] = c
	srv.mu.Unlock()
	if !known {
		srv.hub.Attach(token)
	}
}

func (srv *Server) removeMember(token string, c socketio.Conn) {
	srv.mu.Lock()
	var removed bool
	if m := srv.members[token]; m != nil {
		_, removed = m[c.ID()]
		delete(m, c.ID())
		if len(m) == 0 {
			delete(srv.members, token)
		}
	}
	srv.mu.Unlock()
	if removed {
		srv.hub.Detach(token)
	}
}

func (srv *Server) attached(token string) int {
	srv.mu.RLock()
	defer srv.mu.RUnlock()
	return len(srv.members[token])
}

func (srv *Server) err(s socketio.Conn, code, message string) map[string]any {
	s.Emit("error", map[string]any{"code": code, "message": message})
	return map[string]any{"error": message}
}
