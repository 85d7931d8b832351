package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ondacomunitaria/radiotrivia/internal/hub"
	"github.com/ondacomunitaria/radiotrivia/internal/quiz"
	"github.com/ondacomunitaria/radiotrivia/internal/store"
	"github.com/rs/zerolog/log"
)

const (
	ViewerHeader = "X-Viewer-Token"
	clientKey    = "client"
)

type ChatRoom interface {
	Post(ctx context.Context, client *quiz.Client, body string) (quiz.ChatMessage, error)
	History(n int) []quiz.ChatMessage
}

type Server struct {
	hub     *hub.Hub
	players quiz.PlayerStore
	chat    ChatRoom
}

func New(h *hub.Hub, players quiz.PlayerStore, chat ChatRoom) *Server {
	return &Server{hub: h, players: players, chat: chat}
}

// Mount registers the REST routes on r.
func (s *Server) Mount(r gin.IRouter) {
	api := r.Group("/api")
	api.POST("/viewers", s.openViewer)
	api.DELETE("/viewers/:token", s.closeViewer)
	api.GET("/ranking", s.ranking)
	api.GET("/chat", s.chatHistory)

	v := api.Group("", s.viewer)
	v.GET("/game/current", s.currentGame)
	v.GET("/winners", s.winners)
	v.POST("/players", s.register)
	v.POST("/players/merge", s.merge)
	v.POST("/answers", s.answer)
	v.POST("/chat", s.chatSend)
	v.POST("/admin/login", s.login)

	admin := v.Group("/admin/game")
	admin.POST("/start", s.startGame)
	admin.POST("/pause", s.gameAction((*quiz.Client).PauseGame))
	admin.POST("/resume", s.gameAction((*quiz.Client).ResumeGame))
	admin.POST("/next", s.gameAction((*quiz.Client).NextQuestion))
	admin.POST("/end", s.gameAction((*quiz.Client).EndGame))
}

// viewer resolves the X-Viewer-Token header to a loaded viewer.
func (s *Server) viewer(c *gin.Context) {
	client, err := s.hub.Get(c.GetHeader(ViewerHeader))
	if err != nil {
		writeError(c, err)
		c.Abort()
		return
	}
	c.Set(clientKey, client)
	c.Next()
}

func clientOf(c *gin.Context) *quiz.Client {
	return c.MustGet(clientKey).(*quiz.Client)
}

func (s *Server) openViewer(c *gin.Context) {
	var req struct {
		Token string `json:"token"`
	}
	// An empty body opens a fresh viewer.
	_ = c.ShouldBindJSON(&req)
	token, client, err := s.hub.Open(c.Request.Context(), req.Token)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":  token,
		"view":   hub.Redact(client.View()),
		"player": client.CurrentPlayer(),
	})
}

func (s *Server) closeViewer(c *gin.Context) {
	if err := s.hub.Close(c.Param("token")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) currentGame(c *gin.Context) {
	c.JSON(http.StatusOK, hub.Redact(clientOf(c).View()))
}

func (s *Server) ranking(c *gin.Context) {
	players, err := store.Ranking(c.Request.Context(), s.players)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"players": quiz.PublicPlayers(players)})
}

func (s *Server) winners(c *gin.Context) {
	top, err := clientOf(c).LastWinners()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"winners": quiz.PublicPlayers(top)})
}

func (s *Server) register(c *gin.Context) {
	var in quiz.RegistrationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}
	p, err := clientOf(c).Register(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"player": p})
}

func (s *Server) merge(c *gin.Context) {
	var req struct {
		PlayerID string `json:"playerId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}
	p, err := clientOf(c).MergeIdentity(c.Request.Context(), req.PlayerID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"player": p.Public()})
}

func (s *Server) answer(c *gin.Context) {
	var req struct {
		QuestionID  string `json:"questionId" binding:"required"`
		AnswerIndex *int   `json:"answerIndex" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}
	res, err := clientOf(c).SubmitAnswer(c.Request.Context(), req.QuestionID, *req.AnswerIndex)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}
	client := clientOf(c)
	name, err := client.LoginAdmin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		log.Warn().Str("viewer", client.ID()).Msg("admin login rejected")
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"admin": name, "view": client.View()})
}

func (s *Server) startGame(c *gin.Context) {
	var in quiz.GameConfigInput
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_config", "message": err.Error()})
			return
		}
	}
	session, err := clientOf(c).StartGame(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

func (s *Server) gameAction(fn func(*quiz.Client, context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		client := clientOf(c)
		if err := fn(client, c.Request.Context()); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, client.View())
	}
}

func (s *Server) chatHistory(c *gin.Context) {
	n, _ := strconv.Atoi(c.Query("limit"))
	c.JSON(http.StatusOK, gin.H{"messages": s.chat.History(n)})
}

func (s *Server) chatSend(c *gin.Context) {
	var req struct {
		Body string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}
	msg, err := s.chat.Post(c.Request.Context(), clientOf(c), req.Body)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

func writeError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "internal"
	var taken *quiz.NameTakenError
	switch {
	case errors.As(err, &taken):
		body := gin.H{"error": "name_taken", "message": err.Error()}
		if taken.Existing != nil {
			body["existing"] = gin.H{"id": taken.Existing.ID, "name": taken.Existing.Name}
		}
		c.JSON(http.StatusConflict, body)
		return
	case errors.Is(err, hub.ErrUnknownViewer):
		status, code = http.StatusNotFound, "unknown_viewer"
	case errors.Is(err, quiz.ErrNotAdmin):
		status, code = http.StatusForbidden, "not_admin"
	case errors.Is(err, quiz.ErrUnauthorized):
		status, code = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, quiz.ErrValidation):
		status, code = http.StatusBadRequest, "validation"
	case errors.Is(err, quiz.ErrConflict):
		status, code = http.StatusConflict, "conflict"
	case errors.Is(err, quiz.ErrUnavailable):
		status, code = http.StatusServiceUnavailable, "unavailable"
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": code, "message": err.Error()})
}
