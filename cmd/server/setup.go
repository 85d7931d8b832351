package main

import (
	"context"
	"fmt"

	"github.com/ondacomunitaria/radiotrivia/internal/auth"
	"github.com/ondacomunitaria/radiotrivia/internal/chat"
	"github.com/ondacomunitaria/radiotrivia/internal/config"
	"github.com/ondacomunitaria/radiotrivia/internal/hub"
	"github.com/ondacomunitaria/radiotrivia/internal/localstate"
	"github.com/ondacomunitaria/radiotrivia/internal/notify"
	"github.com/ondacomunitaria/radiotrivia/internal/quiz"
	"github.com/ondacomunitaria/radiotrivia/internal/store"
	"github.com/rs/zerolog/log"
)

type app struct {
	hub     *hub.Hub
	players quiz.PlayerStore
	room    *chat.Room
	closers []func()
}

func (a *app) close() {
	a.hub.CloseAll()
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func setup(ctx context.Context, cfg config.Config) (*app, error) {
	a := &app{}

	bank := quiz.DefaultBank()
	if cfg.BankFile != "" {
		b, err := quiz.LoadBank(cfg.BankFile)
		if err != nil {
			return nil, fmt.Errorf("load question bank: %w", err)
		}
		bank = b
		log.Info().Str("file", cfg.BankFile).Msg("question bank loaded")
	}

	var games quiz.GameStore
	switch cfg.StoreBackend {
	case "memory":
		mem := store.NewMemory()
		games, a.players = mem, mem
	case "postgres":
		pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		a.closers = append(a.closers, pg.Close)
		games, a.players = pg, pg
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.StoreBackend)
	}
	log.Info().Str("store", cfg.StoreBackend).Msg("shared store ready")

	var bus notify.Bus
	switch cfg.EventBus {
	case "none", "":
	case "nats":
		b, err := notify.NewNATS(cfg.NATSURL)
		if err != nil {
			return nil, err
		}
		bus = b
	case "amqp":
		b, err := notify.NewAMQP(cfg.AMQPURL)
		if err != nil {
			return nil, err
		}
		bus = b
	default:
		return nil, fmt.Errorf("unknown event bus %q", cfg.EventBus)
	}
	if bus != nil {
		games = notify.PublishingStore{GameStore: games, Bus: bus}
		a.closers = append(a.closers, func() { _ = bus.Close() })
	}

	var local hub.StateProvider
	if cfg.LocalStatePath != "" {
		db, err := localstate.OpenSQLite(cfg.LocalStatePath)
		if err != nil {
			return nil, fmt.Errorf("open local state: %w", err)
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		local = db
	} else {
		local = localstate.NewMemory()
	}

	var authn quiz.Authenticator
	if cfg.AdminEmail != "" {
		s, err := auth.NewStatic(cfg.AdminEmail, cfg.AdminName, cfg.AdminPasswordHash, cfg.AdminPassword)
		if err != nil {
			return nil, fmt.Errorf("admin account: %w", err)
		}
		authn = s
	} else {
		log.Warn().Msg("ADMIN_EMAIL not set, nobody can run games")
	}

	a.room = chat.NewRoom(nil, chat.DefaultHistory)
	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		m, err := chat.NewTelegramMirror(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Error().Err(err).Msg("telegram mirror disabled")
		} else {
			m.Attach(a.room)
			a.closers = append(a.closers, m.Close)
		}
	}

	exportFile := ""
	if cfg.ExportEnabled {
		exportFile = cfg.ExportFile
	}

	a.hub = hub.New(hub.Options{
		Games:        games,
		Players:      a.players,
		Local:        local,
		Chat:         a.room,
		Auth:         authn,
		Bank:         bank,
		Bus:          bus,
		ActiveWindow: cfg.ActiveWindow,
		ExportFile:   exportFile,
		IdleTimeout:  cfg.IdleTimeout,
	})
	return a, nil
}
