package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/RZKGWIXX/March/config"
	"github.com/RZKGWIXX/March/internal/httpapi"
	"github.com/RZKGWIXX/March/internal/message"
	messagerepo "github.com/RZKGWIXX/March/internal/message/repository"
	messageusecase "github.com/RZKGWIXX/March/internal/message/usecase"
	"github.com/RZKGWIXX/March/internal/moderation"
	moderationrepo "github.com/RZKGWIXX/March/internal/moderation/repository"
	moderationusecase "github.com/RZKGWIXX/March/internal/moderation/usecase"
	"github.com/RZKGWIXX/March/internal/presence"
	roommodel "github.com/RZKGWIXX/March/internal/room/model"
	roomrepo "github.com/RZKGWIXX/March/internal/room/repository"
	roomusecase "github.com/RZKGWIXX/March/internal/room/usecase"
	"github.com/RZKGWIXX/March/internal/store"
	"github.com/RZKGWIXX/March/internal/store/bunstore"
	"github.com/RZKGWIXX/March/internal/store/memory"
	"github.com/RZKGWIXX/March/internal/store/redisstore"
	userrepo "github.com/RZKGWIXX/March/internal/user/repository"
	userusecase "github.com/RZKGWIXX/March/internal/user/usecase"
	"github.com/RZKGWIXX/March/internal/ws"
	"github.com/RZKGWIXX/March/pkg/errors"
	"github.com/RZKGWIXX/March/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	v, err := config.LoadConfig("config")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg, err := config.ParseConfig(v)
	if err != nil {
		log.Fatalf("parse config: %v", err)
	}

	appLogger, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	st, err := openStore(cfg)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	if cfg.Store.TimeoutMS > 0 {
		st = store.WithTimeout(st, time.Duration(cfg.Store.TimeoutMS)*time.Millisecond)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	userRepository := userrepo.NewUserRepository(st, appLogger)
	roomRepository := roomrepo.NewRoomRepository(st, appLogger)
	moderationRepository := moderationrepo.NewModerationRepository(st, appLogger)
	messageRepository := messagerepo.NewMessageRepository(st, appLogger)

	tracker := presence.NewTracker()
	hub := ws.NewHub(tracker, appLogger)

	users := userusecase.NewUserUsecase(userRepository, roomRepository, messageRepository,
		tracker, hub, cfg, appLogger)
	engine := moderationusecase.NewEngine(ctx, moderationRepository, users, cfg, appLogger)
	rooms := roomusecase.NewRoomUsecase(roomRepository, messageRepository, appLogger)
	pipeline := messageusecase.NewPipeline(messageRepository, rooms, engine, hub, cfg, appLogger)

	hub.OnJoin = func(ctx context.Context, nick, roomName string) error {
		ban, err := engine.LoginBan(ctx, nick, "")
		if err != nil {
			return err
		}
		if ban != nil {
			rej := moderation.Reject(moderation.ReasonBanned, "you are banned")
			rej.Until = ban.Until
			return rej
		}
		if roomName == roommodel.General {
			return nil
		}
		member, err := rooms.IsMember(ctx, roomName, nick)
		if err != nil {
			return err
		}
		if !member {
			return errors.ErrNotMember
		}
		return nil
	}
	hub.OnMessage = func(ctx context.Context, nick, roomName, text string) error {
		_, err := pipeline.Send(ctx, roomName, nick, text, message.SendOptions{})
		return err
	}

	gateway := httpapi.NewCookieGateway(sessionSecret(appLogger))
	srv := &httpapi.Server{
		Users:    users,
		Rooms:    rooms,
		Pipeline: pipeline,
		Mod:      engine,
		Hub:      hub,
		Gateway:  gateway,
		Issuer:   gateway,
		Cfg:      cfg,
		Logger:   appLogger,
	}

	httpServer := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: srv.Routes(),
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		appLogger.Info("server listening", "port", cfg.Server.Port, "store", cfg.Store.Backend)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-done
	appLogger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("shutdown failed", "error", err)
	}
}

func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case "redis":
		return redisstore.New(cfg.Store.RedisAddr), nil
	case "postgres":
		return bunstore.New(cfg.Store.DSN)
	default:
		return memory.New(), nil
	}
}

// sessionSecret reads SESSION_SECRET, generating an ephemeral one when
// unset. Ephemeral secrets invalidate every session on restart.
func sessionSecret(l *logger.Logger) string {
	if s := os.Getenv("SESSION_SECRET"); s != "" {
		return s
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		log.Fatalf("generate session secret: %v", err)
	}
	l.Warn("SESSION_SECRET not set, sessions will not survive restarts")
	return hex.EncodeToString(buf)
}
