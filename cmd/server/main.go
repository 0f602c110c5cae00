package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jhavelka/conquest-backend/internal/config"
	"github.com/jhavelka/conquest-backend/internal/httpapi"
	"github.com/jhavelka/conquest-backend/internal/quiz"
	"github.com/jhavelka/conquest-backend/internal/registry"
	"github.com/jhavelka/conquest-backend/internal/scenario"
	"github.com/jhavelka/conquest-backend/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	var log *zap.Logger
	if cfg.Debug {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	questions, err := quiz.LoadQuestions(cfg.QuestionBank)
	if err != nil {
		log.Fatal("load question bank", zap.Error(err))
	}
	numeric, err := quiz.LoadNumericQuestions(cfg.NumericBank)
	if err != nil {
		log.Fatal("load numeric bank", zap.Error(err))
	}
	log.Info("question banks loaded",
		zap.Int("multiple_choice", len(questions)), zap.Int("numeric", len(numeric)))

	orch := scenario.New(log, questions, numeric, scenario.DefaultTimings())
	reg := registry.New(log, orch.Run, cfg.RoomGrace)
	wsHandler := ws.New(log, reg, cfg.AllowedOrigins)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: httpapi.SetupRoutes(reg, wsHandler),
	}

	go func() {
		log.Info("listening", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}
