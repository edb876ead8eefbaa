package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jaminalder/tictactoe/internal/app"
	"github.com/jaminalder/tictactoe/internal/web"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address (ADDR overrides)")
	levelStr := flag.String("log-level", "info", "debug|info|warn|error")
	delay := flag.Duration("computer-delay", 500*time.Millisecond, "computer thinking time")
	seed := flag.Int64("seed", 0, "seed for the computer's random choices (0 = clock)")
	heartbeat := flag.Duration("heartbeat", 15*time.Second, "SSE/WebSocket keep-alive interval")
	origins := flag.String("allowed-origins", "*", "comma separated CORS origins for /api")
	flag.Parse()

	if v := os.Getenv("ADDR"); v != "" {
		*addr = v
	}
	logFile := initLogger(*levelStr)
	if logFile != nil {
		defer logFile.Close()
	}

	svc := app.NewService(app.Config{
		ComputerDelay: *delay,
		Seed:          *seed,
		Logger:        log.Logger,
	})
	handler := web.NewServer(svc, web.Config{
		Heartbeat:      *heartbeat,
		AllowedOrigins: strings.Split(*origins, ","),
		Logger:         log.Logger,
	})

	srv := &http.Server{
		Addr:              *addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	// ends SSE/WebSocket streams and pending computer replies
	srv.RegisterOnShutdown(svc.Close)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", *addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}

// initLogger sets the global logger. With LOGGING=true it also appends JSON
// lines to tictactoe.log and returns the open file.
func initLogger(level string) *os.File {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if os.Getenv("LOGGING") != "true" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}).
			With().Timestamp().Logger()
		return nil
	}
	f, err := os.OpenFile("tictactoe.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o664)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open log file")
	}
	multi := zerolog.MultiLevelWriter(f, os.Stdout)
	log.Logger = zerolog.New(multi).With().Timestamp().Logger()
	return f
}
