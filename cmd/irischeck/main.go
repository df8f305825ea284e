package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	appcfg "github.com/park285/Cheese-Cricket-bot/internal/config"
	"github.com/park285/Cheese-Cricket-bot/internal/irisfast"
	"github.com/park285/Cheese-Cricket-bot/internal/leaderboard"
	"github.com/park285/Cheese-Cricket-bot/internal/obslog"
	"go.uber.org/zap"
)

// irischeck probes the Iris endpoints and the configured leaderboard with the bot's own config.
func main() {
	watch := flag.Duration("watch", 10*time.Second, "how long to print WS messages; 0 skips the WS check")
	flag.Parse()

	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	opts := obslog.OptionsFromEnv()
	opts.ToFile = false
	syncLog, err := obslog.Init(opts)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = syncLog() }()
	logger := obslog.L()

	headers := func() map[string]string {
		m := map[string]string{}
		if cfg.XUserID != "" {
			m["X-User-Id"] = cfg.XUserID
		}
		if cfg.XUserEmail != "" {
			m["X-User-Email"] = cfg.XUserEmail
		}
		if cfg.XSessionID != "" {
			m["X-Session-Id"] = cfg.XSessionID
		}
		return m
	}

	client := irisfast.NewClient(cfg.IrisBaseURL,
		irisfast.WithHeaderProvider(headers),
		irisfast.WithTimeout(8*time.Second),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if irisCfg, err := client.GetConfig(ctx); err != nil {
		logger.Error("iris_config_error", zap.Error(err))
	} else {
		logger.Info("iris_config_ok",
			zap.Int("port", irisCfg.Port),
			zap.Int("polling", irisCfg.PollingSpeed),
			zap.Int("rate", irisCfg.MessageRate),
			zap.String("endpoint", irisCfg.WebserverEndpoint),
		)
	}

	checkLeaderboard(ctx, cfg, logger)

	if *watch <= 0 {
		return
	}

	ws := irisfast.NewWebSocket(cfg.IrisWSURL, 0, time.Second)
	// Propagate headers to WS handshake if needed
	ws.SetHeaderProvider(headers)
	ws.OnStateChange(func(state irisfast.WebSocketState) {
		logger.Info("ws_state", zap.String("state", string(state)))
	})
	ws.OnMessage(func(msg *irisfast.Message) {
		prefixed := strings.HasPrefix(strings.TrimSpace(msg.Msg), cfg.BotPrefix)
		fmt.Printf("WS msg room=%s from=%s prefixed=%v text=%q\n", msg.Room, msg.UserID(), prefixed, msg.Msg)
	})

	cctx, ccancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer ccancel()
	if err := ws.Connect(cctx); err != nil {
		logger.Error("ws_connect_error", zap.Error(err))
		return
	}

	// Observe for a short window
	t := time.NewTimer(*watch)
	<-t.C

	_ = ws.Close(context.Background())
}

func checkLeaderboard(ctx context.Context, cfg *appcfg.AppConfig, logger *zap.Logger) {
	board, closeBoard, err := leaderboard.Open(leaderboard.Options{
		Backend:     cfg.LeaderboardBackend,
		RedisURL:    cfg.RedisURL,
		DatabaseURL: cfg.DatabaseURL,
		SQLitePath:  cfg.LeaderboardSQLitePath,
	})
	if err != nil {
		logger.Error("leaderboard_open_error", zap.Error(err))
		return
	}
	defer func() { _ = closeBoard() }()

	rows, err := board.TopN(ctx, cfg.LeaderboardSize)
	if err != nil {
		logger.Error("leaderboard_read_error", zap.Error(err))
		return
	}
	logger.Info("leaderboard_ok", zap.Int("rows", len(rows)))
	for i, r := range rows {
		fmt.Printf("%d. %s (%s) %d\n", i+1, r.Name, r.ParticipantID, r.Wins)
	}
}
