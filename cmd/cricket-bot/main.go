package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/park285/Cheese-Cricket-bot/internal/adapter/cricketpresenter"
	appcfg "github.com/park285/Cheese-Cricket-bot/internal/config"
	"github.com/park285/Cheese-Cricket-bot/internal/cricket"
	"github.com/park285/Cheese-Cricket-bot/internal/irisfast"
	"github.com/park285/Cheese-Cricket-bot/internal/leaderboard"
	"github.com/park285/Cheese-Cricket-bot/internal/msgcat"
	"github.com/park285/Cheese-Cricket-bot/internal/obslog"
	"github.com/park285/Cheese-Cricket-bot/internal/sweeper"
	"go.uber.org/zap"
)

const sendTimeout = 10 * time.Second

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	syncLog, err := obslog.InitFromEnv()
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = syncLog() }()
	logger := obslog.L()

	headers := func() map[string]string {
		h := map[string]string{}
		if cfg.XUserID != "" {
			h["X-User-Id"] = cfg.XUserID
		}
		if cfg.XUserEmail != "" {
			h["X-User-Email"] = cfg.XUserEmail
		}
		if cfg.XSessionID != "" {
			h["X-Session-Id"] = cfg.XSessionID
		}
		return h
	}

	client := irisfast.NewClient(cfg.IrisBaseURL, irisfast.WithHeaderProvider(headers))

	ws := irisfast.NewWebSocket(cfg.IrisWSURL, 5, time.Second)
	// Inject WS handshake headers if required by the server
	ws.SetHeaderProvider(headers)
	ws.OnStateChange(func(state irisfast.WebSocketState) {
		logger.Info("ws_state", zap.String("state", string(state)))
	})
	egress := irisfast.NewEgress(cfg.EgressMode, cfg.EgressDryRun, client, ws, logger)

	board, closeBoard, err := leaderboard.Open(leaderboard.Options{
		Backend:     cfg.LeaderboardBackend,
		RedisURL:    cfg.RedisURL,
		DatabaseURL: cfg.DatabaseURL,
		SQLitePath:  cfg.LeaderboardSQLitePath,
		CacheTTL:    cfg.LeaderboardCacheTTL,
	})
	if err != nil {
		log.Fatalf("leaderboard init error: %v", err)
	}

	rng := cricket.NewCryptoSource()
	if cfg.Seed != 0 {
		rng = cricket.NewSeededSource(cfg.Seed)
		logger.Warn("cricket_seeded_rng", zap.Int64("seed", cfg.Seed))
	}
	engine := cricket.NewEngine(cricket.NewRegistry(), rng, board,
		cricket.WithRules(cricket.Rules{TotalOvers: cfg.TotalOvers, MaxWickets: cfg.MaxWickets}),
		cricket.WithCPUName(cfg.CPUName),
		cricket.WithLogger(logger),
	)
	dispatcher := cricket.NewDispatcher(engine, cfg.LeaderboardSize)

	catalog, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		log.Fatalf("messages init error: %v", err)
	}
	formatter := cricketpresenter.NewFormatter(prefixProvider{prefix: cfg.BotPrefix}, catalog, cricketpresenter.Settings{
		CPUName:    cfg.CPUName,
		TotalOvers: cfg.TotalOvers,
		MaxWickets: cfg.MaxWickets,
	})
	presenterOpts := []cricketpresenter.PresenterOption{cricketpresenter.WithLeaderboardSize(cfg.LeaderboardSize)}
	if cfg.ScorecardImage {
		presenterOpts = append(presenterOpts, cricketpresenter.WithScorecard(cricketpresenter.NewScorecardRenderer()))
	}
	presenter := cricketpresenter.NewPresenter(
		func(room, message string) error {
			ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
			defer cancel()
			return egress.SendText(ctx, room, message)
		},
		func(room, imageBase64 string) error {
			ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
			defer cancel()
			return egress.SendImage(ctx, room, imageBase64)
		},
		formatter,
		presenterOpts...,
	)

	sw := sweeper.New(engine, cfg.MatchIdleTimeout, cfg.MatchSweepInterval, func(s cricket.Snapshot) {
		if err := presenter.Evicted(s.SessionID, cfg.MatchIdleTimeout); err != nil {
			logger.Warn("evict_notice_error", zap.String("room", s.SessionID), zap.Error(err))
		}
	})
	if err := sw.Start(); err != nil {
		log.Fatalf("sweeper start error: %v", err)
	}

	// Command handler
	ws.OnMessage(func(msg *irisfast.Message) {
		if msg == nil || msg.Msg == "" {
			return
		}
		cmd, ok := parseCommand(cfg.BotPrefix, msg.Msg)
		if !ok {
			return
		}
		session, private := route(engine.Registry(), msg.Room, msg.UserID(), cmd)
		// a private number targets a duel that was started in an allowed room
		if !private && !cfg.RoomAllowed(msg.Room) {
			logger.Debug("room_not_allowed", zap.String("room", msg.Room))
			return
		}
		// Avoid blocking the WS loop
		go handleCommand(dispatcher, presenter, logger, msg, session, cmd)
	})

	// Connect WS
	cctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ws.Connect(cctx); err != nil {
		cancel()
		log.Fatalf("ws connect error: %v", err)
	}
	cancel()
	logger.Info("cricket_bot_ready",
		zap.String("prefix", cfg.BotPrefix),
		zap.String("egress", cfg.EgressMode),
		zap.Bool("dryrun", cfg.EgressDryRun),
		zap.Int("total_overs", cfg.TotalOvers),
		zap.Int("max_wickets", cfg.MaxWickets),
	)

	// Wait for termination signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = sw.Stop()
	_ = ws.Close(shutdownCtx)
	if err := closeBoard(); err != nil {
		logger.Warn("leaderboard_close_error", zap.Error(err))
	}
}

// handleCommand runs cmd against session. Replies go to session; a failed private submission is answered
// where it was sent.
func handleCommand(d *cricket.Dispatcher, presenter *cricketpresenter.Presenter, logger *zap.Logger, msg *irisfast.Message, session string, cmd command) {
	room := session
	if cmd.Help {
		if err := presenter.Help(room); err != nil {
			logger.Warn("reply_error", zap.String("room", room), zap.Error(err))
		}
		return
	}

	actor := msg.UserID()
	name := msg.SenderName()
	if name == "" {
		name = actor
	}
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	rep, err := d.Dispatch(ctx, cricket.Event{
		SessionID: room,
		ActorID:   actor,
		ActorName: name,
		Action:    cmd.Action,
		Payload:   cmd.Payload,
	})
	if err != nil {
		logger.Warn("cricket_dispatch_error",
			zap.String("room", room),
			zap.String("from_room", msg.Room),
			zap.String("actor_id", actor),
			zap.String("action", string(cmd.Action)),
			zap.Error(err),
		)
		err = presenter.Failure(msg.Room, err)
	} else {
		err = presenter.Reply(ctx, room, rep)
	}
	if err != nil {
		logger.Warn("reply_error", zap.String("room", room), zap.Error(err))
	}
}

type prefixProvider struct{ prefix string }

func (p prefixProvider) Prefix() string { return p.prefix }
