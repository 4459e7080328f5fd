package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/123hi123/tg-standup-bot/internal/clock"
	"github.com/123hi123/tg-standup-bot/internal/config"
	"github.com/123hi123/tg-standup-bot/internal/domain"
	"github.com/123hi123/tg-standup-bot/internal/metrics"
	"github.com/123hi123/tg-standup-bot/internal/session"
	"github.com/123hi123/tg-standup-bot/internal/store"
	"github.com/123hi123/tg-standup-bot/internal/telegram"
	"github.com/123hi123/tg-standup-bot/internal/tracker"
	"github.com/123hi123/tg-standup-bot/internal/workday"
)

type App struct {
	cfg     config.Config
	log     *zap.Logger
	bot     *tgbotapi.BotAPI
	httpSrv *http.Server

	repo     store.Repo
	sessions *session.Store
	trk      *tracker.Tracker
	sched    *workday.Scheduler
	router   *telegram.Router
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	return &App{cfg: cfg, log: log, bot: bot, httpSrv: srv}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting standup-bot",
		zap.String("http", a.cfg.HTTPAddr),
		zap.Bool("autoSchedule", a.cfg.AutoSchedule),
	)

	repo, err := store.OpenSQLite(ctx, a.cfg.DBPath)
	if err != nil {
		a.log.Error("open sqlite failed", zap.Error(err))
		return err
	}
	a.repo = repo
	a.log.Info("sqlite ready")

	clk := clock.New()
	a.sessions = session.NewStore(clk, domain.Settings{
		SitMinutes:   a.cfg.DefaultSitMinutes,
		StandMinutes: a.cfg.DefaultStandMinutes,
	})
	m := metrics.New(prometheus.DefaultRegisterer, "standup_bot")
	a.trk = tracker.New(a.log, clk, a.sessions, a.repo, telegram.NewNotifier(a.bot), m)

	if a.cfg.AutoSchedule {
		sched, err := a.buildScheduler(clk, m)
		if err != nil {
			a.log.Error("workday scheduler config invalid", zap.Error(err))
			return err
		}
		a.sched = sched
		a.sched.Start()
	}

	a.router = telegram.NewRouter(a.bot, a.log, a.trk, a.repo)
	if err := a.router.RegisterCommands(); err != nil {
		a.log.Warn("register commands failed", zap.Error(err))
	}

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")
			a.shutdown()
			return nil

		case upd := <-updCh:
			a.router.HandleUpdate(ctx, upd)
		}
	}
}

func (a *App) buildScheduler(clk clock.Clock, m *metrics.Metrics) (*workday.Scheduler, error) {
	loc, err := time.LoadLocation(a.cfg.WorkdayTZ)
	if err != nil {
		return nil, err
	}
	startMin, err := domain.ParseClockTime(a.cfg.WorkdayStart)
	if err != nil {
		return nil, err
	}
	endMin, err := domain.ParseClockTime(a.cfg.WorkdayEnd)
	if err != nil {
		return nil, err
	}
	return workday.New(a.log, clk, a.trk, a.repo, a.sessions, m, loc, startMin, endMin), nil
}

func (a *App) shutdown() {
	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err := a.httpSrv.Shutdown(shCtx)
	cancel()
	if err != nil {
		a.log.Warn("http server shutdown error", zap.Error(err))
	}

	if a.sched != nil {
		a.sched.Stop()
	}
	if a.router != nil {
		a.router.Close()
	}
	if a.trk != nil {
		a.trk.Shutdown()
	}
	if a.repo != nil {
		_ = a.repo.Close()
	}
}
