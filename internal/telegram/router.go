package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"

	"github.com/123hi123/tg-standup-bot/internal/domain"
	"github.com/123hi123/tg-standup-bot/internal/store"
	"github.com/123hi123/tg-standup-bot/internal/tracker"
)

// pendingTTL bounds how long a /settings prompt waits for the two numbers.
const pendingTTL = 5 * time.Minute

// Router wires Telegram updates to the tracker and the registry.
type Router struct {
	bot      *tgbotapi.BotAPI
	log      *zap.Logger
	trk      *tracker.Tracker
	registry store.Repo
	pending  *ttlcache.Cache[int64, struct{}] // userID -> awaiting settings text
}

func NewRouter(bot *tgbotapi.BotAPI, log *zap.Logger, trk *tracker.Tracker, registry store.Repo) *Router {
	pending := ttlcache.New(
		ttlcache.WithTTL[int64, struct{}](pendingTTL),
		ttlcache.WithDisableTouchOnHit[int64, struct{}](),
	)
	go pending.Start()
	return &Router{
		bot:      bot,
		log:      log,
		trk:      trk,
		registry: registry,
		pending:  pending,
	}
}

// Close stops the pending-input janitor.
func (r *Router) Close() {
	r.pending.Stop()
}

// RegisterCommands publishes the command menu to Telegram.
func (r *Router) RegisterCommands() error {
	cmds := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "begin a sit/stand cycle"},
		tgbotapi.BotCommand{Command: "stop", Description: "end the current cycle"},
		tgbotapi.BotCommand{Command: "status", Description: "current state and elapsed time"},
		tgbotapi.BotCommand{Command: "settings", Description: "view or change durations"},
		tgbotapi.BotCommand{Command: "autosit", Description: "toggle weekday auto-start"},
		tgbotapi.BotCommand{Command: "help", Description: "list commands"},
	)
	_, err := r.bot.Request(cmds)
	return err
}

// HandleUpdate routes a single update to the appropriate handler.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message != nil {
		msg := upd.Message
		if msg.From == nil {
			return
		}
		userID := msg.From.ID
		chatID := msg.Chat.ID
		text := strings.TrimSpace(msg.Text)

		// Any command supersedes a half-finished settings prompt.
		if strings.HasPrefix(text, "/") {
			r.pending.Delete(userID)
		}

		switch {
		case strings.HasPrefix(text, "/start"):
			r.handleStart(ctx, userID, chatID)
		case strings.HasPrefix(text, "/stop"):
			r.handleStop(userID, chatID)
		case strings.HasPrefix(text, "/status"):
			r.handleStatus(userID, chatID)
		case strings.HasPrefix(text, "/settings"):
			r.handleSettings(userID, chatID, strings.TrimSpace(strings.TrimPrefix(text, "/settings")))
		case strings.HasPrefix(text, "/autosit"):
			r.handleAutoSit(ctx, userID, chatID)
		case strings.HasPrefix(text, "/help"):
			r.sendText(chatID, helpText)
		default:
			r.handleFreeForm(userID, chatID, text)
		}
		return
	}

	if upd.CallbackQuery != nil {
		cb := upd.CallbackQuery
		if cb.From == nil || cb.Message == nil {
			return
		}
		userID := cb.From.ID
		chatID := cb.Message.Chat.ID

		switch cb.Data {
		case tracker.TagStandEarly:
			r.answerCallback(cb.ID, "")
			if err := r.trk.StandEarly(userID); err != nil {
				r.replyActionError(chatID, err)
			}
		case tracker.TagStandAck:
			r.answerCallback(cb.ID, "")
			if err := r.trk.AckStand(userID); err != nil {
				r.replyActionError(chatID, err)
			}
		case tracker.TagSitDown:
			r.answerCallback(cb.ID, "")
			if err := r.trk.SitDown(userID); err != nil {
				r.replyActionError(chatID, err)
			}
		case cbAutoSitOn:
			r.answerCallback(cb.ID, "")
			r.setAutoSit(ctx, userID, chatID, true)
		case cbAutoSitOff:
			r.answerCallback(cb.ID, "")
			r.setAutoSit(ctx, userID, chatID, false)
		default:
			// Unknown callback — ignore silently
		}
	}
}

func (r *Router) sendText(chatID int64, text string) {
	_, _ = r.bot.Send(tgbotapi.NewMessage(chatID, text))
}

func (r *Router) answerCallback(id, text string) {
	if _, err := r.bot.Request(tgbotapi.NewCallback(id, text)); err != nil {
		r.log.Debug("answer callback failed", zap.Error(err))
	}
}

// replyActionError maps tracker errors from button presses to user text.
// Stale buttons on old messages are the common case.
func (r *Router) replyActionError(chatID int64, err error) {
	if errors.Is(err, tracker.ErrNotStarted) {
		r.sendText(chatID, notRunningText)
	}
}

// --- Commands ---

func (r *Router) handleStart(ctx context.Context, userID, chatID int64) {
	if _, err := r.registry.Get(ctx, userID); errors.Is(err, store.ErrNotFound) {
		r.sendText(chatID, welcomeText)
	}
	err := r.trk.Start(ctx, userID, chatID)
	switch {
	case errors.Is(err, tracker.ErrAlreadyActive):
		r.sendText(chatID, alreadyRunningText)
	case err != nil:
		r.log.Error("start failed", zap.Int64("userID", userID), zap.Error(err))
		r.sendText(chatID, genericErrText)
	}
}

func (r *Router) handleStop(userID, chatID int64) {
	if err := r.trk.Stop(userID); errors.Is(err, tracker.ErrNotStarted) {
		r.sendText(chatID, notRunningText)
	}
}

func (r *Router) handleStatus(userID, chatID int64) {
	st, elapsed, err := r.trk.Status(userID)
	if err != nil {
		r.sendText(chatID, idleStatusText)
		return
	}
	s := r.trk.Settings(userID)
	r.sendText(chatID, fmt.Sprintf(statusFmt, st.Label(), elapsed, s.SitMinutes, s.StandMinutes))
}

// handleSettings accepts the durations inline ("/settings 45 5") or prompts
// for them and waits for the next message.
func (r *Router) handleSettings(userID, chatID int64, args string) {
	if args != "" {
		r.applySettings(userID, chatID, args)
		return
	}
	s := r.trk.Settings(userID)
	r.pending.Set(userID, struct{}{}, ttlcache.DefaultTTL)
	r.sendText(chatID, fmt.Sprintf(settingsFmt, s.SitMinutes, s.StandMinutes))
}

func (r *Router) handleFreeForm(userID, chatID int64, text string) {
	if r.pending.Get(userID) == nil {
		return // no pending flow
	}
	r.pending.Delete(userID)
	r.applySettings(userID, chatID, text)
}

func (r *Router) applySettings(userID, chatID int64, text string) {
	sit, stand, err := domain.ParseSettings(text)
	if err != nil {
		r.sendText(chatID, settingsUsageText)
		return
	}
	if err := r.trk.UpdateSettings(userID, sit, stand); err != nil {
		r.sendText(chatID, settingsUsageText)
		return
	}
	r.sendText(chatID, fmt.Sprintf(settingsSavedFmt, sit, stand))
}

func (r *Router) handleAutoSit(ctx context.Context, userID, chatID int64) {
	u, err := r.registry.Get(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		// Register on first contact so the toggle has a row to flip.
		if err := r.registry.RegisterOrTouch(ctx, userID, chatID); err != nil {
			r.log.Error("register failed", zap.Int64("userID", userID), zap.Error(err))
			r.sendText(chatID, genericErrText)
			return
		}
		u, err = r.registry.Get(ctx, userID)
	}
	if err != nil {
		r.log.Error("autosit lookup failed", zap.Int64("userID", userID), zap.Error(err))
		r.sendText(chatID, genericErrText)
		return
	}

	state := "off"
	if u.AutoSit {
		state = "on"
	}
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(autoSitFmt, state))
	msg.ReplyMarkup = autoSitKeyboard(u.AutoSit)
	_, _ = r.bot.Send(msg)
}

func (r *Router) setAutoSit(ctx context.Context, userID, chatID int64, enabled bool) {
	err := r.registry.SetAutoSit(ctx, userID, enabled)
	if errors.Is(err, store.ErrNotFound) {
		r.sendText(chatID, notRegistered)
		return
	}
	if err != nil {
		r.log.Error("autosit update failed", zap.Int64("userID", userID), zap.Error(err))
		r.sendText(chatID, genericErrText)
		return
	}
	if enabled {
		r.sendText(chatID, autoSitOnText)
	} else {
		r.sendText(chatID, autoSitOffText)
	}
}
