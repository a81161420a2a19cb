package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"reversion_bot/internal/modules/config"
	"reversion_bot/pkg/logger"
)

const (
	maxMessageLen = 4096
	alertAttempts = 3
)

// botAPI is the part of *tgbot.BotAPI the service uses.
type botAPI interface {
	Send(c tgbot.Chattable) (tgbot.Message, error)
	GetUpdatesChan(config tgbot.UpdateConfig) tgbot.UpdatesChannel
	StopReceivingUpdates()
}

// CommandHandler renders the reply to a chat command.
type CommandHandler func(ctx context.Context) string

// Telegram delivers notifications to one chat and answers its commands.
// Without a token it only logs.
type Telegram struct {
	bot    botAPI
	chatID int64

	mu       sync.RWMutex
	commands map[string]CommandHandler

	retryDelay time.Duration
	done       chan struct{}
}

func NewTelegram(cfg *config.Config) (*Telegram, error) {
	t := &Telegram{
		chatID:     cfg.Telegram.ChatID,
		commands:   make(map[string]CommandHandler),
		retryDelay: time.Second,
	}
	if cfg.Telegram.Token == "" {
		logger.Warn("[TELEGRAM] no token configured, notifications go to the log only")
		return t, nil
	}
	b, err := tgbot.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	t.bot = b
	return t, nil
}

// Send delivers msg to the configured chat.
func (t *Telegram) Send(ctx context.Context, msg string) error {
	logger.Info("[NOTIFY] %s", msg)
	return t.send(ctx, t.chatID, msg)
}

// SendF formats and sends.
func (t *Telegram) SendF(ctx context.Context, format string, args ...any) error {
	return t.Send(ctx, fmt.Sprintf(format, args...))
}

// Alert delivers an operator alert, retrying transient send failures.
func (t *Telegram) Alert(ctx context.Context, msg string) error {
	logger.Error("[ALERT] %s", msg)
	var err error
	for attempt := 1; attempt <= alertAttempts; attempt++ {
		if err = t.send(ctx, t.chatID, msg); err == nil {
			return nil
		}
		if attempt == alertAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(t.retryDelay):
		}
	}
	return fmt.Errorf("alert after %d attempts: %w", alertAttempts, err)
}

func (t *Telegram) send(ctx context.Context, chatID int64, text string) error {
	if t.bot == nil || chatID == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := t.bot.Send(tgbot.NewMessage(chatID, truncate(text, maxMessageLen)))
	return err
}

// truncate cuts text to at most limit bytes on a rune boundary, marking the cut with "...".
func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := limit - 3
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}

// RegisterCommand binds /name to handler. Names are case-insensitive.
func (t *Telegram) RegisterCommand(name string, handler func(ctx context.Context) string) {
	t.mu.Lock()
	t.commands[strings.ToLower(name)] = handler
	t.mu.Unlock()
}

func (t *Telegram) command(name string) (CommandHandler, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok := t.commands[strings.ToLower(name)]
	return h, ok
}

func (t *Telegram) commandNames() []string {
	t.mu.RLock()
	names := make([]string, 0, len(t.commands))
	for name := range t.commands {
		names = append(names, "/"+name)
	}
	t.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Start polls updates until Stop or ctx is done.
func (t *Telegram) Start(ctx context.Context) {
	if t.bot == nil {
		return
	}
	t.done = make(chan struct{})
	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	updates := t.bot.GetUpdatesChan(u)

	go func() {
		defer close(t.done)
		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				t.handleUpdate(ctx, update)
			}
		}
	}()
}

func (t *Telegram) Stop() {
	if t.bot == nil || t.done == nil {
		return
	}
	t.bot.StopReceivingUpdates()
	<-t.done
}
