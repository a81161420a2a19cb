package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type botStub struct {
	sent    []tgbot.MessageConfig
	failN   int
	updates chan tgbot.Update
}

func (b *botStub) Send(c tgbot.Chattable) (tgbot.Message, error) {
	if b.failN > 0 {
		b.failN--
		return tgbot.Message{}, errors.New("Too Many Requests: retry after 1")
	}
	b.sent = append(b.sent, c.(tgbot.MessageConfig))
	return tgbot.Message{MessageID: len(b.sent)}, nil
}

func (b *botStub) GetUpdatesChan(tgbot.UpdateConfig) tgbot.UpdatesChannel {
	return b.updates
}

func (b *botStub) StopReceivingUpdates() {
	close(b.updates)
}

func newStubbed(chatID int64) (*Telegram, *botStub) {
	bot := &botStub{updates: make(chan tgbot.Update, 4)}
	return &Telegram{
		bot:      bot,
		chatID:   chatID,
		commands: make(map[string]CommandHandler),
	}, bot
}

func command(chatID int64, text string) tgbot.Update {
	return tgbot.Update{Message: &tgbot.Message{
		Chat:     &tgbot.Chat{ID: chatID},
		Text:     text,
		Entities: []tgbot.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}},
	}}
}

func TestSendWithoutBotIsNoop(t *testing.T) {
	tg := &Telegram{chatID: 42, commands: map[string]CommandHandler{}}
	assert.NoError(t, tg.Send(context.Background(), "hello"))
	assert.NoError(t, tg.Alert(context.Background(), "hello"))
}

func TestSendTargetsConfiguredChat(t *testing.T) {
	tg, bot := newStubbed(42)
	require.NoError(t, tg.SendF(context.Background(), "📥 [%s] opened", "XYZUSDT"))

	require.Len(t, bot.sent, 1)
	assert.EqualValues(t, 42, bot.sent[0].ChatID)
	assert.Equal(t, "📥 [XYZUSDT] opened", bot.sent[0].Text)
}

func TestAlertRetries(t *testing.T) {
	tg, bot := newStubbed(42)
	bot.failN = 2

	require.NoError(t, tg.Alert(context.Background(), "🚨 UNPROTECTED"))
	assert.Len(t, bot.sent, 1)

	bot.failN = 3
	assert.Error(t, tg.Alert(context.Background(), "🚨 UNPROTECTED"))
}

func TestCommandsAnswerConfiguredChatOnly(t *testing.T) {
	tg, bot := newStubbed(42)
	tg.RegisterCommand("status", func(context.Context) string { return "📭 No tracked positions" })

	ctx := context.Background()
	tg.handleUpdate(ctx, command(7, "/status"))
	assert.Empty(t, bot.sent)

	tg.handleUpdate(ctx, command(42, "/status"))
	tg.handleUpdate(ctx, command(42, "/help"))
	tg.handleUpdate(ctx, command(42, "/nope"))

	require.Len(t, bot.sent, 3)
	assert.Equal(t, "📭 No tracked positions", bot.sent[0].Text)
	assert.Contains(t, bot.sent[1].Text, "/status")
	assert.Contains(t, bot.sent[2].Text, "Unknown command /nope")
}

func TestStartStop(t *testing.T) {
	tg, bot := newStubbed(42)
	tg.RegisterCommand("cooldowns", func(context.Context) string { return "No active cooldowns" })

	tg.Start(context.Background())
	bot.updates <- command(42, "/cooldowns")
	tg.Stop()

	require.Len(t, bot.sent, 1)
	assert.Equal(t, "No active cooldowns", bot.sent[0].Text)
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "a\nb", Lines("a", " ", "b"))
	assert.Equal(t, "0.01%", Pct(0.0001))
	assert.Equal(t, "-1.25%", Pct(-0.0125))
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))

	text := strings.Repeat("a", 6) + "🚨🚨"
	got := truncate(text, 12)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "aaaaaa...", got)
	assert.LessOrEqual(t, len(got), 12)

	long := strings.Repeat("📥", maxMessageLen)
	got = truncate(long, maxMessageLen)
	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, len(got), maxMessageLen)
	assert.True(t, strings.HasSuffix(got, "..."))
}
