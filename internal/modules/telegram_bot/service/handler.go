package service

import (
	"context"
	"strings"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"reversion_bot/pkg/logger"
)

func (t *Telegram) handleUpdate(ctx context.Context, update tgbot.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil || !msg.IsCommand() {
		return
	}
	chatID := msg.Chat.ID
	if t.chatID != 0 && chatID != t.chatID {
		logger.Warn("[TELEGRAM] ignoring /%s from chat %d", msg.Command(), chatID)
		return
	}

	reply := t.reply(ctx, msg.Command())
	if err := t.send(ctx, chatID, reply); err != nil {
		logger.Error("[TELEGRAM] reply /%s: %v", msg.Command(), err)
	}
}

func (t *Telegram) reply(ctx context.Context, command string) string {
	switch command {
	case "start", "help":
		return "🤖 Bollinger/RSI reversion bot\nCommands: " + strings.Join(t.commandNames(), " ")
	}
	if h, ok := t.command(command); ok {
		return h(ctx)
	}
	return "Unknown command /" + command + ", try /help"
}
