package sinks

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tender-scraper/models"
)

// Telegram rejects photo captions longer than this.
const maxCaptionRunes = 1024

// Notifier delivers a formatted listing to the chat channel.
type Notifier interface {
	Notify(ctx context.Context, source models.Source, text string) error
}

// TelegramConfig configures TelegramNotifier.
type TelegramConfig struct {
	Token     string
	ChatID    int64
	Topics    map[models.Source]int
	PhotoPath string
	Client    *http.Client
}

// TelegramNotifier posts HTML messages to a forum channel, one topic per
// source, with an optional photo attached.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	topics map[models.Source]int
	photo  string
}

// NewTelegramNotifier authenticates the bot token (getMe) before returning.
func NewTelegramNotifier(cfg TelegramConfig) (*TelegramNotifier, error) {
	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}
	bot, err := tgbotapi.NewBotAPIWithClient(cfg.Token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("telegram: connect: %w", err)
	}
	return &TelegramNotifier{
		bot:    bot,
		chatID: cfg.ChatID,
		topics: cfg.Topics,
		photo:  cfg.PhotoPath,
	}, nil
}

// Notify sends text to the source's topic. The photo is attached when the
// file exists and the text fits in a caption.
func (n *TelegramNotifier) Notify(ctx context.Context, source models.Source, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := tgbotapi.Params{}
	params.AddNonEmpty("chat_id", strconv.FormatInt(n.chatID, 10))
	params.AddNonEmpty("parse_mode", tgbotapi.ModeHTML)
	params.AddNonZero("message_thread_id", n.topics[source])

	if n.photoUsable() && utf8.RuneCountInString(text) <= maxCaptionRunes {
		params.AddNonEmpty("caption", text)
		files := []tgbotapi.RequestFile{{Name: "photo", Data: tgbotapi.FilePath(n.photo)}}
		if _, err := n.bot.UploadFiles("sendPhoto", params, files); err != nil {
			return fmt.Errorf("telegram: send photo: %w", err)
		}
		return nil
	}

	params.AddNonEmpty("text", text)
	params.AddBool("disable_web_page_preview", true)
	if _, err := n.bot.MakeRequest("sendMessage", params); err != nil {
		return fmt.Errorf("telegram: send message: %w", err)
	}
	return nil
}

func (n *TelegramNotifier) photoUsable() bool {
	if n.photo == "" {
		return false
	}
	info, err := os.Stat(n.photo)
	return err == nil && !info.IsDir()
}
