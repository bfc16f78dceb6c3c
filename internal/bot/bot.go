// Package bot is the Telegram front end: commands, backend selection and
// document uploads handed to the conversion pipeline.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dgallion1/docvoice/internal/config"
	"github.com/dgallion1/docvoice/internal/pipeline"
	"github.com/dgallion1/docvoice/internal/synth"
)

const downloadTimeout = 2 * time.Minute

// API is the subset of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Converter runs one conversion.
type Converter interface {
	Convert(ctx context.Context, req pipeline.Request, deliver pipeline.Deliver) (pipeline.Outcome, error)
}

// Preferences stores each user's backend choice.
type Preferences interface {
	Get(userID string) synth.ID
	Set(userID string, id synth.ID) error
}

type Bot struct {
	api         API
	converter   Converter
	prefs       Preferences
	httpClient  *http.Client
	maxDownload int64
	workDir     string
	log         *slog.Logger

	wg sync.WaitGroup
}

func New(api API, converter Converter, prefs Preferences, cfg config.Config, log *slog.Logger) *Bot {
	return &Bot{
		api:         api,
		converter:   converter,
		prefs:       prefs,
		httpClient:  &http.Client{Timeout: downloadTimeout},
		maxDownload: cfg.MaxUploadBytes,
		workDir:     cfg.WorkDir,
		log:         log,
	}
}

// RegisterCommands publishes the command list shown in Telegram clients.
func (b *Bot) RegisterCommands() error {
	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		return fmt.Errorf("set commands: %w", err)
	}
	return nil
}

// Run handles updates until ctx is done or the channel closes, then waits
// for in-flight handlers. Each update is handled in its own goroutine.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) error {
	defer b.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.HandleUpdate(ctx, update)
			}()
		}
	}
}

// HandleUpdate dispatches one update. Panics are logged, not propagated.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("update handler panic", "update_id", update.UpdateID, "panic", fmt.Sprint(r))
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	switch {
	case msg.IsCommand():
		b.handleCommand(msg)
	case msg.Document != nil:
		b.handleDocument(ctx, msg)
	case msg.Text != "":
		b.reply(msg.Chat.ID, chatReply(firstName(msg.From), msg.Text))
	}
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	userID := userKey(msg.From)
	args := msg.CommandArguments()

	switch msg.Command() {
	case "start":
		b.replyMarkup(chatID, welcomeText(firstName(msg.From)), startKeyboard())
	case "help":
		b.reply(chatID, helpText)
	case "echo":
		if args == "" {
			b.reply(chatID, echoUsage)
			return
		}
		b.reply(chatID, "Echo: "+args)
	case "pdf2mp3":
		b.reply(chatID, pdf2mp3Text)
	case "extract":
		b.reply(chatID, extractText)
	case "tts_model":
		if args == "" {
			b.reply(chatID, modelUsage(b.prefs.Get(userID)))
			return
		}
		id, ok := synth.ParseID(args)
		if !ok {
			b.reply(chatID, invalidModel)
			return
		}
		if err := b.prefs.Set(userID, id); err != nil {
			b.log.Warn("set preference", "user_id", userID, "error", err)
			b.reply(chatID, invalidModel)
			return
		}
		b.reply(chatID, modelSetText(id))
	case "current_model":
		b.reply(chatID, currentModelText(b.prefs.Get(userID)))
	default:
		b.reply(chatID, unknownCommand)
	}
}

func (b *Bot) handleCallback(q *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
		b.log.Warn("answer callback", "error", err)
	}
	if q.Message == nil {
		return
	}

	chatID := q.Message.Chat.ID
	messageID := q.Message.MessageID
	userID := userKey(q.From)

	data := q.Data
	if mapped, ok := legacyCallbacks[data]; ok {
		data = mapped
	}

	switch data {
	case cbDirect, cbEnhanced:
		id := synth.IDDirect
		if data == cbEnhanced {
			id = synth.IDEnhanced
		}
		if err := b.prefs.Set(userID, id); err != nil {
			b.log.Warn("set preference", "user_id", userID, "error", err)
			return
		}
		b.edit(tgbotapi.NewEditMessageText(chatID, messageID, selectedText(id)))
	case cbModelInfo:
		b.edit(tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, modelInfoText(), modelInfoKeyboard()))
	case cbHelpInfo:
		b.edit(tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, shortHelpText, helpKeyboard()))
	case cbBackToStart:
		b.edit(tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, welcomeText(firstName(q.From)), startKeyboard()))
	default:
		b.log.Warn("unknown callback", "data", q.Data)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.log.Warn("send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) replyMarkup(chatID int64, text string, markup tgbotapi.InlineKeyboardMarkup) {
	m := tgbotapi.NewMessage(chatID, text)
	m.ReplyMarkup = markup
	if _, err := b.api.Send(m); err != nil {
		b.log.Warn("send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) edit(c tgbotapi.EditMessageTextConfig) {
	if _, err := b.api.Request(c); err != nil {
		b.log.Warn("edit message", "chat_id", c.ChatID, "error", err)
	}
}

func userKey(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	return strconv.FormatInt(u.ID, 10)
}

func firstName(u *tgbotapi.User) string {
	if u == nil || u.FirstName == "" {
		return "there"
	}
	return u.FirstName
}
