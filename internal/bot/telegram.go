package bot

import (
	"context"
	"errors"

	"github.com/Yvann20/Flask/internal/logger"
	"github.com/Yvann20/Flask/internal/metrics"
	"github.com/Yvann20/Flask/internal/services"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const pollTimeoutSeconds = 60

// sender is the part of tgbotapi.BotAPI used to deliver replies.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type dispatcher interface {
	Enqueue(key int64, job services.Job) error
}

// Bot long-polls Telegram and hands every update to the Handler through the
// job queue. Updates are keyed by chat so one chat is served in order.
type Bot struct {
	api     *tgbotapi.BotAPI
	sender  sender
	handler *Handler
	queue   dispatcher
	metrics *metrics.Registry
}

func NewBot(token string, handler *Handler, queue dispatcher, reg *metrics.Registry) (*Bot, error) {
	if err := tgbotapi.SetLogger(zap.NewStdLog(logger.Log)); err != nil {
		return nil, err
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	logger.Log.Info("authorized on telegram", zap.String("username", api.Self.UserName))

	return &Bot{
		api:     api,
		sender:  api,
		handler: handler,
		queue:   queue,
		metrics: reg,
	}, nil
}

// Run polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	config := tgbotapi.NewUpdate(0)
	config.Timeout = pollTimeoutSeconds

	updates := b.api.GetUpdatesChan(config)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("stopped polling telegram updates")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.dispatch(update)
		}
	}
}

func (b *Bot) dispatch(update tgbotapi.Update) {
	in, ok := incomingFromUpdate(update)
	if !ok {
		return
	}

	err := b.queue.Enqueue(in.ChatID, func(ctx context.Context) {
		b.deliver(in.ChatID, b.handler.Handle(ctx, in))
	})
	if err != nil {
		b.metrics.UpdatesDropped.Inc()
		if errors.Is(err, services.ErrJobQueueIsFull) {
			logger.Log.Warn("dropping update, chat queue is full", zap.Int64("chatID", in.ChatID))
			return
		}
		logger.Log.Warn("dropping update", zap.Int64("chatID", in.ChatID), zap.Error(err))
	}
}

func (b *Bot) deliver(chatID int64, replies []Reply) {
	for _, reply := range replies {
		var err error

		c := chattable(chatID, reply)
		if reply.Kind == ReplyCallbackAnswer {
			_, err = b.sender.Request(c)
		} else {
			_, err = b.sender.Send(c)
		}

		if err != nil {
			logger.Log.Error("failed to deliver reply",
				zap.Int64("chatID", chatID),
				zap.Int("kind", int(reply.Kind)),
				zap.Error(err),
			)
		}
	}
}

func incomingFromUpdate(update tgbotapi.Update) (Incoming, bool) {
	if query := update.CallbackQuery; query != nil {
		if query.Message == nil || query.Message.Chat == nil || query.From == nil {
			return Incoming{}, false
		}
		return Incoming{
			ChatID:       query.Message.Chat.ID,
			UserID:       query.From.ID,
			MessageID:    query.Message.MessageID,
			Text:         query.Message.Text,
			CallbackID:   query.ID,
			CallbackData: query.Data,
		}, true
	}

	msg := update.Message
	if msg == nil || msg.Chat == nil || msg.From == nil || msg.Text == "" {
		return Incoming{}, false
	}

	return Incoming{
		ChatID:    msg.Chat.ID,
		UserID:    msg.From.ID,
		MessageID: msg.MessageID,
		Text:      msg.Text,
	}, true
}

func chattable(chatID int64, reply Reply) tgbotapi.Chattable {
	switch reply.Kind {
	case ReplyDocument:
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: reply.FileName, Bytes: reply.Document})
		doc.Caption = reply.Text
		return doc

	case ReplyEdit:
		edit := tgbotapi.NewEditMessageText(chatID, reply.MessageID, reply.Text)
		if reply.Markdown {
			edit.ParseMode = tgbotapi.ModeMarkdown
		}
		return edit

	case ReplyCallbackAnswer:
		callback := tgbotapi.NewCallback(reply.CallbackID, reply.Text)
		callback.ShowAlert = reply.Alert
		return callback
	}

	msg := tgbotapi.NewMessage(chatID, reply.Text)
	if reply.Markdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
	}
	if len(reply.Keyboard) > 0 {
		msg.ReplyMarkup = inlineKeyboard(reply.Keyboard)
	}
	return msg
}

func inlineKeyboard(keyboard [][]Button) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(keyboard))
	for _, row := range keyboard {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, button := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.Data))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
