// Package sender wraps the Telegram client behind a small interface the
// dialogue layer depends on, adding HTML formatting, plain-text fallback,
// and long-message splitting.
package sender

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const (
	sendTimeout = 10 * time.Second

	// maxMessageLen leaves headroom under Telegram's 4096-char limit.
	maxMessageLen = 4000

	// partPause throttles continuation messages of a split response.
	partPause = 300 * time.Millisecond
)

// Sender delivers outbound payloads to the chat platform.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string, markup models.ReplyMarkup) error
	Edit(ctx context.Context, chatID int64, messageID int, text string, markup models.ReplyMarkup) error
	AnswerCallback(ctx context.Context, callbackQueryID, text string)
	SendDocument(ctx context.Context, chatID int64, filename string, data []byte, caption string) error
	SendLong(ctx context.Context, chatID int64, header, content string, markup models.ReplyMarkup) error
}

type telegramSender struct {
	bot     *bot.Bot
	partTpl string
	logger  *slog.Logger
}

// New wraps a Telegram bot client. partTpl formats continuation headers of
// split messages and takes (part number, part count).
func New(b *bot.Bot, partTpl string, logger *slog.Logger) Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &telegramSender{
		bot:     b,
		partTpl: partTpl,
		logger:  logger.With("component", "sender"),
	}
}

// Send delivers an HTML-formatted message. If the send fails (usually bad
// entities or keyboard), it retries once as plain text without a keyboard
// before giving up.
func (s *telegramSender) Send(ctx context.Context, chatID int64, text string, markup models.ReplyMarkup) error {
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	_, err := s.bot.SendMessage(sendCtx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: markup,
	})
	if err == nil {
		return nil
	}

	s.logger.WarnContext(ctx, "HTML send failed, retrying as plain text", "chat_id", chatID, "error", err)
	_, plainErr := s.bot.SendMessage(sendCtx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if plainErr != nil {
		return fmt.Errorf("failed to send message to chat %d: %w", chatID, plainErr)
	}
	return nil
}

// Edit replaces the text and keyboard of an already-sent message.
func (s *telegramSender) Edit(ctx context.Context, chatID int64, messageID int, text string, markup models.ReplyMarkup) error {
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	_, err := s.bot.EditMessageText(sendCtx, &bot.EditMessageTextParams{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        text,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: markup,
	})
	if err != nil {
		return fmt.Errorf("failed to edit message %d in chat %d: %w", messageID, chatID, err)
	}
	return nil
}

// AnswerCallback acknowledges a button press. The platform requires exactly
// one acknowledgement per callback; failures are logged, never propagated,
// so every dispatch path can call this unconditionally.
func (s *telegramSender) AnswerCallback(ctx context.Context, callbackQueryID, text string) {
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	_, err := s.bot.AnswerCallbackQuery(sendCtx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackQueryID,
		Text:            text,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to answer callback query", "callback_id", callbackQueryID, "error", err)
	}
}

// SendDocument uploads a file with a caption.
func (s *telegramSender) SendDocument(ctx context.Context, chatID int64, filename string, data []byte, caption string) error {
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	_, err := s.bot.SendDocument(sendCtx, &bot.SendDocumentParams{
		ChatID: chatID,
		Document: &models.InputFileUpload{
			Filename: filename,
			Data:     bytes.NewReader(data),
		},
		Caption: caption,
	})
	if err != nil {
		return fmt.Errorf("failed to send document to chat %d: %w", chatID, err)
	}
	return nil
}

// SendLong delivers header+content, splitting into continuation messages
// when the total exceeds the platform limit. Only the first message carries
// the header and keyboard; continuations are introduced by the part
// template. A short pause between parts respects outbound rate limits.
func (s *telegramSender) SendLong(ctx context.Context, chatID int64, header, content string, markup models.ReplyMarkup) error {
	first := content
	if header != "" {
		first = header + "\n\n" + content
	}
	if len([]rune(first)) <= maxMessageLen {
		return s.Send(ctx, chatID, first, markup)
	}

	budget := maxMessageLen - len([]rune(header)) - 2
	chunks := splitText(content, budget)

	for i, chunk := range chunks {
		var text string
		if i == 0 {
			text = chunk
			if header != "" {
				text = header + "\n\n" + chunk
			}
		} else {
			text = fmt.Sprintf(s.partTpl, i+1, len(chunks)) + "\n\n" + chunk
		}

		var chunkMarkup models.ReplyMarkup
		if i == 0 {
			chunkMarkup = markup
		}
		if err := s.Send(ctx, chatID, text, chunkMarkup); err != nil {
			return err
		}
		if i+1 < len(chunks) {
			time.Sleep(partPause)
		}
	}
	return nil
}

// splitText cuts text into rune-bounded chunks, preferring to break at a
// newline near the limit.
func splitText(text string, limit int) []string {
	if limit < 1 {
		limit = maxMessageLen / 2
	}

	var chunks []string
	runes := []rune(text)
	for len(runes) > 0 {
		if len(runes) <= limit {
			chunks = append(chunks, string(runes))
			break
		}

		cut := limit
		window := string(runes[:limit])
		if idx := strings.LastIndexByte(window, '\n'); idx > limit/2 {
			cut = len([]rune(window[:idx]))
		}

		chunks = append(chunks, strings.TrimRight(string(runes[:cut]), "\n"))
		runes = runes[cut:]
		for len(runes) > 0 && runes[0] == '\n' {
			runes = runes[1:]
		}
	}
	return chunks
}
