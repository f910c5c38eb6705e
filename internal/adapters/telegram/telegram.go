// Package telegram implementa ports.Notifier sobre la Bot API de Telegram.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/ports"
)

// Telegram limita a ~1 msg/s por chat; el ciclo publica como mucho un par
// de mensajes por resultado, así que esto solo amortigua ráfagas.
const (
	messagesPerSec = 1
	messagesBurst  = 5
)

// Config son las credenciales y destino del bot.
type Config struct {
	Token  string
	ChatID int64
	// Endpoint permite apuntar a un endpoint alternativo (tests, proxies).
	// Vacío usa el oficial de Telegram.
	Endpoint string
	// WinStickerID y LossStickerID son file IDs de stickers ya subidos.
	// Vacíos desactivan el sticker correspondiente.
	WinStickerID  string
	LossStickerID string
}

// Notifier publica avisos en un chat de Telegram con rate limiting.
type Notifier struct {
	bot      *tgbotapi.BotAPI
	chatID   int64
	limiter  *rate.Limiter
	stickers map[ports.StickerKind]string
}

// New crea el notifier y valida las credenciales contra la API (getMe).
func New(cfg Config) (*Notifier, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram.New: token is required")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram.New: chat id is required")
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}

	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(cfg.Token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("telegram.New: %w", err)
	}
	slog.Info("telegram: authorized", "account", bot.Self.UserName)

	return &Notifier{
		bot:     bot,
		chatID:  cfg.ChatID,
		limiter: rate.NewLimiter(messagesPerSec, messagesBurst),
		stickers: map[ports.StickerKind]string{
			ports.StickerWin:  cfg.WinStickerID,
			ports.StickerLoss: cfg.LossStickerID,
		},
	}, nil
}

// SendText publica un mensaje Markdown, con botones de enlace opcionales en
// una fila, y devuelve su handle.
func (n *Notifier) SendText(ctx context.Context, text string, buttons ...ports.LinkButton) (ports.MessageHandle, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return ports.MessageHandle{}, fmt.Errorf("telegram.SendText: %w", err)
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	if len(buttons) > 0 {
		row := make([]tgbotapi.InlineKeyboardButton, 0, len(buttons))
		for _, b := range buttons {
			row = append(row, tgbotapi.NewInlineKeyboardButtonURL(b.Label, b.URL))
		}
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(row)
	}

	sent, err := n.bot.Send(msg)
	if err != nil {
		return ports.MessageHandle{}, fmt.Errorf("telegram.SendText: %w", err)
	}
	return ports.MessageHandle{ID: int64(sent.MessageID)}, nil
}

// SendSticker publica el sticker configurado para el desenlace. Sin file ID
// configurado es una no-op que devuelve handle cero.
func (n *Notifier) SendSticker(ctx context.Context, kind ports.StickerKind) (ports.MessageHandle, error) {
	fileID := n.stickers[kind]
	if fileID == "" {
		return ports.MessageHandle{}, nil
	}
	if err := n.limiter.Wait(ctx); err != nil {
		return ports.MessageHandle{}, fmt.Errorf("telegram.SendSticker: %w", err)
	}

	sent, err := n.bot.Send(tgbotapi.NewSticker(n.chatID, tgbotapi.FileID(fileID)))
	if err != nil {
		return ports.MessageHandle{}, fmt.Errorf("telegram.SendSticker: %s: %w", kind, err)
	}
	return ports.MessageHandle{ID: int64(sent.MessageID)}, nil
}

// Delete retira un mensaje publicado. Handles cero son no-ops; que el
// mensaje ya no exista no es un error del llamante, Telegram responde 400 y
// se propaga para que el caller decida si le importa.
func (n *Notifier) Delete(ctx context.Context, handle ports.MessageHandle) error {
	if handle.Zero() {
		return nil
	}
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("telegram.Delete: %w", err)
	}

	if _, err := n.bot.Request(tgbotapi.NewDeleteMessage(n.chatID, int(handle.ID))); err != nil {
		return fmt.Errorf("telegram.Delete: message %d: %w", handle.ID, err)
	}
	return nil
}
