package flow

import (
	"context"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Messenger часть API бота, через которую экран обновляет своё сообщение
type Messenger interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
}

type renderFunc func() (string, *models.InlineKeyboardMarkup)

// live одно сообщение чата, которое перерисовывается при изменении экрана.
// Перерисовки схлопываются: пока идёт отправка, новые запросы только
// помечают сообщение устаревшим, и после отправки рисуется последнее состояние.
type live struct {
	msgr   Messenger
	chatID int64
	logger *zap.Logger
	render renderFunc

	mu        sync.Mutex
	prev      *live
	messageID int
	last      string
	dirty     bool
	running   bool
	stopped   bool
	wg        sync.WaitGroup
}

func newLive(msgr Messenger, chatID int64, messageID int, logger *zap.Logger) *live {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &live{
		msgr:      msgr,
		chatID:    chatID,
		messageID: messageID,
		logger:    logger,
	}
}

// Invalidate просит перерисовать сообщение
func (l *live) Invalidate() {
	l.mu.Lock()
	if l.stopped || l.render == nil {
		l.mu.Unlock()
		return
	}
	l.dirty = true
	if l.running {
		l.mu.Unlock()
		return
	}
	l.running = true
	l.wg.Add(1)
	l.mu.Unlock()

	go l.flush()
}

// Stop прекращает приём новых перерисовок; уже запрошенная будет выполнена
func (l *live) Stop() {
	l.mu.Lock()
	l.stopped = true
	l.mu.Unlock()
}

// Wait ждёт окончания отправки
func (l *live) Wait() {
	l.wg.Wait()
}

// follow упорядочивает отрисовку после предыдущего экрана того же чата
func (l *live) follow(prev *live) {
	l.mu.Lock()
	l.prev = prev
	l.mu.Unlock()
}

// MessageID идентификатор сообщения, 0 пока оно не отправлено
func (l *live) MessageID() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.messageID
}

func (l *live) flush() {
	defer l.wg.Done()

	l.mu.Lock()
	prev := l.prev
	l.prev = nil
	l.mu.Unlock()
	if prev != nil {
		prev.Wait()
	}

	for {
		l.mu.Lock()
		if !l.dirty {
			l.running = false
			l.mu.Unlock()
			return
		}
		l.dirty = false
		l.mu.Unlock()

		text, kb := l.render()
		l.publish(text, kb)
	}
}

func (l *live) publish(text string, kb *models.InlineKeyboardMarkup) {
	sig := signature(text, kb)

	l.mu.Lock()
	messageID := l.messageID
	unchanged := sig == l.last
	l.mu.Unlock()
	if unchanged {
		return
	}

	// экран живёт дольше апдейта, который его открыл
	ctx := context.Background()

	if messageID == 0 {
		msg, err := l.msgr.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:      l.chatID,
			Text:        text,
			ReplyMarkup: kb,
		})
		if err != nil {
			l.logger.Error("Failed to send screen", zap.Int64("chat_id", l.chatID), zap.Error(err))
			return
		}
		l.mu.Lock()
		l.messageID = msg.ID
		l.last = sig
		l.mu.Unlock()
		return
	}

	_, err := l.msgr.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:      l.chatID,
		MessageID:   messageID,
		Text:        text,
		ReplyMarkup: kb,
	})
	if err != nil {
		l.logger.Error("Failed to edit screen",
			zap.Int64("chat_id", l.chatID),
			zap.Int("message_id", messageID),
			zap.Error(err))
		return
	}
	l.mu.Lock()
	l.last = sig
	l.mu.Unlock()
}

func signature(text string, kb *models.InlineKeyboardMarkup) string {
	if kb == nil {
		return text
	}
	raw, err := json.Marshal(kb)
	if err != nil {
		return text
	}
	return text + "\x00" + string(raw)
}
