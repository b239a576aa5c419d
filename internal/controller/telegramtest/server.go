// Package telegramtest поднимает фейковый Bot API для тестов обработчиков
package telegramtest

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"sync"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/goccy/go-json"
)

// Call один вызов метода Bot API
type Call struct {
	Method    string
	ChatID    string
	MessageID string
	Text      string
	Markup    string
	ShowAlert bool
}

// Server фейковый Bot API: запоминает вызовы и отвечает успехом
type Server struct {
	mu     sync.Mutex
	calls  []Call
	nextID int
}

// NewBot создаёт бота, который ходит в фейковый сервер.
// Первое отправленное сообщение получит ID 501.
func NewBot(t *testing.T) (*bot.Bot, *Server) {
	t.Helper()

	s := &Server{nextID: 500}
	srv := httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(srv.Close)

	b, err := bot.New("123:test", bot.WithServerURL(srv.URL), bot.WithSkipGetMe())
	if err != nil {
		t.Fatalf("create bot: %v", err)
	}
	return b, s
}

// Calls копия всех вызовов
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Method вызовы одного метода
func (s *Server) Method(name string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Method == name {
			out = append(out, c)
		}
	}
	return out
}

// LastText текст последнего отправленного или отредактированного сообщения
func (s *Server) LastText() string {
	calls := s.Calls()
	for i := len(calls) - 1; i >= 0; i-- {
		if calls[i].Method == "sendMessage" || calls[i].Method == "editMessageText" {
			return calls[i].Text
		}
	}
	return ""
}

// LastMarkup клавиатура последнего отправленного или отредактированного сообщения
func (s *Server) LastMarkup() string {
	calls := s.Calls()
	for i := len(calls) - 1; i >= 0; i-- {
		if calls[i].Method == "sendMessage" || calls[i].Method == "editMessageText" {
			return calls[i].Markup
		}
	}
	return ""
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	params := readParams(r)
	call := Call{
		Method:    path.Base(r.URL.Path),
		ChatID:    params["chat_id"],
		MessageID: params["message_id"],
		Text:      params["text"],
		Markup:    params["reply_markup"],
		ShowAlert: params["show_alert"] == "true",
	}

	s.mu.Lock()
	s.calls = append(s.calls, call)
	id := s.nextID
	if call.Method == "sendMessage" {
		s.nextID++
		id = s.nextID
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch call.Method {
	case "sendMessage", "editMessageText":
		if call.MessageID != "" {
			fmt.Sscan(call.MessageID, &id)
		}
		fmt.Fprintf(w, `{"ok":true,"result":{"message_id":%d,"date":0,"chat":{"id":10,"type":"private"}}}`, id)
	default:
		fmt.Fprint(w, `{"ok":true,"result":true}`)
	}
}

func readParams(r *http.Request) map[string]string {
	out := make(map[string]string)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		raw, _ := io.ReadAll(r.Body)
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err == nil {
			for k, v := range m {
				out[k] = fmt.Sprint(v)
			}
		}
		return out
	}

	if err := r.ParseMultipartForm(1 << 20); err != nil {
		_ = r.ParseForm()
	}
	for k, v := range r.Form {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}
