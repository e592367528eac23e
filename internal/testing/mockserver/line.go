package mockserver

import (
	"encoding/json"
	"net/http"
	"sync"

	"game-line/pkg/line"
)

type Reply struct {
	ReplyToken string
	Texts      []string
}

type Push struct {
	To       string
	Types    []string
	Texts    []string
	RetryKey string
}

type lineMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// LineAPI fakes the subset of the LINE Messaging API used by the bot.
type LineAPI struct {
	mu sync.Mutex

	token    string
	profiles map[string]line.Profile
	replies  []Reply
	pushes   []Push

	mux *http.ServeMux
}

func NewLineAPI(token string) *LineAPI {
	l := &LineAPI{
		token:    token,
		profiles: map[string]line.Profile{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v2/bot/message/reply", l.reply)
	mux.HandleFunc("POST /v2/bot/message/push", l.push)
	mux.HandleFunc("GET /v2/bot/profile/{userId}", l.profile)
	l.mux = mux

	return l
}

func (l *LineAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer "+l.token {
		writeError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	l.mux.ServeHTTP(w, r)
}

func (l *LineAPI) AddProfile(profile line.Profile) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.profiles[profile.UserId] = profile
}

func (l *LineAPI) Replies() []Reply {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Reply(nil), l.replies...)
}

func (l *LineAPI) Pushes() []Push {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Push(nil), l.pushes...)
}

func (l *LineAPI) reply(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ReplyToken string        `json:"replyToken"`
		Messages   []lineMessage `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ReplyToken == "" {
		writeError(w, http.StatusBadRequest, "Invalid reply token")
		return
	}

	l.mu.Lock()
	l.replies = append(l.replies, Reply{ReplyToken: req.ReplyToken, Texts: texts(req.Messages)})
	l.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{})
}

func (l *LineAPI) push(w http.ResponseWriter, r *http.Request) {
	var req struct {
		To       string        `json:"to"`
		Messages []lineMessage `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "The request body has 1 error(s)")
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.profiles[req.To]; !ok {
		writeError(w, http.StatusBadRequest, "The property, 'to', in the request body is invalid")
		return
	}
	l.pushes = append(l.pushes, Push{
		To:       req.To,
		Types:    types(req.Messages),
		Texts:    texts(req.Messages),
		RetryKey: r.Header.Get("X-Line-Retry-Key"),
	})

	writeJSON(w, http.StatusOK, map[string]any{})
}

func (l *LineAPI) profile(w http.ResponseWriter, r *http.Request) {
	l.mu.Lock()
	defer l.mu.Unlock()

	profile, ok := l.profiles[r.PathValue("userId")]
	if !ok {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func texts(msgs []lineMessage) []string {
	out := make([]string, len(msgs))
	for i, msg := range msgs {
		out[i] = msg.Text
	}
	return out
}

func types(msgs []lineMessage) []string {
	out := make([]string, len(msgs))
	for i, msg := range msgs {
		out[i] = msg.Type
	}
	return out
}
