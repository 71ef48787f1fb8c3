package notifier

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"
)

// CommandHandler answers one chat command; an empty reply sends nothing.
type CommandHandler func(ctx context.Context, command string) string

const (
	pollTimeout = 30 * time.Second
	pollBackoff = 5 * time.Second
)

type getUpdatesRequest struct {
	Offset         int      `json:"offset"`
	Timeout        int      `json:"timeout"`
	AllowedUpdates []string `json:"allowed_updates"`
}

type update struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
	} `json:"message"`
}

// StartPolling long-polls getUpdates and routes text messages to handler
// until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	// The HTTP timeout must outlast the server-side long poll.
	client := &http.Client{Timeout: pollTimeout + 5*time.Second, Transport: t.Client.Transport}
	offset := 0
	for ctx.Err() == nil {
		var updates []update
		err := t.call(ctx, client, "getUpdates", getUpdatesRequest{
			Offset:         offset,
			Timeout:        int(pollTimeout / time.Second),
			AllowedUpdates: []string{"message"},
		}, &updates)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Printf("[WARN] telegram polling: %v", err)
			sleep(ctx, pollBackoff)
			continue
		}
		for _, u := range updates {
			offset = u.UpdateID + 1
			t.dispatch(ctx, u, handler)
		}
	}
	log.Println("[INFO] Telegram polling stopped")
}

func (t *TelegramNotifier) dispatch(ctx context.Context, u update, handler CommandHandler) {
	if u.Message == nil {
		return
	}
	text := strings.TrimSpace(u.Message.Text)
	if text == "" {
		return
	}
	log.Printf("[INFO] received command: %s", text)
	reply := handler(ctx, text)
	if reply == "" {
		return
	}
	if err := t.Send(ctx, reply); err != nil {
		log.Printf("[ERROR] send reply to %q: %v", text, err)
	}
}
