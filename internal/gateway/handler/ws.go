package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"geomentor/internal/logging"
)

const (
	chatWSWriteWait = 10 * time.Second
	chatWSPongWait  = 60 * time.Second
)

var chatWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type chatWSInbound struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

type chatWSOutbound struct {
	Type     string `json:"type"`
	Response string `json:"response,omitempty"`
	Status   int    `json:"status,omitempty"`
	Message  string `json:"message,omitempty"`
}

// HandleChatWS serves GET /chat/ws. Messages of one connection are answered
// in order, one at a time, by a worker so the read loop keeps handling pongs
// while a reply is being produced.
func (h *Handler) HandleChatWS(w http.ResponseWriter, r *http.Request) {
	session := sessionID(r)
	log := logging.FromContext(r.Context()).With(slog.String("session", session))

	conn, err := chatWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(logging.WithLogger(r.Context(), log))
	defer cancel()

	pongWait := h.wsPongWait
	pingEvery := (pongWait * 9) / 10
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Warn("chat ws set read deadline failed", slog.Any("err", err))
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	writeCh := make(chan chatWSOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(pingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(chatWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(chatWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	jobs := make(chan chatWSInbound, 16)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case in := <-jobs:
				pushChatWS(writeCh, h.answerChatWS(ctx, session, in))
			}
		}
	}()

	for {
		var in chatWSInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-workerDone
			<-writerDone
			return
		}
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			cancel()
			<-workerDone
			<-writerDone
			return
		}
		if strings.EqualFold(strings.TrimSpace(in.Type), "ping") {
			pushChatWS(writeCh, chatWSOutbound{Type: "pong"})
			continue
		}
		select {
		case jobs <- in:
		case <-ctx.Done():
		}
	}
}

func (h *Handler) answerChatWS(ctx context.Context, session string, in chatWSInbound) chatWSOutbound {
	switch strings.ToLower(strings.TrimSpace(in.Type)) {
	case "message":
		reply, err := h.assistant.Reply(ctx, session, in.Message)
		if err != nil {
			status, msg := replyStatus(ctx, err)
			return chatWSOutbound{Type: "error", Status: status, Message: msg}
		}
		return chatWSOutbound{Type: "response", Response: reply}
	case "":
		return chatWSOutbound{Type: "error", Status: http.StatusBadRequest, Message: "type is required"}
	default:
		return chatWSOutbound{Type: "error", Status: http.StatusBadRequest, Message: "unsupported type: " + in.Type}
	}
}

// pushChatWS drops the oldest queued frame when the writer falls behind.
func pushChatWS(writeCh chan chatWSOutbound, out chatWSOutbound) {
	select {
	case writeCh <- out:
		return
	default:
	}
	select {
	case <-writeCh:
	default:
	}
	select {
	case writeCh <- out:
	default:
	}
}
