// Package ws owns the websocket endpoint. Each connection gets a transport
// ID; once the client joins a room a writer goroutine drains the player's
// outbox while the reader loop dispatches inbound messages. Disconnect tears
// the player out of its room via the registry.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jhavelka/conquest-backend/internal/protocol"
	"github.com/jhavelka/conquest-backend/internal/registry"
	"github.com/jhavelka/conquest-backend/internal/region"
	"github.com/jhavelka/conquest-backend/internal/room"
)

const writeTimeout = 3 * time.Second

type Handler struct {
	log     *zap.Logger
	reg     *registry.Registry
	origins []string
}

func New(log *zap.Logger, reg *registry.Registry, origins []string) *Handler {
	return &Handler{log: log, reg: reg, origins: origins}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		h.log.Debug("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	transportID := uuid.NewString()
	log := h.log.With(zap.String("transport", transportID))
	log.Info("client connected")
	defer log.Info("client disconnected")
	defer h.reg.Leave(transportID)

	writeCtx, writeCancel := context.WithCancel(r.Context())
	defer writeCancel()

	joined := false
	// Five quick messages, then roughly one per second.
	chatLimit := rate.NewLimiter(rate.Every(time.Second), 5)

	for {
		_, data, err := conn.Read(r.Context())
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			return
		}

		var msg protocol.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.writeError(writeCtx, conn, "bad json")
			continue
		}

		switch msg.Type {
		case protocol.MsgCreateRoom:
			if joined {
				h.writeError(writeCtx, conn, "already in a room")
				continue
			}
			rm, p := h.reg.CreateRoom(transportID, playerName(msg.Name))
			joined = true
			go h.pump(writeCtx, conn, p)
			h.write(writeCtx, conn, protocol.Event{Type: protocol.EvtRoomReady, Payload: protocol.RoomReadyPayload{RoomID: rm.ID}})

		case protocol.MsgJoinRoom:
			if joined {
				h.writeError(writeCtx, conn, "already in a room")
				continue
			}
			rm, p, err := h.reg.JoinRoom(msg.RoomID, transportID, playerName(msg.Name))
			if err != nil {
				h.writeError(writeCtx, conn, err.Error())
				continue
			}
			joined = true
			go h.pump(writeCtx, conn, p)
			h.write(writeCtx, conn, protocol.Event{Type: protocol.EvtRoomReady, Payload: protocol.RoomReadyPayload{RoomID: rm.ID}})

		case protocol.MsgJoinRandom:
			if joined {
				continue
			}
			rm, p := h.reg.JoinRandom(transportID, playerName(msg.Name))
			joined = true
			go h.pump(writeCtx, conn, p)
			h.write(writeCtx, conn, protocol.Event{Type: protocol.EvtRoomReady, Payload: protocol.RoomReadyPayload{RoomID: rm.ID}})

		case protocol.MsgClaimRegion:
			rm, number, ok := h.roomSlot(transportID)
			if !ok {
				continue
			}
			sel := region.Name(msg.Region)
			if !region.Valid(sel) {
				log.Debug("claim for unknown region", zap.String("region", msg.Region))
				continue
			}
			rm.SubmitSelection(number, sel)

		case protocol.MsgAnswer:
			rm, number, ok := h.roomSlot(transportID)
			if !ok || msg.AnswerIndex == nil {
				continue
			}
			rm.SubmitAnswer(number, *msg.AnswerIndex)

		case protocol.MsgNumericAnswer:
			rm, number, ok := h.roomSlot(transportID)
			if !ok || msg.Value == nil {
				continue
			}
			rm.SubmitNumeric(number, *msg.Value)

		case protocol.MsgBaseSettled:
			rm, number, ok := h.roomSlot(transportID)
			if !ok {
				continue
			}
			scores := rm.ConfirmBase(number)
			rm.Broadcast(protocol.Event{Type: protocol.EvtUpdateScores, Payload: protocol.ScoresPayload{Scores: scores}})

		case protocol.MsgChat:
			rm, p, ok := h.reg.RoomOf(transportID)
			if !ok || !chatLimit.Allow() {
				continue
			}
			cm, ok := rm.AppendChat(p.Name, msg.Text)
			if !ok {
				continue
			}
			rm.Broadcast(protocol.Event{Type: protocol.EvtChatNew, Payload: cm})

		default:
			h.writeError(writeCtx, conn, "unknown message type")
		}
	}
}

// roomSlot resolves the sender's room and its current slot number. The
// number is read under the room lock because lobby-stage leaves renumber
// slots in place.
func (h *Handler) roomSlot(transportID string) (*room.Room, int, bool) {
	rm, _, ok := h.reg.RoomOf(transportID)
	if !ok {
		return nil, 0, false
	}
	number, ok := rm.NumberOf(transportID)
	if !ok {
		return nil, 0, false
	}
	return rm, number, true
}

// pump drains the player's outbox onto the connection until either side
// goes away.
func (h *Handler) pump(ctx context.Context, conn *websocket.Conn, p *room.Player) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-p.Outbox:
			if err := h.write(ctx, conn, ev); err != nil {
				return
			}
		}
	}
}

func (h *Handler) write(ctx context.Context, conn *websocket.Conn, ev protocol.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("marshal event", zap.String("event", ev.Type), zap.Error(err))
		return err
	}
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(wctx, websocket.MessageText, payload)
}

func (h *Handler) writeError(ctx context.Context, conn *websocket.Conn, message string) {
	_ = h.write(ctx, conn, protocol.Event{Type: protocol.EvtRoomError, Payload: protocol.RoomErrorPayload{Message: message}})
}

func playerName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Player"
	}
	return name
}
