package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/greyfinance/ledger-engine/internal/domain"
	"github.com/greyfinance/ledger-engine/internal/service"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Tokens authenticate the connection; the origin header carries no
	// additional trust here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StreamHandler pushes live trade state over a websocket while the trade is
// pending, closing once it completes or is cancelled.
type StreamHandler struct {
	trades *service.TradeService
	poll   time.Duration
}

func NewStreamHandler(trades *service.TradeService) *StreamHandler {
	return &StreamHandler{trades: trades, poll: time.Second}
}

// Trade handles GET /v1/trades/{id}/stream. The client receives the current
// trade snapshot every poll interval until the trade leaves the pending
// state.
func (h *StreamHandler) Trade(w http.ResponseWriter, r *http.Request) {
	actorID, isAdmin, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	tradeID, ok := pathUUID(r, w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	trade, err := h.trades.Get(r.Context(), tradeID)
	if err != nil {
		if status, pType, msg, mapped := mapServiceError(err); mapped {
			RespondError(w, r, status, pType, msg)
			return
		}
		zap.L().Error("get trade failed", zap.Error(err), zap.String("trade_id", tradeID.String()))
		RespondError(w, r, http.StatusInternalServerError, "trade/read-failed", "Failed to get trade")
		return
	}
	if !isAdmin && trade.AccountID != actorID {
		RespondError(w, r, http.StatusForbidden, "auth/insufficient-permissions", "insufficient permissions")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.L().Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// Drain client frames so close messages are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.poll)
	defer ticker.Stop()

	for {
		if err := conn.WriteJSON(trade); err != nil {
			return
		}
		if trade.Status != domain.TradePending {
			deadline := time.Now().Add(time.Second)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(trade.Status)), deadline)
			return
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		trade, err = h.trades.Get(r.Context(), tradeID)
		if err != nil {
			zap.L().Warn("trade stream read failed", zap.Error(err), zap.String("trade_id", tradeID.String()))
			return
		}
	}
}
