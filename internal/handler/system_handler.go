package handler

import (
	"context"
	"net/http"
	"time"
)

// Pinger はヘルスチェックでのデータストア疎通確認インターフェース。
// インメモリストア構成ではnilでよい。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// SystemHandler はAPIインデックス・ステータス・ヘルスチェックのハンドラー。
type SystemHandler struct {
	responder *Responder
	db        Pinger
	startedAt time.Time
}

// NewSystemHandler はSystemHandlerを生成する。dbはnilでもよい。
func NewSystemHandler(responder *Responder, db Pinger) *SystemHandler {
	return &SystemHandler{
		responder: responder,
		db:        db,
		startedAt: time.Now(),
	}
}

// Index はAPIのエンドポイント一覧を返す。
// GET /
func (h *SystemHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.responder.WriteJSON(w, http.StatusOK, map[string]any{
		"name": "shopguard API",
		"endpoints": map[string]string{
			"auth":     "/api/auth",
			"products": "/api/products",
			"csrf":     "/api/csrf-token",
			"status":   "/api/status",
			"health":   "/health",
			"metrics":  "/metrics",
		},
	})
}

// Status はAPIの稼働状態を返す。
// GET /api/status
func (h *SystemHandler) Status(w http.ResponseWriter, r *http.Request) {
	h.responder.WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(h.startedAt).Round(time.Second).String(),
	})
}

// Health はヘルスチェックエンドポイント。
// データストアへの疎通が取れない場合は503を返す。
// GET /health
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			h.responder.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "unhealthy",
			})
			return
		}
	}

	h.responder.WriteJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
	})
}
