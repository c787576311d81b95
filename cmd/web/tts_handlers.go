package main

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"mainichinihongo.app/web/internal/backend"
	handlersPkg "mainichinihongo.app/web/internal/handlers"
	mw "mainichinihongo.app/web/internal/middleware"
	"mainichinihongo.app/web/internal/observability"
)

// ttsPlayer renders the single audio slot fragment. Swapping it in replaces
// whatever was playing before.
func (a *app) ttsPlayer(w http.ResponseWriter, r *http.Request) {
	text := strings.TrimSpace(r.URL.Query().Get("text"))
	if text == "" {
		mw.WriteError(w, r, http.StatusBadRequest, "text is required")
		return
	}
	a.render.renderTemplate(w, r, http.StatusOK, "frag_tts_player", a.fragmentData(r, handlersPkg.TTSData{Text: text}))
}

// ttsAudio proxies synthesized speech from the backend, preserving its content type.
func (a *app) ttsAudio(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	text := strings.TrimSpace(r.URL.Query().Get("text"))
	if text == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}
	body, contentType, err := a.contents.OpenAudio(ctx, text)
	if err != nil {
		observability.FromContext(ctx).Warn("tts audio failed", zap.Error(err))
		status := http.StatusBadGateway
		var be *backend.Error
		if errors.As(err, &be) && be.Kind == backend.KindClient && be.Status > 0 {
			status = be.Status
		}
		http.Error(w, backend.UserMessage(err, backend.MessageGeneric), status)
		return
	}
	defer body.Close()

	if contentType == "" {
		contentType = "audio/mpeg"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil && ctx.Err() == nil {
		observability.FromContext(ctx).Warn("tts audio copy interrupted", zap.Error(err))
	}
}
