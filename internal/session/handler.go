package session

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/lunavoice/voice-assistant/internal/config"
	"github.com/lunavoice/voice-assistant/internal/llm"
	"github.com/lunavoice/voice-assistant/internal/observability"
	"github.com/lunavoice/voice-assistant/internal/stt"
	"github.com/lunavoice/voice-assistant/internal/tts"
)

// Handler returns the websocket endpoint that runs a conversation session
// per client connection.
func Handler(cfg *config.Config) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(cfg.AllowedOrigins),
	}

	baseLogger := observability.GetLogger()
	chat := llm.NewGroqClient(cfg, baseLogger)
	speech := tts.NewDeepgramClient(cfg, baseLogger)

	return func(w http.ResponseWriter, r *http.Request) {
		logger := observability.WithCorrelationID(observability.NewCorrelationID())

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error().Err(err).Msg("Websocket upgrade failed")
			return
		}

		newTranscriber := func(ctx context.Context, handler stt.EventHandler) stt.LiveTranscriber {
			return stt.NewDeepgramClient(ctx, cfg, handler, logger)
		}

		sess := NewSession(conn, cfg, chat, speech, newTranscriber, logger)

		logger.Info().
			Str("session_id", sess.ID()).
			Str("remote_addr", r.RemoteAddr).
			Msg("Session started")

		if err := sess.Run(r.Context()); err != nil {
			logger.Error().Err(err).Str("session_id", sess.ID()).Msg("Session failed")
		}
	}
}

// originChecker builds the upgrade origin policy. An empty allow-list
// permits any origin.
func originChecker(allowed []string) func(r *http.Request) bool {
	allowSet := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		origin = strings.TrimSpace(strings.TrimSuffix(origin, "/"))
		if origin != "" {
			allowSet[strings.ToLower(origin)] = struct{}{}
		}
	}

	return func(r *http.Request) bool {
		if len(allowSet) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		_, ok := allowSet[strings.ToLower(u.Scheme+"://"+u.Host)]
		return ok
	}
}
