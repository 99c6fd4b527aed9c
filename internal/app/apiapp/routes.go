package apiapp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	httperrors "github.com/ivankudzin/tgrelay/internal/transport/http/errors"
	"github.com/ivankudzin/tgrelay/internal/transport/http/handlers"
)

type Dependencies struct {
	Reactions     handlers.ReactionReader
	Submissions   handlers.SubmissionStatsReader
	ChannelChatID func() int64
	Audit         handlers.AuditReader
	Logger        *zap.Logger
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	statsHandler := handlers.NewStatsHandler(deps.Reactions, deps.Submissions, deps.ChannelChatID)
	auditHandler := handlers.NewAuditHandler(deps.Audit)

	r.Get("/healthz", healthHandler.Handle)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/chats/{chatID}/reactions/top", statsHandler.TopReactions)
		r.Get("/chats/{chatID}/messages/{messageID}/reactions", statsHandler.MessageReactions)
		r.Get("/channel/reactions/top", statsHandler.ChannelTopReactions)
		r.Get("/submissions/stats", statsHandler.SubmissionStats)
		r.Get("/audit/recent", auditHandler.Recent)
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		deps.Logger.Debug("route not found", zap.String("path", req.URL.Path))
		httperrors.WriteError(w, http.StatusNotFound, httperrors.CodeNotFound, "route not found")
	})
}
