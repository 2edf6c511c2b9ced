package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/harbortow/voicegate/internal/config"
	callhandler "github.com/harbortow/voicegate/internal/handler/call"
	"github.com/harbortow/voicegate/internal/handler/media"
	callmodel "github.com/harbortow/voicegate/internal/model/call"
	"github.com/harbortow/voicegate/internal/service/bridge"
	"github.com/harbortow/voicegate/internal/service/transcript"
	"github.com/harbortow/voicegate/pkg/utils"
)

// NewRouter wires HTTP routes to core services. greeter and automation may
// be nil when the automation endpoint is not configured.
func NewRouter(registry *callmodel.Registry, recorder *transcript.Recorder, greeter callhandler.Greeter, automation bridge.Automation, realtimeCfg config.RealtimeConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	callhandler.New(registry, greeter).RegisterRoutes(r)
	media.New(registry, recorder, automation, realtimeCfg).RegisterRoutes(r)

	return r
}
