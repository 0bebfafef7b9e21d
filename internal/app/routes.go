package app

import (
	"net/http"
	"runtime"
	"runtime/pprof"

	"github.com/MarcinMove37ai/hps-app-sub002/internal/utils"
)

// RegisterRoutes registers routes and
// assigns custom handler to the HTTP server
func (a *App) RegisterRoutes() *App {
	a.server.Handler = a.Handler()
	return a
}

// Handler is the routed API wrapped in the global middlewares
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()

	// Page management
	mux.HandleFunc("GET /api/pages", a.mw.IsAuthenticated(a.pages.ListPagesHandler))
	mux.HandleFunc("GET /api/pages/{id}", a.mw.IsAuthenticated(a.pages.GetPageHandler))
	mux.HandleFunc("PATCH /api/pages/{id}", a.mw.IsAuthenticated(a.pages.UpdatePageHandler))
	mux.HandleFunc("DELETE /api/pages/{id}", a.mw.IsAuthenticated(a.pages.DeletePageHandler))
	mux.HandleFunc("POST /api/pages/{id}/suggest", a.mw.IsAuthenticated(a.pages.SuggestHandler))

	// Previews
	mux.HandleFunc("POST /api/pages/generate-preview", a.mw.IsAuthenticated(a.pages.GeneratePreviewHandler))
	mux.HandleFunc("GET /api/pages/preview/{token}", a.pages.PreviewPageHandler)

	// Public pages
	mux.HandleFunc("POST /api/pages/visits", a.pages.VisitsHandler)
	mux.HandleFunc("GET /api/{category}/{token}", a.pages.PublicPageHandler)

	// Categories
	mux.HandleFunc("GET /api/categories", a.categories.ListCategoriesHandler)
	mux.HandleFunc("POST /api/categories", a.mw.IsAdmin(a.categories.CreateCategoryHandler))

	// The rest
	mux.HandleFunc("GET /api/health", a.mw.IsAdmin(a.misc.HealthHandler))
	mux.HandleFunc("GET /healthcheck", a.misc.HealthCheckHandler)

	// Route for memory profiling
	mux.HandleFunc("GET /debug/heap", a.mw.IsAdmin(
		func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/octet-stream")
			runtime.GC()
			if err := pprof.WriteHeapProfile(w); err != nil {
				utils.HttpError(w, http.StatusInternalServerError)
			}
		},
	))

	// Chain middlewares that apply to all requests.
	// The order is important.
	return a.mw.ApplyToAll(
		a.mw.RecoverPanic,
		a.mw.CloseBody,
		a.mw.Logging,
		a.mw.LoadUser,
		a.mw.AddHeaders,
		a.mw.Compress,
	)(mux)
}
