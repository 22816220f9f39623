package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/emailcraft/handler"
	"github.com/dmitrymomot/emailcraft/pkg/file"
	"github.com/dmitrymomot/emailcraft/pkg/httpserver"
	"github.com/dmitrymomot/emailcraft/pkg/requestid"
	"github.com/dmitrymomot/emailcraft/svc/campaign"
	"github.com/dmitrymomot/emailcraft/svc/contact"
	"github.com/dmitrymomot/emailcraft/svc/dashboard"
	"github.com/dmitrymomot/emailcraft/svc/template"
)

// RouterOptions carries the services behind the API. Uploader, Files,
// Gatherer and Checks are optional.
type RouterOptions struct {
	Contacts   *contact.Service
	Templates  *template.Service
	Campaigns  *campaign.Service
	Dispatcher *campaign.Dispatcher
	Dashboard  *dashboard.Service
	Uploader   file.Uploader

	// Files serves locally stored uploads under /uploads/.
	Files *file.LocalStorage
	// Gatherer exposes /metrics when set.
	Gatherer prometheus.Gatherer
	Checks   map[string]httpserver.Check
	Logger   *slog.Logger
}

type server struct {
	contacts   *contact.Service
	templates  *template.Service
	campaigns  *campaign.Service
	dispatcher *campaign.Dispatcher
	dashboard  *dashboard.Service
	uploader   file.Uploader
	log        *slog.Logger
	onError    handler.ErrorHandler[handler.Context]
}

// Router mounts the JSON API, health probes and metrics.
//
//	r := api.Router(api.RouterOptions{Contacts: contacts, ...})
//	srv.Run(ctx, r)
func Router(opts RouterOptions) chi.Router {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	s := &server{
		contacts:   opts.Contacts,
		templates:  opts.Templates,
		campaigns:  opts.Campaigns,
		dispatcher: opts.Dispatcher,
		dashboard:  opts.Dashboard,
		uploader:   opts.Uploader,
		log:        log,
		onError:    handler.NewErrorHandler(log),
	}

	r := chi.NewRouter()
	r.Use(requestid.Middleware, middleware.Recoverer)

	r.Get("/health/live", httpserver.LivenessHandler())
	r.Get("/health/ready", httpserver.ReadinessHandler(log, opts.Checks))
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}
	if opts.Files != nil {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(opts.Files.Dir()))))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/contacts", func(r chi.Router) {
			r.Get("/", wrap(s, s.listContacts))
			r.Post("/", wrap(s, s.createContact, jsonBody))
			r.Get("/{id}", wrap(s, s.getContact, pathParams))
			r.Put("/{id}", wrap(s, s.updateContact, pathParams, jsonBody))
			r.Delete("/{id}", wrap(s, s.deleteContact, pathParams))
		})

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", wrap(s, s.listTemplates))
			r.Post("/", wrap(s, s.createTemplate, jsonBody))
			r.Post("/generate", wrap(s, s.generateTemplate, jsonBody))
			r.Get("/{id}", wrap(s, s.getTemplate, pathParams))
			r.Put("/{id}", wrap(s, s.updateTemplate, pathParams, jsonBody))
			r.Delete("/{id}", wrap(s, s.deleteTemplate, pathParams))
			r.Post("/{id}/edit", wrap(s, s.editTemplate, jsonBody))
		})

		r.Route("/campaigns", func(r chi.Router) {
			r.Get("/", wrap(s, s.listCampaigns))
			r.Post("/", wrap(s, s.createCampaign, jsonBody))
			r.Post("/send", wrap(s, s.sendCampaign, jsonBody))
			r.Post("/test", wrap(s, s.testCampaign, jsonBody))
			r.Post("/schedule", wrap(s, s.scheduleCampaign, jsonBody))
			r.Get("/{id}", wrap(s, s.getCampaign, pathParams))
			r.Put("/{id}", wrap(s, s.patchCampaign, pathParams, jsonBody))
			r.Delete("/{id}", wrap(s, s.deleteCampaign, pathParams))
			r.Post("/{id}/duplicate", wrap(s, s.duplicateCampaign, pathParams, optionalJSONBody))
			r.Post("/{id}/pause", wrap(s, s.pauseCampaign, pathParams))
		})

		if s.uploader != nil {
			r.Post("/upload", wrap(s, s.upload, uploadForm))
		}
		r.Get("/dashboard", wrap(s, s.stats))
	})

	return r
}

// wrap adapts a typed handler with the shared error handler.
func wrap[R any](s *server, h handler.HandlerFunc[handler.Context, R], binders ...handler.Bind) http.HandlerFunc {
	return handler.Wrap(h,
		handler.WithBinders[handler.Context, R](binders...),
		handler.WithErrorHandler[handler.Context, R](s.onError),
	)
}
