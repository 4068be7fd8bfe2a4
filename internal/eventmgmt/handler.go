// Package eventmgmt groups the event management resources under one router.
package eventmgmt

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventhub/eventhub/internal/eventmgmt/attendees"
	"github.com/eventhub/eventhub/internal/eventmgmt/categories"
	"github.com/eventhub/eventhub/internal/eventmgmt/events"
	"github.com/eventhub/eventhub/internal/eventmgmt/report"
	"github.com/eventhub/eventhub/internal/eventmgmt/reservations"
	"github.com/eventhub/eventhub/internal/eventmgmt/speakers"
	"github.com/eventhub/eventhub/internal/rbac"
)

// Handlers holds one handler per resource. Nil entries are not mounted.
type Handlers struct {
	Categories   *categories.Handler
	Speakers     *speakers.Handler
	Events       *events.Handler
	Reports      *report.Handler
	Attendees    *attendees.Handler
	Reservations *reservations.Handler
}

// NewHandlers wires every resource against pool. reports may be nil.
func NewHandlers(pool *pgxpool.Pool, reports *report.Service, guard *rbac.Guard, logger *slog.Logger) Handlers {
	h := Handlers{
		Categories:   categories.NewHandler(logger, categories.NewService(categories.NewRepository(pool)), guard),
		Speakers:     speakers.NewHandler(logger, speakers.NewService(speakers.NewRepository(pool)), guard),
		Events:       events.NewHandler(logger, events.NewService(events.NewRepository(pool)), guard),
		Attendees:    attendees.NewHandler(logger, attendees.NewService(attendees.NewRepository(pool)), guard),
		Reservations: reservations.NewHandler(logger, reservations.NewService(reservations.NewRepository(pool)), guard),
	}
	if reports != nil {
		h.Reports = report.NewHandler(logger, reports, guard)
	}
	return h
}

// MountRoutes attaches every resource below its singular name.
func (h Handlers) MountRoutes(r chi.Router) {
	if h.Categories != nil {
		r.Route("/category", h.Categories.MountRoutes)
	}
	if h.Speakers != nil {
		r.Route("/speaker", h.Speakers.MountRoutes)
	}
	if h.Events != nil || h.Reports != nil {
		r.Route("/event", func(r chi.Router) {
			if h.Reports != nil {
				h.Reports.MountRoutes(r)
			}
			if h.Events != nil {
				h.Events.MountRoutes(r)
			}
		})
	}
	if h.Attendees != nil {
		r.Route("/attendee", h.Attendees.MountRoutes)
	}
	if h.Reservations != nil {
		r.Route("/reservation", h.Reservations.MountRoutes)
	}
}
