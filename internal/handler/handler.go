package handler

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"hospital-management-api/internal/booking"
	"hospital-management-api/internal/middleware"
	"hospital-management-api/internal/model"
	"hospital-management-api/internal/notify"
)

// Store is everything the HTTP layer reads or writes directly. Booking goes
// through booking.Service.
type Store interface {
	booking.Store

	CreateUser(ctx context.Context, u *model.User) error
	UserByEmail(ctx context.Context, email string) (*model.User, error)

	CreateDoctor(ctx context.Context, u *model.User, d *model.Doctor) error
	ListDoctors(ctx context.Context) ([]model.Doctor, error)
	UpdateDoctor(ctx context.Context, d *model.Doctor) error
	DeleteDoctor(ctx context.Context, id string) error

	CreatePatient(ctx context.Context, p *model.Patient) error
	ListPatients(ctx context.Context) ([]model.Patient, error)
	UpdatePatient(ctx context.Context, p *model.Patient) error
	DeletePatient(ctx context.Context, id string) error

	Counts(ctx context.Context, from, to time.Time) (model.Counts, error)
	RecentActivity(ctx context.Context, from, to time.Time, limit int) ([]model.Activity, error)
	SearchPatients(ctx context.Context, q string) ([]model.Patient, error)
	SearchDoctors(ctx context.Context, q string) ([]model.Doctor, error)
}

type Handler struct {
	store   Store
	booking *booking.Service
	secret  string
	ttl     time.Duration
	hub     *notify.Hub
	log     zerolog.Logger
}

// New wires the handlers. hub may be nil, in which case the websocket route
// answers 503.
func New(st Store, svc *booking.Service, secret string, ttl time.Duration, hub *notify.Hub, log zerolog.Logger) *Handler {
	return &Handler{store: st, booking: svc, secret: secret, ttl: ttl, hub: hub, log: log}
}

// Routes mounts the API under /api. rl guards the public auth endpoints.
func (h *Handler) Routes(e *echo.Echo, rl *middleware.RateLimiter) {
	api := e.Group("/api")
	authed := middleware.Auth(h.secret, h.store)
	admin := middleware.RequireRole(model.RoleAdmin)
	staff := middleware.RequireRole(model.RoleAdmin, model.RoleDoctor)
	doctor := middleware.RequireRole(model.RoleDoctor)

	a := api.Group("/auth")
	a.POST("/register", h.Register, middleware.RateLimit(rl))
	a.POST("/login", h.Login, middleware.RateLimit(rl))
	a.GET("/me", h.Me, authed)

	p := api.Group("/patients", authed)
	p.GET("", h.ListPatients, staff)
	p.GET("/", h.ListPatients, staff)
	p.GET("/:id", h.GetPatient, staff)
	p.POST("/create", h.CreatePatient, admin)
	p.PUT("/:id", h.UpdatePatient, admin)
	p.PUT("/update/:id", h.UpdatePatient, admin)
	p.DELETE("/:id", h.DeletePatient, admin)
	p.DELETE("/delete/:id", h.DeletePatient, admin)

	d := api.Group("/doctors", authed)
	d.GET("", h.ListDoctors, staff)
	d.GET("/", h.ListDoctors, staff)
	d.GET("/:id", h.GetDoctor, staff)
	d.POST("/create", h.CreateDoctor, admin)
	d.PUT("/:id", h.UpdateDoctor, admin)
	d.PUT("/update/:id", h.UpdateDoctor, admin)
	d.DELETE("/:id", h.DeleteDoctor, admin)
	d.DELETE("/delete/:id", h.DeleteDoctor, admin)

	ap := api.Group("/appointments", authed)
	ap.GET("", h.ListAppointments, staff)
	ap.GET("/", h.ListAppointments, staff)
	ap.POST("/create", h.CreateAppointment, admin)
	ap.DELETE("/delete/:id", h.DeleteAppointment, admin)
	ap.PATCH("/:id/status", h.SetAppointmentStatus, staff)
	ap.GET("/my-today", h.MyToday, doctor)
	ap.GET("/ws", h.Watch, doctor)

	api.GET("/dashboard", h.Dashboard, authed, admin)
	api.GET("/search", h.Search, authed, staff)
}
