package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/omriShneor/planit/internal/auth"
	"github.com/omriShneor/planit/internal/chat"
	"github.com/omriShneor/planit/internal/database"
	"github.com/omriShneor/planit/internal/gcal"
	"github.com/omriShneor/planit/internal/notify"
)

// EventMirror keeps an external calendar in step with manual event edits.
type EventMirror interface {
	chat.Mirror
	UpdateMirroredEvent(ctx context.Context, event *database.Event) error
	RemoveMirroredEvent(ctx context.Context, event *database.Event) error
}

type Server struct {
	db             *database.DB
	pipeline       *chat.Pipeline
	notifyService  *notify.Service
	gcalClient     *gcal.Client
	mirror         EventMirror
	authService    *auth.Service
	authMiddleware *auth.Middleware
	logger         *slog.Logger
	appURL         string
	httpSrv        *http.Server
	port           int
}

// ServerConfig holds the dependencies the server is built from. Only DB,
// Pipeline and AuthService are required.
type ServerConfig struct {
	DB            *database.DB
	Pipeline      *chat.Pipeline
	NotifyService *notify.Service
	GCalClient    *gcal.Client
	Mirror        EventMirror
	AuthService   *auth.Service
	Logger        *slog.Logger
	Port          int
	// AppURL is the public base URL used in invite links.
	AppURL string
}

func New(cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		db:             cfg.DB,
		pipeline:       cfg.Pipeline,
		notifyService:  cfg.NotifyService,
		gcalClient:     cfg.GCalClient,
		mirror:         cfg.Mirror,
		authService:    cfg.AuthService,
		authMiddleware: auth.NewMiddleware(cfg.AuthService),
		logger:         logger,
		appURL:         strings.TrimRight(cfg.AppURL, "/"),
		port:           cfg.Port,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.requestIDMiddleware(s.recoverMiddleware(s.loggingMiddleware(s.corsMiddleware(mux)))),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // chat requests wait on the model
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	protected := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, s.authMiddleware.RequireAuth(h))
	}

	// Health check
	mux.HandleFunc("GET /health", s.handleHealthCheck)

	// Session
	protected("GET /api/me", s.handleGetMe)
	protected("PUT /api/me/timezone", s.handleUpdateTimezone)
	protected("POST /api/auth/logout", s.handleLogout)

	// Chat assistant
	protected("POST /api/events/chat", s.handleChat)

	// Events API
	protected("GET /api/events", s.handleListEvents)
	protected("POST /api/events", s.handleCreateEvent)
	protected("GET /api/events/{id}", s.handleGetEvent)
	protected("PUT /api/events/{id}", s.handleUpdateEvent)
	protected("DELETE /api/events/{id}", s.handleDeleteEvent)
	protected("POST /event", s.handleCollaboratorCreateEvent)

	// Calendars API
	protected("GET /api/calendars", s.handleListCalendars)
	protected("POST /api/calendars", s.handleCreateCalendar)
	protected("GET /api/calendars/{id}", s.handleGetCalendar)
	protected("PUT /api/calendars/{id}", s.handleUpdateCalendar)
	protected("DELETE /api/calendars/{id}", s.handleDeleteCalendar)
	protected("GET /api/calendars/{id}/ics", s.handleExportCalendar)
	protected("POST /api/calendars/{id}/import", s.handleImportCalendar)
	protected("PUT /api/calendars/{id}/google", s.handleLinkGoogleCalendar)

	// Google Calendar API
	protected("GET /api/gcal/status", s.handleGCalStatus)
	protected("GET /api/gcal/calendars", s.handleGCalListCalendars)

	// Groups API
	protected("GET /api/groups", s.handleListGroups)
	protected("POST /api/groups", s.handleCreateGroup)
	protected("POST /api/groups/join", s.handleJoinGroup)
	protected("GET /api/groups/{id}", s.handleGetGroup)
	protected("DELETE /api/groups/{id}", s.handleDeleteGroup)
	protected("POST /api/groups/{id}/leave", s.handleLeaveGroup)
	protected("DELETE /api/groups/{id}/members/{userId}", s.handleRemoveGroupMember)
	protected("GET /api/groups/{id}/invite.png", s.handleGroupInviteQR)

	// Templates API
	protected("GET /api/templates", s.handleListTemplates)
	protected("POST /api/templates", s.handleCreateTemplate)
	protected("DELETE /api/templates/{id}", s.handleDeleteTemplate)
	protected("POST /api/templates/{id}/apply", s.handleApplyTemplate)

	// Savings API
	protected("GET /api/transactions", s.handleListTransactions)
	protected("POST /api/transactions", s.handleCreateTransaction)
	protected("GET /api/transactions/summary", s.handleSavingsSummary)
	protected("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	// Celebration plans API
	protected("GET /api/plans", s.handleListPlans)
	protected("POST /api/plans", s.handleCreatePlan)
	protected("GET /api/plans/{id}", s.handleGetPlan)
	protected("PUT /api/plans/{id}", s.handleUpdatePlan)
	protected("DELETE /api/plans/{id}", s.handleDeletePlan)

	// Notification Preferences API
	protected("GET /api/notifications/preferences", s.handleGetNotificationPrefs)
	protected("PUT /api/notifications/email", s.handleUpdateEmailPrefs)
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", fmt.Sprintf("http://localhost:%d", s.port))
	return s.httpSrv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// Handler returns the server's HTTP handler for testing purposes
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}
