// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/olegiv/eventdesk/internal/config"
	"github.com/olegiv/eventdesk/internal/handler"
	"github.com/olegiv/eventdesk/internal/middleware"
	"github.com/olegiv/eventdesk/internal/render"
	"github.com/olegiv/eventdesk/internal/scheduler"
	"github.com/olegiv/eventdesk/internal/service"
	"github.com/olegiv/eventdesk/internal/version"
	"github.com/olegiv/eventdesk/web"
)

// compressMinSize is the smallest response body worth gzipping.
const compressMinSize = 1024

// app holds everything the router needs.
type app struct {
	cfg             *config.Config
	db              *sql.DB
	dataDir         string
	version         version.Info
	sessionManager  *scs.SessionManager
	renderer        *render.Renderer
	loginProtection *middleware.LoginProtection
	scheduler       *scheduler.Scheduler

	accounts      *service.AccountService
	events        *service.EventService
	registrations *service.RegistrationService
	activity      *service.ActivityService
}

// routes builds the HTTP handler with the full middleware stack.
func (a *app) routes() http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Compress(compressMinSize))
	r.Use(chimw.GetHead)                   // Handle HEAD requests for uptime monitoring
	r.Use(chimw.Timeout(30 * time.Second)) // 30 second request timeout
	r.Use(middleware.StripTrailingSlash)   // Redirect /path/ to /path (301)

	securityConfig := middleware.DefaultSecurityHeadersConfig(a.cfg.IsDevelopment())
	securityConfig.ExcludePaths = []string{handler.RouteHealth}
	r.Use(middleware.SecurityHeaders(securityConfig))
	slog.Info("security headers middleware initialized",
		"hsts", !a.cfg.IsDevelopment(),
		"x_frame_options", securityConfig.FrameOptions,
	)

	r.Use(a.sessionManager.LoadAndSave)
	r.Use(middleware.LoadUser(a.sessionManager, a.db))

	csrfConfig := middleware.DefaultCSRFConfig([]byte(a.cfg.SecretKey), a.cfg.PublicURL(), a.cfg.ServerAddr(), a.cfg.IsDevelopment())
	r.Use(middleware.CSRF(csrfConfig))
	slog.Info("CSRF protection initialized", "trusted_origins", csrfConfig.TrustedOrigins)

	// Defense-in-depth for the anonymous forms: 10 req/s with burst of 20 per IP
	publicRateLimiter := middleware.NewRateLimiter(10.0, 20)

	healthHandler := handler.NewHealthHandler(a.db, a.dataDir, a.version.Short())
	authHandler := handler.NewAuthHandler(a.accounts, a.activity, a.renderer, a.sessionManager, a.loginProtection)
	eventsHandler := handler.NewEventsHandler(a.events, a.registrations, a.activity, a.renderer, a.sessionManager)
	registrationsHandler := handler.NewRegistrationsHandler(a.registrations, a.activity, a.renderer, a.sessionManager)
	usersHandler := handler.NewUsersHandler(a.accounts, a.renderer, a.sessionManager)
	activityHandler := handler.NewActivityHandler(a.activity, a.scheduler, a.renderer, a.sessionManager)

	// Health check routes (public, returns additional details for admins)
	r.Get(handler.RouteHealth, healthHandler.Health)
	r.Get(handler.RouteHealthLive, healthHandler.Liveness)
	r.Get(handler.RouteHealthReady, healthHandler.Readiness)

	r.Handle(handler.RouteStatic, http.StripPrefix("/static/dist", http.FileServerFS(web.StaticFS())))

	r.Get(handler.RouteRoot, authHandler.Home)
	r.Get(handler.RouteLogout, authHandler.Logout)
	r.Post(handler.RouteLogout, authHandler.Logout)

	// Auth routes (public, rate limited; login also gets per-IP throttling and account lockout)
	r.Group(func(r chi.Router) {
		r.Use(publicRateLimiter.Middleware())

		r.Get(handler.RouteLogin, authHandler.LoginForm)
		r.With(a.loginProtection.Middleware()).Post(handler.RouteLogin, authHandler.Login)
		r.Get(handler.RouteSignup, authHandler.SignupForm)
		r.Post(handler.RouteSignup, authHandler.Signup)
		r.Get(handler.RouteForgotPassword, authHandler.ForgotForm)
		r.Post(handler.RouteForgotPassword, authHandler.Forgot)
		r.Get(handler.RouteResetPassword, authHandler.ResetForm)
		r.Post(handler.RouteResetPassword, authHandler.Reset)
	})

	// Signed-in users of any role
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireLogin(a.sessionManager))

		r.Get(handler.RouteDashboard, registrationsHandler.Dashboard)
		r.Get(handler.RouteSearch, eventsHandler.Search)
		r.Post(handler.RouteRegisterEvent, registrationsHandler.RegisterSelf)
	})

	// Admin routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireLogin(a.sessionManager))
		r.Use(middleware.RequireAdmin(a.activity))

		r.Get(handler.RouteAdmin, eventsHandler.List)
		r.Post(handler.RouteAdd, eventsHandler.Create)
		r.Get(handler.RouteEdit, eventsHandler.EditForm)
		r.Post(handler.RouteEdit, eventsHandler.Edit)
		r.Post(handler.RouteUpdate, eventsHandler.Update)
		r.Post(handler.RouteDelete, eventsHandler.Delete)
		r.Get(handler.RouteExport, eventsHandler.Export)

		r.Post(handler.RouteRegister, registrationsHandler.Register)
		r.Get(handler.RouteRegistrations, registrationsHandler.List)
		r.Get(handler.RouteViewRegistration, registrationsHandler.View)
		r.Get(handler.RouteExportRegs, registrationsHandler.Export)

		r.Get(handler.RouteUsers, usersHandler.List)

		r.Get(handler.RouteActivity, activityHandler.List)
		r.Post(handler.RouteRunJob, activityHandler.RunJob)
	})

	return r
}
