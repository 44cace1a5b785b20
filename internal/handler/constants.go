// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

// Route pattern constants for chi router registration.
const (
	RouteRoot             = "/"
	RouteHealth           = "/health"
	RouteHealthLive       = "/health/live"
	RouteHealthReady      = "/health/ready"
	RouteStatic           = "/static/dist/*"
	RouteSignup           = "/signup"
	RouteLogin            = "/login"
	RouteLogout           = "/logout"
	RouteForgotPassword   = "/forgot-password"
	RouteResetPassword    = "/reset-password/{token}"
	RouteDashboard        = "/dashboard"
	RouteSearch           = "/search"
	RouteRegisterEvent    = "/register_event/{id}"
	RouteAdmin            = "/admin"
	RouteAdd              = "/add"
	RouteEdit             = "/edit/{id}"
	RouteUpdate           = "/update"
	RouteDelete           = "/delete/{id}"
	RouteRegister         = "/register"
	RouteRegistrations    = "/registrations"
	RouteViewRegistration = "/view_registration/{id}"
	RouteUsers            = "/users"
	RouteExport           = "/export"
	RouteExportRegs       = "/export/registrations"
	RouteActivity         = "/activity"
	RouteRunJob           = "/activity/jobs/{name}/run"
)

// Redirect targets.
const (
	redirectLogin     = RouteLogin
	redirectSignup    = RouteSignup
	redirectForgot    = RouteForgotPassword
	redirectAdmin     = RouteAdmin
	redirectDashboard = RouteDashboard
	redirectActivity  = RouteActivity
)

// Page template names.
const (
	pageLogin              = "auth/login"
	pageSignup             = "auth/signup"
	pageForgot             = "auth/forgot"
	pageReset              = "auth/reset"
	pageEvents             = "admin/events"
	pageEdit               = "admin/edit"
	pageRegistrations      = "admin/registrations"
	pageEventRegistrations = "admin/event_registrations"
	pageUsers              = "admin/users"
	pageActivity           = "admin/activity"
	pageDashboard          = "user/dashboard"
)

// Flash messages not owned by the service layer.
const (
	msgInvalidForm     = "Invalid form data."
	msgInvalidID       = "Invalid event id."
	msgEventAdded      = "Event added successfully!"
	msgEventUpdated    = "Event updated successfully!"
	msgEventDeleted    = "Event deleted successfully!"
	msgRegistered      = "Registration successful!"
	msgSignedUp        = "Account created. You can now log in."
	msgLoggedOut       = "You have been logged out."
	msgResetSent       = "If an account exists for that email, a reset link has been sent."
	msgPasswordReset   = "Your password has been reset. Please log in."
	msgCredsRequired   = "Email and password are required."
	msgAccountLocked   = "Account temporarily locked. Try again in %s."
	msgTooManyAttempts = "Too many failed attempts. Account locked for %s."
	msgAttemptsLeft    = "Invalid email or password. %d attempts remaining."
	msgJobTriggered    = "Job %q ran successfully."
	msgJobFailed       = "Job %q failed: %v"
)

const activityPerPage = 50
