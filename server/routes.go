package server

import (
	"net/http"

	"fastmemo/models"
	"fastmemo/notes"
)

// Route is one entry of the route table. API paths are relative to
// /api/v1; the health check is served at the root.
type Route struct {
	Name   string
	Method string
	Path   string

	// Auth requires a valid session. Roles restricts the route to the
	// listed roles; empty admits every authenticated user.
	Auth  bool
	Roles []models.Role

	RateLimited bool
}

var adminOnly = []models.Role{models.RoleAdmin}

func (s *Server) registerRoutes() {
	health := Route{Name: "HealthCheck", Method: http.MethodGet, Path: "/health"}
	s.router.Handle(health.Path, s.wrap(health, s.health.Check)).Methods(health.Method).Name(health.Name)

	// Authentication
	s.Register(Route{Name: "Signup", Method: http.MethodPost, Path: "/users/signup", RateLimited: true}, s.authHandler.Signup)
	s.Register(Route{Name: "Login", Method: http.MethodPost, Path: "/users/login", RateLimited: true}, s.authHandler.Login)
	s.Register(Route{Name: "Logout", Method: http.MethodGet, Path: "/users/logout", Auth: true}, s.authHandler.Logout)
	s.Register(Route{Name: "ForgotPassword", Method: http.MethodPost, Path: "/users/forgotPassword", RateLimited: true}, s.authHandler.ForgotPassword)
	s.Register(Route{Name: "ResetPassword", Method: http.MethodPatch, Path: "/users/resetPassword/{resetToken}", RateLimited: true}, s.authHandler.ResetPassword)
	s.Register(Route{Name: "UpdateMyPassword", Method: http.MethodPatch, Path: "/users/updateMyPassword", Auth: true}, s.authHandler.UpdateMyPassword)

	// Profile
	s.Register(Route{Name: "GetMe", Method: http.MethodGet, Path: "/users/me", Auth: true}, s.userHandler.GetMe)
	s.Register(Route{Name: "UpdateMe", Method: http.MethodPatch, Path: "/users/me", Auth: true}, s.userHandler.UpdateMe)
	s.Register(Route{Name: "DeleteMe", Method: http.MethodDelete, Path: "/users/me", Auth: true}, s.userHandler.DeleteMe)

	// User administration
	s.Register(Route{Name: "ListUsers", Method: http.MethodGet, Path: "/users", Auth: true, Roles: adminOnly}, s.userHandler.GetUsers)
	s.Register(Route{Name: "CreateUser", Method: http.MethodPost, Path: "/users", Auth: true, Roles: adminOnly}, s.userHandler.CreateUser)
	s.Register(Route{Name: "GetUser", Method: http.MethodGet, Path: "/users/{id}", Auth: true, Roles: adminOnly}, s.userHandler.GetUser)
	s.Register(Route{Name: "UpdateUser", Method: http.MethodPatch, Path: "/users/{id}", Auth: true, Roles: adminOnly}, s.userHandler.UpdateUser)
	s.Register(Route{Name: "DeleteUser", Method: http.MethodDelete, Path: "/users/{id}", Auth: true, Roles: adminOnly}, s.userHandler.DeleteUser)

	// Notes; the fixed views come before /notes/{id}
	s.Register(Route{Name: "ListNotes", Method: http.MethodGet, Path: "/notes", Auth: true}, s.noteHandler.List(notes.ViewNormal))
	s.Register(Route{Name: "CreateNote", Method: http.MethodPost, Path: "/notes", Auth: true}, s.noteHandler.Create)
	s.Register(Route{Name: "ListArchivedNotes", Method: http.MethodGet, Path: "/notes/archive", Auth: true}, s.noteHandler.List(notes.ViewArchive))
	s.Register(Route{Name: "ListTrashedNotes", Method: http.MethodGet, Path: "/notes/trash", Auth: true}, s.noteHandler.List(notes.ViewTrash))
	s.Register(Route{Name: "GetNote", Method: http.MethodGet, Path: "/notes/{id}", Auth: true}, s.noteHandler.Get)
	s.Register(Route{Name: "UpdateNote", Method: http.MethodPatch, Path: "/notes/{id}", Auth: true}, s.noteHandler.Update)
	s.Register(Route{Name: "DeleteNote", Method: http.MethodDelete, Path: "/notes/{id}", Auth: true}, s.noteHandler.Delete)
	s.Register(Route{Name: "TransitionNote", Method: http.MethodPatch, Path: "/notes/{id}/{op:archive|unarchive|trash|restore}", Auth: true}, s.noteHandler.Transition)
	s.Register(Route{Name: "AddNoteImages", Method: http.MethodPost, Path: "/notes/{id}/images", Auth: true}, s.noteHandler.AddImages)
	s.Register(Route{Name: "RemoveNoteImages", Method: http.MethodDelete, Path: "/notes/{id}/images", Auth: true}, s.noteHandler.RemoveImages)
	s.Register(Route{Name: "AddNoteLabels", Method: http.MethodPost, Path: "/notes/{id}/labels", Auth: true}, s.noteHandler.AddLabels)
	s.Register(Route{Name: "RemoveNoteLabels", Method: http.MethodDelete, Path: "/notes/{id}/labels", Auth: true}, s.noteHandler.RemoveLabels)

	// Labels
	s.Register(Route{Name: "ListLabels", Method: http.MethodGet, Path: "/labels", Auth: true}, s.noteHandler.Labels)
	s.Register(Route{Name: "ListNotesByLabel", Method: http.MethodGet, Path: "/labels/{label}", Auth: true}, s.noteHandler.List(notes.ViewNormal))
}
