package handlers

import (
	authmw "github.com/quilldesk/quilldesk/middleware/auth"
	"github.com/quilldesk/quilldesk/server"
	"github.com/quilldesk/quilldesk/services/cache"
	"github.com/quilldesk/quilldesk/services/logging"
	"github.com/quilldesk/quilldesk/services/token"
	"go.uber.org/fx"
)

func RegisterRoutes(srv *server.Server, h *AuthHandler, tokens *token.Service, store cache.Store, logger *logging.Service) {
	g := srv.Group("/auth")

	g.POST("/signin/password", h.SignInPassword)
	g.POST("/signin/code", h.SignInCode)
	g.POST("/signup", h.SignUp)
	g.POST("/code", h.RequestCode)
	g.POST("/refresh", h.Refresh)
	g.POST("/github", h.GithubSignIn)

	requireAuth := authmw.RequireAuth(tokens, store)
	g.POST("/logout", h.Logout, requireAuth)
	g.GET("/devices", h.Devices, requireAuth)

	if logger != nil {
		logger.Info("auth routes registered")
	}
}

var Module = fx.Options(
	fx.Provide(NewAuthHandler),
	fx.Invoke(RegisterRoutes),
)
