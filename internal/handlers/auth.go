package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"avenue/internal/auth"
)

// Authenticator is satisfied by *auth.Service.
type Authenticator interface {
	Register(ctx context.Context, input auth.RegisterInput) (*auth.Session, error)
	Login(ctx context.Context, input auth.LoginInput) (*auth.Session, error)
}

func Register(svc Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req auth.RegisterInput
		if !bindJSON(c, &req) {
			return
		}
		session, err := svc.Register(c.Request.Context(), req)
		if err != nil {
			fail(c, err)
			return
		}
		respondCreated(c, "Registered", session)
	}
}

func Login(svc Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req auth.LoginInput
		if !bindJSON(c, &req) {
			return
		}
		session, err := svc.Login(c.Request.Context(), req)
		if err != nil {
			fail(c, err)
			return
		}
		respondOK(c, "Logged in", session)
	}
}
