package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"avenue/internal/models"
	"avenue/internal/push"
)

// PushRegistry is satisfied by *push.Registry.
type PushRegistry interface {
	Subscribe(ctx context.Context, user primitive.ObjectID, input push.SubscribeInput) (*models.PushSubscription, error)
	Unsubscribe(ctx context.Context, user primitive.ObjectID, endpoint string) error
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

func SubscribePush(registry PushRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, found := currentUser(c)
		if !found {
			return
		}
		var req push.SubscribeInput
		if !bindJSON(c, &req) {
			return
		}
		sub, err := registry.Subscribe(c.Request.Context(), user, req)
		if err != nil {
			fail(c, err)
			return
		}
		respondCreated(c, "Subscribed", sub)
	}
}

func UnsubscribePush(registry PushRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, found := currentUser(c)
		if !found {
			return
		}
		var req unsubscribeRequest
		if !bindJSON(c, &req) {
			return
		}
		if err := registry.Unsubscribe(c.Request.Context(), user, req.Endpoint); err != nil {
			fail(c, err)
			return
		}
		respondOK(c, "Unsubscribed", nil)
	}
}

// VAPIDPublicKey hands the browser the application server key it needs
// for PushManager.subscribe.
func VAPIDPublicKey(publicKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		respondOK(c, "VAPID key fetched", gin.H{
			"publicKey": publicKey,
			"enabled":   publicKey != "",
		})
	}
}
