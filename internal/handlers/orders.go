package handlers

import (
	"github.com/gin-gonic/gin"

	"avenue/internal/orders"
)

type updateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func GetOrderTimeline(svc orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, found := currentUser(c)
		if !found {
			return
		}
		result, err := svc.Timeline(c.Request.Context(), user, c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		respondOK(c, "Order timeline fetched", result)
	}
}

func UpdateOrderStatus(svc orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateOrderStatusRequest
		if !bindJSON(c, &req) {
			return
		}
		order, err := svc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
		if err != nil {
			failAdmin(c, err)
			return
		}
		respondOK(c, "Order status updated", order)
	}
}
