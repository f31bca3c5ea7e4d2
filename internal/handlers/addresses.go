package handlers

import (
	"github.com/gin-gonic/gin"

	"avenue/internal/addresses"
)

func GetUserAddresses(svc addresses.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, found := currentUser(c)
		if !found {
			return
		}
		list, err := svc.List(c.Request.Context(), user)
		if err != nil {
			fail(c, err)
			return
		}
		respondOK(c, "Addresses fetched", list)
	}
}

func CreateUserAddress(svc addresses.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, found := currentUser(c)
		if !found {
			return
		}
		var req addresses.Input
		if !bindJSON(c, &req) {
			return
		}
		address, err := svc.Create(c.Request.Context(), user, req)
		if err != nil {
			fail(c, err)
			return
		}
		respondCreated(c, "Address created", address)
	}
}

func SetDefaultUserAddress(svc addresses.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, found := currentUser(c)
		if !found {
			return
		}
		address, err := svc.SetDefault(c.Request.Context(), user, c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		respondOK(c, "Default address updated", address)
	}
}

func DeleteUserAddress(svc addresses.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, found := currentUser(c)
		if !found {
			return
		}
		if err := svc.Delete(c.Request.Context(), user, c.Param("id")); err != nil {
			fail(c, err)
			return
		}
		respondOK(c, "Address deleted", nil)
	}
}
