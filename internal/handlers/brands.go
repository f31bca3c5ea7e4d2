package handlers

import (
	"github.com/gin-gonic/gin"

	"avenue/internal/brands"
)

type createBrandRequest struct {
	Name string `json:"name" binding:"required"`
}

func ListBrands(svc brands.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svc.List(c.Request.Context())
		if err != nil {
			fail(c, err)
			return
		}
		respondOK(c, "Brands fetched", list)
	}
}

func CreateBrand(svc brands.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createBrandRequest
		if !bindJSON(c, &req) {
			return
		}
		brand, err := svc.Create(c.Request.Context(), req.Name)
		if err != nil {
			failAdmin(c, err)
			return
		}
		respondCreated(c, "Brand created", brand)
	}
}
