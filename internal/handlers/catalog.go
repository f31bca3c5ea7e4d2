package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"avenue/internal/catalog"
)

/*
GET /api/products
- page + limit optional; without them every active product is returned
- brand filters by brand id
*/
func ListProducts(svc catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			fail(c, err)
			return
		}
		result, err := svc.ListProducts(c.Request.Context(), catalog.Query{
			Brand: strings.TrimSpace(c.Query("brand")),
			Page:  page,
			Limit: limit,
		})
		if err != nil {
			fail(c, err)
			return
		}
		respondOK(c, "Products fetched", result)
	}
}

func CreateProduct(svc catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req catalog.ProductInput
		if !bindJSON(c, &req) {
			return
		}
		product, err := svc.CreateProduct(c.Request.Context(), req)
		if err != nil {
			failAdmin(c, err)
			return
		}
		respondCreated(c, "Product created", product)
	}
}
