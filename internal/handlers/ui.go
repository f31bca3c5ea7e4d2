package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"avenue/internal/brands"
	"avenue/internal/catalog"
)

const homeProductLimit = 12

type page struct {
	Template string
	Title    string
}

var staticPages = map[string]page{
	"about":   {Template: "about.html", Title: "About Avenue Fashion"},
	"privacy": {Template: "privacy.html", Title: "Privacy Policy"},
	"terms":   {Template: "terms.html", Title: "Terms of Service"},
	"contact": {Template: "contact.html", Title: "Contact Us"},
}

// Home is the storefront feed: every brand plus the newest products.
func Home(brandSvc brands.Service, catalogSvc catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		brandList, err := brandSvc.List(c.Request.Context())
		if err != nil {
			fail(c, err)
			return
		}
		products, err := catalogSvc.ListProducts(c.Request.Context(), catalog.Query{Page: 1, Limit: homeProductLimit})
		if err != nil {
			fail(c, err)
			return
		}
		respondOK(c, "Home fetched", gin.H{
			"brands":   brandList,
			"products": products.Items,
		})
	}
}

func StaticPage() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, found := staticPages[c.Param("slug")]
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"message": "page not found"})
			return
		}
		c.HTML(http.StatusOK, p.Template, gin.H{"title": p.Title})
	}
}
