package handlers

import (
	"github.com/gin-gonic/gin"

	"avenue/internal/geo"
)

func ListCountries(svc geo.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		countries, err := svc.ListCountries(c.Request.Context())
		if err != nil {
			fail(c, err)
			return
		}
		respondOK(c, "Countries fetched", countries)
	}
}

func ListCounties(svc geo.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		counties, err := svc.ListCounties(c.Request.Context(), c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		respondOK(c, "Counties fetched", counties)
	}
}

func ListCities(svc geo.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		cities, err := svc.ListCities(c.Request.Context(), c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		respondOK(c, "Cities fetched", cities)
	}
}

func CreateCountry(svc geo.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req geo.CountryInput
		if !bindJSON(c, &req) {
			return
		}
		country, err := svc.CreateCountry(c.Request.Context(), req)
		if err != nil {
			failAdmin(c, err)
			return
		}
		respondCreated(c, "Country created", country)
	}
}

func CreateCounty(svc geo.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req geo.CountyInput
		if !bindJSON(c, &req) {
			return
		}
		county, err := svc.CreateCounty(c.Request.Context(), req)
		if err != nil {
			failAdmin(c, err)
			return
		}
		respondCreated(c, "County created", county)
	}
}

func CreateCity(svc geo.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req geo.CityInput
		if !bindJSON(c, &req) {
			return
		}
		city, err := svc.CreateCity(c.Request.Context(), req)
		if err != nil {
			failAdmin(c, err)
			return
		}
		respondCreated(c, "City created", city)
	}
}

func UpdateCountry(svc geo.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req geo.NodePatch
		if !bindJSON(c, &req) {
			return
		}
		country, err := svc.PatchCountry(c.Request.Context(), c.Param("id"), req)
		if err != nil {
			failAdmin(c, err)
			return
		}
		respondOK(c, "Country updated", country)
	}
}

func UpdateCounty(svc geo.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req geo.NodePatch
		if !bindJSON(c, &req) {
			return
		}
		county, err := svc.PatchCounty(c.Request.Context(), c.Param("id"), req)
		if err != nil {
			failAdmin(c, err)
			return
		}
		respondOK(c, "County updated", county)
	}
}

func UpdateCity(svc geo.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req geo.CityPatch
		if !bindJSON(c, &req) {
			return
		}
		city, err := svc.PatchCity(c.Request.Context(), c.Param("id"), req)
		if err != nil {
			failAdmin(c, err)
			return
		}
		respondOK(c, "City updated", city)
	}
}
