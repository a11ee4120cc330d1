package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"nevermore-backend/internal/service"
)

type ProductHandler struct {
	products *service.ProductService
}

func NewProductHandler(products *service.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

func (h *ProductHandler) Index(c echo.Context) error {
	products, err := h.products.List(c.Request().Context(), c.QueryParam("category"))
	if err != nil {
		return failErr(c, err)
	}
	return jsonOK(c, http.StatusOK, "", map[string]interface{}{"products": products})
}

func (h *ProductHandler) Show(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid product id.")
	}

	product, err := h.products.Get(c.Request().Context(), id)
	if err != nil {
		return failErr(c, err)
	}

	return jsonOK(c, http.StatusOK, "", map[string]interface{}{"product": product})
}

func (h *ProductHandler) Variations(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid product id.")
	}

	variants, err := h.products.Variations(c.Request().Context(), id)
	if err != nil {
		return failErr(c, err)
	}

	return jsonOK(c, http.StatusOK, "", map[string]interface{}{"variations": variants})
}

func (h *ProductHandler) Search(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	products, err := h.products.Search(c.Request().Context(), c.QueryParam("q"), limit, offset)
	if err != nil {
		return failErr(c, err)
	}

	return jsonOK(c, http.StatusOK, "", map[string]interface{}{"products": products})
}

func (h *ProductHandler) Popular(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	days, _ := strconv.Atoi(c.QueryParam("days"))

	products, err := h.products.Popular(c.Request().Context(), limit, days)
	if err != nil {
		return failErr(c, err)
	}

	return jsonOK(c, http.StatusOK, "", map[string]interface{}{"products": products})
}

func (h *ProductHandler) TrackClick(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid product id.")
	}

	if err := h.products.TrackClick(c.Request().Context(), id); err != nil {
		return failErr(c, err)
	}

	return jsonOK(c, http.StatusOK, "Click recorded.", nil)
}

func (h *ProductHandler) Categories(c echo.Context) error {
	categories, err := h.products.Categories(c.Request().Context())
	if err != nil {
		return failErr(c, err)
	}
	return jsonOK(c, http.StatusOK, "", map[string]interface{}{"categories": categories})
}

func (h *ProductHandler) CategoryImages(c echo.Context) error {
	images, err := h.products.CategoryImages(c.Request().Context())
	if err != nil {
		return failErr(c, err)
	}
	return jsonOK(c, http.StatusOK, "", map[string]interface{}{"images": images})
}
