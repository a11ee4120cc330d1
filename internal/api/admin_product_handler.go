package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"nevermore-backend/internal/service"
)

type AdminProductHandler struct {
	products *service.ProductService
	designs  *service.DesignService
}

func NewAdminProductHandler(products *service.ProductService, designs *service.DesignService) *AdminProductHandler {
	return &AdminProductHandler{products: products, designs: designs}
}

func (h *AdminProductHandler) Create(c echo.Context) error {
	req := service.CreateProductRequest{}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request payload.")
	}

	productID, variantID, err := h.products.CreateProduct(c.Request().Context(), &req)
	if err != nil {
		return failErr(c, err)
	}

	return jsonOK(c, http.StatusCreated, "Product created.", map[string]interface{}{
		"product_id": productID,
		"variant_id": variantID,
	})
}

func (h *AdminProductHandler) Update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid product id.")
	}

	req := service.UpdateProductRequest{}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request payload.")
	}

	product, err := h.products.UpdateProduct(c.Request().Context(), id, &req)
	if err != nil {
		return failErr(c, err)
	}

	return jsonOK(c, http.StatusOK, "Product updated.", map[string]interface{}{"product": product})
}

func (h *AdminProductHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid product id.")
	}

	if err := h.products.DeleteProduct(c.Request().Context(), id); err != nil {
		return failErr(c, err)
	}

	return jsonOK(c, http.StatusOK, "Product deleted.", nil)
}

// UploadImage accepts a multipart file and stores it under the uploads
// directory, returning the public URL for use in product image records.
func (h *AdminProductHandler) UploadImage(c echo.Context) error {
	file, err := c.FormFile("image")
	if err != nil {
		return fail(c, http.StatusBadRequest, "Image file is required.")
	}

	src, err := file.Open()
	if err != nil {
		return fail(c, http.StatusBadRequest, "Could not read uploaded file.")
	}
	defer src.Close()

	url, err := h.designs.SaveProductImage(file.Filename, file.Size, src)
	if err != nil {
		return failErr(c, err)
	}

	return jsonOK(c, http.StatusCreated, "Image uploaded.", map[string]interface{}{"url": url})
}
