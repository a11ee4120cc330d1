package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"nevermore-backend/internal/service"
)

type DesignHandler struct {
	designs *service.DesignService
}

func NewDesignHandler(designs *service.DesignService) *DesignHandler {
	return &DesignHandler{designs: designs}
}

func (h *DesignHandler) Index(c echo.Context) error {
	claims, ok := currentClaims(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "Invalid token.")
	}

	designs, err := h.designs.List(c.Request().Context(), claims.UserID)
	if err != nil {
		return failErr(c, err)
	}

	return jsonOK(c, http.StatusOK, "", map[string]interface{}{"designs": designs})
}

func (h *DesignHandler) Show(c echo.Context) error {
	claims, ok := currentClaims(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "Invalid token.")
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid design id.")
	}

	design, assets, err := h.designs.Get(c.Request().Context(), claims.UserID, id)
	if err != nil {
		return failErr(c, err)
	}

	return jsonOK(c, http.StatusOK, "", map[string]interface{}{
		"design": design,
		"assets": assets,
	})
}

func (h *DesignHandler) Save(c echo.Context) error {
	claims, ok := currentClaims(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "Invalid token.")
	}

	req := service.SaveDesignRequest{}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request payload.")
	}

	id, err := h.designs.Save(c.Request().Context(), claims.UserID, &req)
	if err != nil {
		return failErr(c, err)
	}

	return jsonOK(c, http.StatusOK, "Design saved.", map[string]interface{}{"design_id": id})
}

func (h *DesignHandler) UploadAsset(c echo.Context) error {
	claims, ok := currentClaims(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "Invalid token.")
	}

	designID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid design id.")
	}

	file, err := c.FormFile("asset")
	if err != nil {
		return fail(c, http.StatusBadRequest, "Asset file is required.")
	}

	src, err := file.Open()
	if err != nil {
		return fail(c, http.StatusBadRequest, "Could not read uploaded file.")
	}
	defer src.Close()

	asset, err := h.designs.UploadAsset(c.Request().Context(), claims.UserID, designID, file.Filename, file.Size, src)
	if err != nil {
		return failErr(c, err)
	}

	return jsonOK(c, http.StatusCreated, "Asset uploaded.", map[string]interface{}{"asset": asset})
}
