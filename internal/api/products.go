package api

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iyoadidey/mother-julie/internal/config"
	"github.com/iyoadidey/mother-julie/internal/entity"
	"github.com/iyoadidey/mother-julie/internal/repository"
	"github.com/iyoadidey/mother-julie/internal/service"
)

type ProductHandler struct {
	productService *service.ProductService
}

func NewProductHandler(productService *service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// ListProducts returns the catalog grouped by category --> GET /api/products/
func (h *ProductHandler) ListProducts(c echo.Context) error {
	grouped, err := h.productService.GetProductsByCategory(c.Request().Context())
	if err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	return c.JSON(200, grouped)
}

// ListPublicProducts is the customer-facing flat catalog --> GET /api/products/public/
func (h *ProductHandler) ListPublicProducts(c echo.Context) error {
	products, err := h.productService.GetProducts(c.Request().Context())
	if err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	if products == nil {
		products = []entity.Product{}
	}
	return c.JSON(200, products)
}

// CreateProduct adds a product, multipart form with optional image
// --> POST /api/products/create/
func (h *ProductHandler) CreateProduct(c echo.Context) error {
	product, err := h.bindProductForm(c)
	if err != nil {
		return c.JSON(400, map[string]string{"error": err.Error()})
	}

	created, err := h.productService.CreateProduct(c.Request().Context(), product)
	if err != nil {
		if errors.Is(err, service.ErrInvalidProduct) {
			return c.JSON(400, map[string]string{"error": err.Error()})
		}
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	return c.JSON(200, created)
}

// UpdateProduct edits a product --> POST /api/products/:id/update/
func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid ID"})
	}

	product, err := h.bindProductForm(c)
	if err != nil {
		return c.JSON(400, map[string]string{"error": err.Error()})
	}
	product.ID = id

	updated, err := h.productService.UpdateProduct(c.Request().Context(), product)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidProduct):
			return c.JSON(400, map[string]string{"error": err.Error()})
		case errors.Is(err, repository.ErrProductNotFound):
			return c.JSON(404, map[string]string{"error": err.Error()})
		}
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	return c.JSON(200, updated)
}

// DeleteProduct removes a product --> POST /api/products/:id/delete/
func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid ID"})
	}
	if !confirmed(c) {
		return c.JSON(400, map[string]string{"error": "Confirmation required"})
	}

	if err := h.productService.DeleteProduct(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return c.JSON(404, map[string]string{"error": err.Error()})
		}
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	return c.JSON(200, map[string]bool{"success": true})
}

func (h *ProductHandler) bindProductForm(c echo.Context) (*entity.Product, error) {
	price, _ := strconv.ParseFloat(c.FormValue("price"), 64)
	stock, _ := strconv.Atoi(c.FormValue("stock"))

	product := &entity.Product{
		Name:     c.FormValue("name"),
		Category: c.FormValue("category"),
		Price:    price,
		Stock:    stock,
	}

	if raw := c.FormValue("sizeOptions"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &product.SizeOptions); err != nil {
			return nil, errors.New("invalid size options")
		}
	}

	image, err := h.saveImage(c)
	if err != nil {
		return nil, err
	}
	product.Image = image

	return product, nil
}

// saveImage stores an uploaded product picture and returns its serving path.
// No file uploaded is not an error; the service falls back to a category
// default image.
func (h *ProductHandler) saveImage(c echo.Context) (string, error) {
	file, err := c.FormFile("image")
	if err != nil {
		return "", nil
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	uploadDir := config.Env("UPLOAD_DIR", "uploads")
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return "", err
	}

	name := uuid.NewString() + filepath.Ext(file.Filename)
	dst, err := os.Create(filepath.Join(uploadDir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return "/uploads/" + name, nil
}
