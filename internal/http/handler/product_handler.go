package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sandeepkv93/products-api/internal/http/response"
	"github.com/sandeepkv93/products-api/internal/observability"
	"github.com/sandeepkv93/products-api/internal/repository"
	"github.com/sandeepkv93/products-api/internal/service"
)

type ProductHandler struct {
	svc      service.ProductService
	logger   *slog.Logger
	validate *validator.Validate
}

func NewProductHandler(svc service.ProductService, logger *slog.Logger) *ProductHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProductHandler{svc: svc, logger: logger, validate: newProductValidator()}
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.List(r.Context())
	if err != nil {
		h.internalError(w, r, "failed to list products", err)
		return
	}
	response.JSON(w, r, http.StatusOK, products)
}

func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDFromPath(w, r)
	if !ok {
		return
	}

	product, found, err := h.svc.GetByID(r.Context(), productID)
	if err != nil {
		h.internalError(w, r, "failed to load product", err)
		return
	}
	if !found {
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, product)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, ok := h.bindProduct(w, r)
	if !ok {
		return
	}

	created, err := h.svc.Create(r.Context(), service.CreateProductInput{
		ProductCode: *body.ProductCode,
		Name:        body.Name,
		Price:       body.price(),
	})
	if err != nil {
		h.internalError(w, r, "failed to create product", err)
		return
	}

	observability.Audit(r, "product.create", "product_id", created.ID, "product_code", created.ProductCode)
	w.Header().Set("Location", fmt.Sprintf("/products/%d", created.ID))
	response.JSON(w, r, http.StatusCreated, created)
}

func (h *ProductHandler) Replace(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDFromPath(w, r)
	if !ok {
		return
	}
	body, ok := h.bindProduct(w, r)
	if !ok {
		return
	}

	err := h.svc.Replace(r.Context(), productID, service.ReplaceProductInput{
		ID:          body.id(),
		ProductCode: *body.ProductCode,
		Name:        body.Name,
		Price:       body.price(),
	})
	switch {
	case err == nil:
	case errors.Is(err, service.ErrProductIDMismatch):
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "product id mismatch", nil)
		return
	case errors.Is(err, repository.ErrProductNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
		return
	default:
		h.internalError(w, r, "failed to update product", err)
		return
	}

	observability.Audit(r, "product.replace", "product_id", productID, "product_code", *body.ProductCode)
	response.NoContent(w)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDFromPath(w, r)
	if !ok {
		return
	}

	deleted, err := h.svc.Delete(r.Context(), productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
			return
		}
		h.internalError(w, r, "failed to delete product", err)
		return
	}

	observability.Audit(r, "product.delete", "product_id", deleted.ID, "product_code", deleted.ProductCode)
	response.JSON(w, r, http.StatusOK, deleted)
}

func (h *ProductHandler) bindProduct(w http.ResponseWriter, r *http.Request) (productRequest, bool) {
	body, err := decodeProductRequest(r, h.validate)
	if err == nil {
		observability.RecordMiddlewareValidationEvent(r.Context(), "product_body", "pass")
		return body, true
	}
	observability.RecordMiddlewareValidationEvent(r.Context(), "product_body", "rejected")
	var verr *validationError
	if errors.As(err, &verr) {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "request validation failed",
			map[string]any{"validation_errors": verr.fields})
		return productRequest{}, false
	}
	response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
	return productRequest{}, false
}

func (h *ProductHandler) internalError(w http.ResponseWriter, r *http.Request, message string, err error) {
	h.logger.ErrorContext(r.Context(), message, "error", err, "path", r.URL.Path)
	response.Error(w, r, http.StatusInternalServerError, "INTERNAL", message, nil)
}

func productIDFromPath(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid product id", nil)
		return 0, false
	}
	return id, true
}
