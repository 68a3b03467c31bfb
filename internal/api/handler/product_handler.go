package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/supplytrace/provenance/internal/core/domain"
	"github.com/supplytrace/provenance/internal/core/ports"
)

// ProductHandler handles HTTP requests for product provenance.
type ProductHandler struct {
	service  ports.ProvenanceService
	resolver CallerResolver
}

func NewProductHandler(service ports.ProvenanceService, resolver CallerResolver) *ProductHandler {
	return &ProductHandler{service: service, resolver: resolver}
}

// Register handles POST /api/products/register.
//
// @Summary      Register a product on the ledger
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      registerProductRequest  true  "Product attributes"
// @Success      200   {object}  registerProductResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/products/register [post]
func (h *ProductHandler) Register(c echo.Context) error {
	caller, err := ctxCaller(c, h.resolver)
	if err != nil {
		return err
	}

	var req registerProductRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}

	res, err := h.service.Register(c.Request().Context(), caller, domain.ProductAttributes{
		ProductID:         req.ProductID,
		Name:              req.Name,
		BatchNumber:       req.BatchNumber,
		ManufacturingDate: req.ManufacturingDate,
		Description:       req.Description,
		Price:             string(req.Price),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, registerProductResponse{
		Message:   "Product registered successfully",
		ProductID: res.ProductID,
		TxHash:    res.TxHash,
		Artifact:  res.ArtifactPath,
	})
}

// Transfer handles POST /api/products/transfer.
//
// @Summary      Transfer custody of a product
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      transferRequest  true  "Transfer target"
// @Success      200   {object}  transferResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/products/transfer [post]
func (h *ProductHandler) Transfer(c echo.Context) error {
	caller, err := ctxCaller(c, h.resolver)
	if err != nil {
		return err
	}
	if err := domain.AuthorizeTransferSource(caller.Role); err != nil {
		return err
	}

	var req transferRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if req.ToUserType == "" {
		return &domain.ValidationError{Field: "toUserType"}
	}
	toRole, err := domain.ParseRole(req.ToUserType)
	if err != nil {
		return &domain.ValidationError{Field: "toUserType", Reason: "must be Seller or Customer"}
	}

	res, err := h.service.Transfer(c.Request().Context(), caller, ports.TransferInput{
		ProductID:  req.ProductID,
		ToUsername: req.ToUsername,
		ToRole:     toRole,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, transferResponse{
		Message: "Product transferred successfully",
		TxHash:  res.TxHash,
		From:    res.From,
		To:      res.To,
	})
}

// Verify handles POST /api/products/verify/:productId.
//
// @Summary      Verify a product's provenance
// @Tags         products
// @Produce      json
// @Param        productId  path      string  true  "Product ID"
// @Success      200        {object}  verifyResponse
// @Failure      404        {object}  verifyResponse
// @Failure      500        {object}  errorResponse
// @Router       /api/products/verify/{productId} [post]
func (h *ProductHandler) Verify(c echo.Context) error {
	v, err := h.service.Verify(c.Request().Context(), c.Param("productId"))
	if err != nil {
		return err
	}

	if !v.Valid {
		return c.JSON(http.StatusNotFound, verifyResponse{Valid: false, Message: v.Message})
	}
	return c.JSON(http.StatusOK, verifyResponse{
		Valid:        true,
		ProductID:    v.ProductID,
		Manufacturer: v.Manufacturer,
		CurrentOwner: v.CurrentOwner,
	})
}

// Artifact handles GET /api/products/artifact/:productId.
//
// @Summary      Download the verification QR code
// @Tags         products
// @Produce      png
// @Param        productId  path      string  true  "Product ID"
// @Success      200        {file}    binary
// @Failure      404        {object}  errorResponse
// @Failure      500        {object}  errorResponse
// @Router       /api/products/artifact/{productId} [get]
func (h *ProductHandler) Artifact(c echo.Context) error {
	art, err := h.service.Artifact(c.Request().Context(), c.Param("productId"))
	if err != nil {
		return err
	}
	return c.File(art.Path)
}

// History handles GET /api/products/history/:productId.
//
// @Summary      List the recorded custody events of a product
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        productId  path      string  true  "Product ID"
// @Success      200        {object}  historyResponse
// @Failure      401        {object}  errorResponse
// @Failure      500        {object}  errorResponse
// @Router       /api/products/history/{productId} [get]
func (h *ProductHandler) History(c echo.Context) error {
	id := c.Param("productId")
	events, err := h.service.History(c.Request().Context(), id)
	if err != nil {
		return err
	}

	resp := historyResponse{ProductID: id, Events: make([]historyItem, 0, len(events))}
	for _, e := range events {
		resp.Events = append(resp.Events, historyItem{
			Kind:       string(e.Kind),
			Actor:      e.Actor,
			Target:     e.Target,
			TxHash:     e.TxHash,
			RecordedAt: e.RecordedAt,
		})
	}
	return c.JSON(http.StatusOK, resp)
}
