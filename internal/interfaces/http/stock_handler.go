package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/pos-ledger/internal/application/dto"
	"github.com/tu-usuario/pos-ledger/internal/application/stock"
	"github.com/tu-usuario/pos-ledger/internal/domain"
	"github.com/tu-usuario/pos-ledger/internal/domain/entity"
)

// StockHandler maneja el ledger de stock: movimientos manuales, traslados,
// débitos de venta, reversas y consultas de stock por ubicación/agregado.
type StockHandler struct {
	movementUC *stock.MovementUseCase
	saleUC     *stock.SaleUseCase
}

// NewStockHandler construye el handler de stock.
func NewStockHandler(movementUC *stock.MovementUseCase, saleUC *stock.SaleUseCase) *StockHandler {
	return &StockHandler{movementUC: movementUC, saleUC: saleUC}
}

// RecordMovement godoc
// @Summary      Registrar movimiento manual de stock
// @Description  manual_in, manual_out o adjustment. location_id vacío opera sobre el stock agregado.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        body  body  dto.StockMovementRequest  true  "movimiento"
// @Success      201   {object}  dto.StockMovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/stock/movements [post]
func (h *StockHandler) RecordMovement(c *fiber.Ctx) error {
	var in dto.StockMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	movement, err := h.movementUC.RecordMovement(c.UserContext(), stock.MovementInput{
		ProductID:   in.ProductID,
		VariationID: in.VariationID,
		LocationID:  in.LocationID,
		Type:        in.Type,
		Quantity:    in.Quantity,
		Reason:      in.Reason,
		ActorID:     GetUserID(c),
	})
	if err != nil {
		return stockError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(movementResponse(movement))
}

// Transfer godoc
// @Summary      Trasladar stock entre ubicaciones físicas
// @Description  Genera transfer_out en origen y transfer_in en destino en una sola transacción.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "traslado"
// @Success      204   "sin contenido"
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/stock/transfers [post]
func (h *StockHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	err := h.movementUC.Transfer(c.UserContext(), stock.TransferInput{
		ProductID:      in.ProductID,
		VariationID:    in.VariationID,
		FromLocationID: in.FromLocationID,
		ToLocationID:   in.ToLocationID,
		Quantity:       in.Quantity,
		Reason:         in.Reason,
		ActorID:        GetUserID(c),
	})
	if err != nil {
		return stockError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SaleDebit godoc
// @Summary      Debitar stock por una línea de venta
// @Description  Resuelve el canal (online o tienda física), elige la ubicación y descuenta bajo bloqueo de fila.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SaleDebitRequest  true  "línea de venta"
// @Success      200   {object}  dto.SaleDebitResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/stock/sale-debits [post]
func (h *StockHandler) SaleDebit(c *fiber.Ctx) error {
	var in dto.SaleDebitRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	result, err := h.saleUC.RecordSaleDebit(c.UserContext(), stock.SaleDebitInput{
		ProductID:   in.ProductID,
		VariationID: in.VariationID,
		Quantity:    in.Quantity,
		LocationID:  in.LocationID,
		SaleID:      in.SaleID,
		ActorID:     GetUserID(c),
	})
	if err != nil {
		return stockError(c, err)
	}
	return c.JSON(dto.SaleDebitResponse{
		LocationDebited: result.LocationID,
		Previous:        result.Previous,
		New:             result.New,
	})
}

// ReverseSale godoc
// @Summary      Reversar el débito de stock de una venta cancelada
// @Description  Acredita cada débito de la venta (hasta la cantidad pedida) y anexa sale_cancellation_credit. Nunca falla por estado del dominio.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReverseSaleRequest  true  "reversa"
// @Success      204   "sin contenido"
// @Failure      400   {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/stock/sale-reversals [post]
func (h *StockHandler) ReverseSale(c *fiber.Ctx) error {
	var in dto.ReverseSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.SaleID == "" || in.ProductID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "sale_id y product_id son requeridos"})
	}
	if err := h.saleUC.ReverseSale(c.UserContext(), in.SaleID, in.ProductID, in.Quantity, GetUserID(c)); err != nil {
		return stockError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetAggregateStock godoc
// @Summary      Stock agregado (online) de un producto
// @Tags         stock
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  dto.AggregateStockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/stock/products/{id}/aggregate [get]
func (h *StockHandler) GetAggregateStock(c *fiber.Ctx) error {
	productID := c.Params("id")
	qty, err := h.movementUC.GetAggregateStock(c.UserContext(), productID)
	if err != nil {
		return stockError(c, err)
	}
	return c.JSON(dto.AggregateStockResponse{ProductID: productID, AggregateStock: qty})
}

// GetLocationStock godoc
// @Summary      Stock actual de un producto en una ubicación
// @Description  Devuelve 0 si no existe proyección para la clave.
// @Tags         stock
// @Produce      json
// @Param        id           path   string  true   "Product ID"
// @Param        locationId   path   string  true   "Location ID"
// @Param        variation_id query  string  false  "Variation ID"
// @Success      200  {object}  dto.LocationStockResponse
// @Security     BearerAuth
// @Router       /api/stock/products/{id}/locations/{locationId} [get]
func (h *StockHandler) GetLocationStock(c *fiber.Ctx) error {
	productID := c.Params("id")
	locationID := c.Params("locationId")
	variationID := c.Query("variation_id")
	qty, err := h.movementUC.GetLocationStock(c.UserContext(), productID, locationID, variationID)
	if err != nil {
		return stockError(c, err)
	}
	return c.JSON(dto.LocationStockResponse{
		ProductID:   productID,
		LocationID:  locationID,
		VariationID: variationID,
		Quantity:    qty,
	})
}

// Recalculate godoc
// @Summary      Recalcular el stock agregado de un producto
// @Description  Suma las proyecciones por ubicación y escribe el agregado solo si difiere (idempotente).
// @Tags         stock
// @Produce      json
// @Param        id   path  string  true  "Product ID"
// @Success      204  "sin contenido"
// @Failure      404  {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/stock/products/{id}/recalculate [post]
func (h *StockHandler) Recalculate(c *fiber.Ctx) error {
	if err := h.movementUC.Recalculate(c.UserContext(), c.Params("id")); err != nil {
		return stockError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListMovements godoc
// @Summary      Historial del ledger de stock
// @Description  Filtra por product_id o location_id (exactamente uno), con rango de fechas RFC3339.
// @Tags         stock
// @Produce      json
// @Param        product_id   query  string  false  "Product ID"
// @Param        location_id  query  string  false  "Location ID"
// @Param        from         query  string  false  "Desde (RFC3339)"
// @Param        to           query  string  false  "Hasta (RFC3339)"
// @Param        limit        query  int     false  "Límite (default 20)"
// @Param        offset       query  int     false  "Offset"
// @Success      200  {array}   dto.StockMovementResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/stock/movements [get]
func (h *StockHandler) ListMovements(c *fiber.Ctx) error {
	productID := c.Query("product_id")
	locationID := c.Query("location_id")
	if (productID == "") == (locationID == "") {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "indicar product_id o location_id (exactamente uno)"})
	}
	from, to, err := parseDateRange(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: err.Error()})
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "query inválido"})
	}
	page.DefaultPage()

	var movements []*entity.StockMovement
	if productID != "" {
		movements, err = h.movementUC.ListByProduct(c.UserContext(), productID, from, to, page.Limit, page.Offset)
	} else {
		movements, err = h.movementUC.ListByLocation(c.UserContext(), locationID, from, to, page.Limit, page.Offset)
	}
	if err != nil {
		return stockError(c, err)
	}
	out := make([]dto.StockMovementResponse, 0, len(movements))
	for _, m := range movements {
		out = append(out, movementResponse(m))
	}
	return c.JSON(out)
}

// stockError mapea errores de dominio del stock a códigos HTTP.
func stockError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrInsufficientStock):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}

func movementResponse(m *entity.StockMovement) dto.StockMovementResponse {
	return dto.StockMovementResponse{
		ID:            m.ID,
		ProductID:     m.ProductID,
		VariationID:   m.VariationID,
		LocationID:    m.LocationID,
		Type:          m.Type,
		Quantity:      m.Quantity,
		PreviousStock: m.PreviousStock,
		NewStock:      m.NewStock,
		Reason:        m.Reason,
		RelatedSaleID: m.RelatedSaleID,
		StockScope:    m.StockScope,
		CreatedAt:     m.CreatedAt,
		CreatedBy:     m.CreatedBy,
	}
}

// parseDateRange lee from/to en RFC3339 del query string.
func parseDateRange(c *fiber.Ctx) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if s := c.Query("from"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, nil, errors.New("from debe ser RFC3339")
		}
		from = &t
	}
	if s := c.Query("to"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, nil, errors.New("to debe ser RFC3339")
		}
		to = &t
	}
	return from, to, nil
}
