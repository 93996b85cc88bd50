package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/pos-ledger/internal/application/dto"
	"github.com/tu-usuario/pos-ledger/internal/application/register"
	"github.com/tu-usuario/pos-ledger/internal/domain"
	"github.com/tu-usuario/pos-ledger/internal/domain/entity"
)

// RegisterHandler maneja el ledger de caja registradora por ubicación.
type RegisterHandler struct {
	uc *register.UseCase
}

// NewRegisterHandler construye el handler de caja.
func NewRegisterHandler(uc *register.UseCase) *RegisterHandler {
	return &RegisterHandler{uc: uc}
}

// Open godoc
// @Summary      Abrir la caja de una ubicación
// @Tags         registers
// @Accept       json
// @Produce      json
// @Param        locationId  path  string                   true  "Location ID"
// @Param        body        body  dto.OpenRegisterRequest  true  "monto inicial"
// @Success      201   {object}  dto.RegisterStateResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/registers/{locationId}/open [post]
func (h *RegisterHandler) Open(c *fiber.Ctx) error {
	var in dto.OpenRegisterRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	state, err := h.uc.Open(c.UserContext(), c.Params("locationId"), GetUserID(c), in.InitialAmount)
	if err != nil {
		return registerError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(stateResponse(state))
}

// AppendMovement godoc
// @Summary      Registrar movimiento de caja
// @Description  add, remove o adjustment. adjustment fija el monto absoluto.
// @Tags         registers
// @Accept       json
// @Produce      json
// @Param        locationId  path  string                       true  "Location ID"
// @Param        body        body  dto.RegisterMovementRequest  true  "movimiento"
// @Success      201   {object}  dto.RegisterStateResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/registers/{locationId}/movements [post]
func (h *RegisterHandler) AppendMovement(c *fiber.Ctx) error {
	var in dto.RegisterMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	state, err := h.uc.AppendMovement(c.UserContext(), c.Params("locationId"), GetUserID(c), in.Type, in.Amount, in.Notes)
	if err != nil {
		return registerError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(stateResponse(state))
}

// Close godoc
// @Summary      Cerrar la caja de una ubicación
// @Description  final_amount opcional: si falta, se arrastra el último monto conocido.
// @Tags         registers
// @Accept       json
// @Produce      json
// @Param        locationId  path  string                    true  "Location ID"
// @Param        body        body  dto.CloseRegisterRequest  true  "cierre"
// @Success      200   {object}  dto.RegisterStateResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/registers/{locationId}/close [post]
func (h *RegisterHandler) Close(c *fiber.Ctx) error {
	var in dto.CloseRegisterRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	state, err := h.uc.Close(c.UserContext(), c.Params("locationId"), GetUserID(c), in.FinalAmount, in.Notes)
	if err != nil {
		return registerError(c, err)
	}
	return c.JSON(stateResponse(state))
}

// GetState godoc
// @Summary      Estado actual de la caja (derivado del último evento)
// @Tags         registers
// @Produce      json
// @Param        locationId  path  string  true  "Location ID"
// @Success      200   {object}  dto.RegisterStateResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/registers/{locationId}/state [get]
func (h *RegisterHandler) GetState(c *fiber.Ctx) error {
	state, err := h.uc.GetState(c.UserContext(), c.Params("locationId"))
	if err != nil {
		return registerError(c, err)
	}
	return c.JSON(stateResponse(state))
}

// ListEvents godoc
// @Summary      Historial del ledger de caja de una ubicación
// @Tags         registers
// @Produce      json
// @Param        locationId  path   string  true   "Location ID"
// @Param        from        query  string  false  "Desde (RFC3339)"
// @Param        to          query  string  false  "Hasta (RFC3339)"
// @Param        limit       query  int     false  "Límite (default 20)"
// @Param        offset      query  int     false  "Offset"
// @Success      200   {array}   dto.RegisterEventResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/registers/{locationId}/events [get]
func (h *RegisterHandler) ListEvents(c *fiber.Ctx) error {
	from, to, err := parseDateRange(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: err.Error()})
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "query inválido"})
	}
	page.DefaultPage()
	events, err := h.uc.ListEvents(c.UserContext(), c.Params("locationId"), from, to, page.Limit, page.Offset)
	if err != nil {
		return registerError(c, err)
	}
	out := make([]dto.RegisterEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, eventResponse(e))
	}
	return c.JSON(out)
}

// registerError mapea errores de dominio de caja a códigos HTTP.
func registerError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrRegisterAlreadyOpen):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "REGISTER_ALREADY_OPEN", Message: err.Error()})
	case errors.Is(err, domain.ErrRegisterNotOpen):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "REGISTER_NOT_OPEN", Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}

func stateResponse(s *register.State) dto.RegisterStateResponse {
	out := dto.RegisterStateResponse{
		LocationID:    s.LocationID,
		IsOpen:        s.IsOpen,
		CurrentAmount: s.CurrentAmount,
		OpeningAmount: s.OpeningAmount,
		OpenedBy:      s.OpenedBy,
		ClosedAt:      s.ClosedAt,
	}
	if !s.OpenedAt.IsZero() {
		openedAt := s.OpenedAt
		out.OpenedAt = &openedAt
	}
	return out
}

func eventResponse(e *entity.CashRegisterEvent) dto.RegisterEventResponse {
	return dto.RegisterEventResponse{
		ID:            e.ID,
		Type:          e.Type,
		InitialAmount: e.InitialAmount,
		CurrentAmount: e.CurrentAmount,
		LocationID:    e.LocationID,
		CreatedBy:     e.CreatedBy,
		Notes:         e.Notes,
		CreatedAt:     e.CreatedAt,
	}
}
