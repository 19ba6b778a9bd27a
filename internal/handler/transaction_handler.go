package handler

import (
	"time"

	"go-pos-api/internal/model"
	"go-pos-api/internal/repository"
	"go-pos-api/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type TransactionHandler struct {
	sales service.SaleService
}

func NewTransactionHandler(sales service.SaleService) *TransactionHandler {
	return &TransactionHandler{sales: sales}
}

func (h *TransactionHandler) Create(c *fiber.Ctx) error {
	var req service.CreateSaleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	trx, err := h.sales.Create(c.UserContext(), &req, actorFromCtx(c))
	if err != nil {
		return fail(c, err)
	}

	return c.Status(201).JSON(fiber.Map{"message": "Transaction created", "data": trx})
}

func (h *TransactionHandler) Cancel(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid transaction ID"})
	}

	var req service.CancelSaleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if err := h.sales.Cancel(c.UserContext(), id, &req, actorFromCtx(c)); err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{"message": "Transaction cancelled"})
}

func (h *TransactionHandler) Get(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid transaction ID"})
	}

	trx, err := h.sales.GetByID(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(trx)
}

func (h *TransactionHandler) List(c *fiber.Ctx) error {
	page, limit := pageParams(c)
	filter := repository.TransactionFilter{
		Status: model.TransactionStatus(c.Query("status")),
		Page:   page,
		Limit:  limit,
	}

	if raw := c.Query("cashier_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid cashier ID"})
		}
		filter.CashierID = &id
	}
	if raw := c.Query("start_date"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid start_date, use YYYY-MM-DD"})
		}
		filter.StartDate = &t
	}
	if raw := c.Query("end_date"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid end_date, use YYYY-MM-DD"})
		}
		filter.EndDate = &t
	}

	transactions, total, err := h.sales.List(c.UserContext(), filter)
	if err != nil {
		return fail(c, err)
	}
	return paginated(c, transactions, page, limit, total)
}
