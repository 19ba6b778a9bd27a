package handler

import (
	"time"

	"go-pos-api/internal/model"
	"go-pos-api/internal/repository"
	"go-pos-api/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ReportHandler struct {
	reports service.ReportService
}

func NewReportHandler(reports service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// DailySales handles GET /reports/daily/:date (YYYY-MM-DD).
func (h *ReportHandler) DailySales(c *fiber.Ctx) error {
	date, err := time.Parse("2006-01-02", c.Params("date"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid date, use YYYY-MM-DD"})
	}

	report, err := h.reports.DailySales(c.UserContext(), date)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(report)
}

// SalesByRange handles GET /reports/range?start_date=&end_date=.
func (h *ReportHandler) SalesByRange(c *fiber.Ctx) error {
	start, err := time.Parse("2006-01-02", c.Query("start_date"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid start_date, use YYYY-MM-DD"})
	}
	end, err := time.Parse("2006-01-02", c.Query("end_date"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid end_date, use YYYY-MM-DD"})
	}

	report, err := h.reports.SalesByRange(c.UserContext(), start, end.AddDate(0, 0, 1))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(report)
}

func (h *ReportHandler) DashboardStats(c *fiber.Ctx) error {
	stats, err := h.reports.DashboardStats(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(stats)
}

// StockFlow handles GET /reports/stock-flow?days=7.
func (h *ReportHandler) StockFlow(c *fiber.Ctx) error {
	flow, err := h.reports.StockFlow(c.UserContext(), c.QueryInt("days", 7))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(flow)
}

// Movements handles GET /stock-movements with optional product/kind filters.
func (h *ReportHandler) Movements(c *fiber.Ctx) error {
	page, limit := pageParams(c)
	filter := repository.MovementFilter{
		Kind:      model.MovementKind(c.Query("kind")),
		Reference: c.Query("reference"),
		Page:      page,
		Limit:     limit,
	}

	if raw := c.Query("product_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
		}
		filter.ProductID = &id
	}

	movements, total, err := h.reports.Movements(c.UserContext(), filter)
	if err != nil {
		return fail(c, err)
	}
	return paginated(c, movements, page, limit, total)
}
