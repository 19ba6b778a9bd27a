package handler

import (
	"go-pos-api/internal/apperr"
	"go-pos-api/internal/model"
	"go-pos-api/internal/repository"
	"go-pos-api/internal/service"
	"go-pos-api/pkg/validator"

	"github.com/gofiber/fiber/v2"
)

// CategoryHandler talks to the repository directly; categories carry no
// business rules beyond name uniqueness.
type CategoryHandler struct {
	store repository.Store
}

func NewCategoryHandler(store repository.Store) *CategoryHandler {
	return &CategoryHandler{store: store}
}

func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	var req service.CreateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if errs := validator.ValidateStruct(&req); len(errs) > 0 {
		return fail(c, &apperr.ValidationError{Field: errs[0].FailedField, Tag: errs[0].Tag})
	}

	if existing, _ := h.store.Categories().FindByName(c.UserContext(), req.Name); existing != nil {
		return fail(c, &apperr.ConflictError{Message: "category name already exists"})
	}

	actor := actorFromCtx(c)
	category := &model.Category{Name: req.Name, Description: req.Description}
	category.CreatedBy = actor.ID.String()
	category.UpdatedBy = actor.ID.String()

	if err := h.store.Categories().Create(c.UserContext(), category); err != nil {
		return fail(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Category created", "data": category})
}

func (h *CategoryHandler) Update(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid category ID"})
	}

	var req service.CreateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if errs := validator.ValidateStruct(&req); len(errs) > 0 {
		return fail(c, &apperr.ValidationError{Field: errs[0].FailedField, Tag: errs[0].Tag})
	}

	category, err := h.store.Categories().FindByID(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}

	category.Name = req.Name
	category.Description = req.Description
	category.UpdatedBy = actorFromCtx(c).ID.String()

	if err := h.store.Categories().Update(c.UserContext(), category); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Category updated", "data": category})
}

func (h *CategoryHandler) Delete(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid category ID"})
	}

	if err := h.store.Categories().Delete(c.UserContext(), id); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Category deleted"})
}

func (h *CategoryHandler) List(c *fiber.Ctx) error {
	categories, err := h.store.Categories().FindAll(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(categories)
}
