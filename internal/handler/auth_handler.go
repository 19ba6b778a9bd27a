package handler

import (
	"errors"
	"strings"

	"go-pos-api/internal/service"
	"go-pos-api/pkg/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AuthHandler struct {
	auth service.AuthService
}

func NewAuthHandler(auth service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if errs := validator.ValidateStruct(&req); len(errs) > 0 {
		return c.Status(400).JSON(fiber.Map{"error": "Email and password are required"})
	}

	resp, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUserInactive) {
			return c.Status(403).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(401).JSON(fiber.Map{"error": "Invalid email or password"})
	}

	return c.JSON(fiber.Map{"message": "Login successful", "data": resp})
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var req changePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if errs := validator.ValidateStruct(&req); len(errs) > 0 {
		return c.Status(400).JSON(fiber.Map{"error": "New password must be at least 6 characters"})
	}

	email, _ := c.Locals("user_email").(string)
	if err := h.auth.ChangePassword(c.UserContext(), email, req.OldPassword, req.NewPassword); err != nil {
		if errors.Is(err, service.ErrWrongPassword) {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		return fail(c, err)
	}

	return c.JSON(fiber.Map{"message": "Password changed successfully"})
}

// ValidateToken lets clients verify a stored token before restoring a session.
func (h *AuthHandler) ValidateToken(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return c.Status(401).JSON(fiber.Map{"error": "Missing or invalid Authorization header"})
	}

	resp, err := h.auth.ValidateToken(c.UserContext(), strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		if errors.Is(err, service.ErrSessionExpired) {
			return c.Status(401).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(401).JSON(fiber.Map{"error": "Invalid token"})
	}

	return c.JSON(fiber.Map{"valid": true, "data": resp})
}

func (h *AuthHandler) Heartbeat(c *fiber.Ctx) error {
	id, ok := c.Locals("user_id").(string)
	if !ok {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
	}
	userID, err := uuid.Parse(id)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
	}

	if err := h.auth.Heartbeat(c.UserContext(), userID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "ok"})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	actor := actorFromCtx(c)
	return c.JSON(fiber.Map{
		"id":    actor.ID,
		"name":  actor.Name,
		"email": actor.Email,
		"role":  actor.Role,
	})
}
