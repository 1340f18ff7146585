package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/ReviewBoost/app/models"
	"github.com/ManuelReschke/ReviewBoost/app/repository"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/session"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/usercontext"
)

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email,max=200"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthController handles account registration and session login.
type AuthController struct {
	repos    *repository.Repositories
	validate *validator.Validate
}

func NewAuthController(repos *repository.Repositories) *AuthController {
	return &AuthController{repos: repos, validate: validator.New()}
}

// HandleRegister creates an owner account and logs it in.
func (ac *AuthController) HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := ac.validate.Struct(req); err != nil {
		return respondError(c, err)
	}

	if existing, err := ac.repos.User.GetByEmail(req.Email); err == nil && existing != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": "email already registered"})
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return respondError(c, err)
	}

	user, err := models.CreateUser(req.Name, req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	if err := ac.repos.User.Create(user); err != nil {
		return respondError(c, err)
	}
	log.Infof("[Auth] user %d registered", user.ID)

	if err := ac.login(c, user); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// HandleLogin checks the credentials and starts a session.
func (ac *AuthController) HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := ac.validate.Struct(req); err != nil {
		return respondError(c, err)
	}

	// same answer for unknown email and wrong password
	user, err := ac.repos.User.GetByEmail(req.Email)
	if err != nil || user == nil || !user.CheckPassword(req.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_credentials", "message": "email or password is wrong"})
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := ac.repos.User.Update(user); err != nil {
		log.Warnf("[Auth] could not update last login of user %d: %v", user.ID, err)
	}

	if err := ac.login(c, user); err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

func (ac *AuthController) login(c *fiber.Ctx, user *models.User) error {
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return err
	}
	if err := sess.Regenerate(); err != nil {
		return err
	}
	sess.Set(usercontext.AuthKey, true)
	sess.Set(usercontext.KeyUserID, user.ID)
	sess.Set(usercontext.KeyUsername, user.Name)
	sess.Set(usercontext.KeyIsAdmin, user.IsAdmin())
	return sess.Save()
}

// HandleLogout destroys the session including stored checkout tokens.
func (ac *AuthController) HandleLogout(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := sess.Destroy(); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleMe returns the logged in account.
func (ac *AuthController) HandleMe(c *fiber.Ctx) error {
	user, err := ac.repos.User.GetByID(usercontext.GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"user":     user,
		"is_admin": user.IsAdmin(),
	})
}
