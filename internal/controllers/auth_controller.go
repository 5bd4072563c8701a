package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/secdesk/backend/internal/apperr"
	"github.com/secdesk/backend/internal/logger"
	"github.com/secdesk/backend/internal/middleware"
	"github.com/secdesk/backend/internal/models"
	"github.com/secdesk/backend/internal/store"
	"golang.org/x/crypto/bcrypt"
)

type AuthController struct {
	store    store.Store
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
}

func NewAuthController(s store.Store, secret []byte, tokenTTL time.Duration) *AuthController {
	return &AuthController{store: s, secret: secret, tokenTTL: tokenTTL, now: time.Now}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"fullName" binding:"required"`
}

type AuthResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Token     string      `json:"token"`
	User      models.User `json:"user"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}

func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request data", err)
		return
	}

	user, err := ac.store.GetUserByEmail(c.Request.Context(), normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid credentials"})
			return
		}
		respondError(c, err, "Failed to log in")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid credentials"})
		return
	}

	token, expiresAt, err := ac.generateToken(user)
	if err != nil {
		respondError(c, err, "Failed to generate token")
		return
	}

	logger.WithUser(user.ID).Info("User logged in")

	c.JSON(http.StatusOK, AuthResponse{
		Success:   true,
		Message:   "Login successful",
		Token:     token,
		User:      *user,
		ExpiresAt: expiresAt,
	})
}

func (ac *AuthController) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request data", err)
		return
	}

	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		respondBadRequest(c, "Full name is required", nil)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(c, err, "Failed to hash password")
		return
	}

	user := models.User{
		Email:    normalizeEmail(req.Email),
		Password: string(hashedPassword),
		FullName: fullName,
		Role:     models.DefaultRole,
	}

	if err := ac.store.CreateUser(c.Request.Context(), &user); err != nil {
		var se *apperr.StorageError
		if errors.As(err, &se) && se.IsConstraintViolation() {
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": "User already exists"})
			return
		}
		respondError(c, err, "Failed to create user")
		return
	}

	token, expiresAt, err := ac.generateToken(&user)
	if err != nil {
		respondError(c, err, "Failed to generate token")
		return
	}

	logger.WithUser(user.ID).Info("User registered")

	c.JSON(http.StatusCreated, AuthResponse{
		Success:   true,
		Message:   "Registration successful",
		Token:     token,
		User:      user,
		ExpiresAt: expiresAt,
	})
}

func (ac *AuthController) RefreshToken(c *gin.Context) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		respondError(c, err, "User not authenticated")
		return
	}

	user, err := ac.store.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to refresh token")
		return
	}

	token, expiresAt, err := ac.generateToken(user)
	if err != nil {
		respondError(c, err, "Failed to generate token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"token":     token,
		"expiresAt": expiresAt,
	})
}

func (ac *AuthController) ChangePassword(c *gin.Context) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		respondError(c, err, "User not authenticated")
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request data", err)
		return
	}

	ctx := c.Request.Context()
	user, err := ac.store.GetUser(ctx, userID)
	if err != nil {
		respondError(c, err, "Failed to change password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		respondBadRequest(c, "Current password is incorrect", nil)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		respondError(c, err, "Failed to hash password")
		return
	}

	if err := ac.store.UpdateUser(ctx, userID, map[string]interface{}{"password": string(hashedPassword)}); err != nil {
		respondError(c, err, "Failed to update password")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Password changed successfully",
	})
}

func (ac *AuthController) generateToken(user *models.User) (string, time.Time, error) {
	now := ac.now()
	expiresAt := now.Add(ac.tokenTTL)
	claims := middleware.Claims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(ac.secret)
	return tokenString, expiresAt, err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
