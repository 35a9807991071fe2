package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/bloodbank/internal/domain"
	"github.com/ErlanBelekov/bloodbank/internal/usecase"
	"github.com/gin-gonic/gin"
)

// authUsecaser is the subset of AuthUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type authUsecaser interface {
	Register(ctx context.Context, in usecase.RegisterInput) (string, error)
	VerifyRegistration(ctx context.Context, identityID, code string) (*usecase.Session, error)
	ResendRegistrationCode(ctx context.Context, identityID string) error
	Login(ctx context.Context, email, password string) (*usecase.Session, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	VerifyResetCode(ctx context.Context, identityID, code string) error
	ResetPassword(ctx context.Context, identityID, code, newPassword string) error
	ChangePassword(ctx context.Context, identityID, currentPassword, newPassword string) error
	Me(ctx context.Context, identityID string) (*domain.PublicIdentity, error)
}

type AuthHandler struct {
	authUsecase authUsecaser
	logger      *slog.Logger
}

func NewAuthHandler(authUsecase authUsecaser, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authUsecase: authUsecase,
		logger:      logger.With("component", "auth_handler"),
	}
}

type registerRequest struct {
	Name      string           `json:"name"      binding:"required,max=200"`
	Email     string           `json:"email"     binding:"required,email"`
	Password  string           `json:"password"  binding:"required"`
	BloodType domain.BloodType `json:"bloodType" binding:"required"`
	Phone     string           `json:"phone"     binding:"required,max=32"`
	Age       int              `json:"age"       binding:"required"`
	Address   string           `json:"address"   binding:"required,max=500"`
	Role      domain.Role      `json:"role"      binding:"omitempty,oneof=donor receiver admin"`
}

// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.authUsecase.Register(c.Request.Context(), usecase.RegisterInput{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		BloodType: req.BloodType,
		Phone:     req.Phone,
		Age:       req.Age,
		Address:   req.Address,
		Role:      req.Role,
	})
	if err != nil {
		respondError(c, h.logger, "register", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful. Please check your email for OTP.",
		"userId":  id,
	})
}

type verifyOTPRequest struct {
	UserID string `json:"userId" binding:"required"`
	OTP    string `json:"otp"    binding:"required"`
}

// POST /auth/verify-otp
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s, err := h.authUsecase.VerifyRegistration(c.Request.Context(), req.UserID, req.OTP)
	if err != nil {
		respondError(c, h.logger, "verify otp", err)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(s))
}

type userIDRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// POST /auth/resend-otp
func (h *AuthHandler) ResendOTP(c *gin.Context) {
	var req userIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authUsecase.ResendRegistrationCode(c.Request.Context(), req.UserID); err != nil {
		respondError(c, h.logger, "resend otp", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "OTP resent successfully"})
}

type loginRequest struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s, err := h.authUsecase.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, "login", err)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(s))
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// POST /auth/forgot-password
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.authUsecase.ForgotPassword(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, h.logger, "forgot password", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "OTP sent to your email",
		"userId":  id,
	})
}

// POST /auth/verify-reset-otp
// Checks the code without consuming it.
func (h *AuthHandler) VerifyResetOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authUsecase.VerifyResetCode(c.Request.Context(), req.UserID, req.OTP); err != nil {
		respondError(c, h.logger, "verify reset otp", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "OTP verified"})
}

type resetPasswordRequest struct {
	UserID      string `json:"userId"      binding:"required"`
	OTP         string `json:"otp"         binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

// POST /auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authUsecase.ResetPassword(c.Request.Context(), req.UserID, req.OTP, req.NewPassword); err != nil {
		respondError(c, h.logger, "reset password", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password reset successful"})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword"     binding:"required"`
}

// POST /auth/change-password (authenticated)
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.authUsecase.ChangePassword(c.Request.Context(), c.GetString("identityID"), req.CurrentPassword, req.NewPassword)
	if err != nil {
		respondError(c, h.logger, "change password", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

// GET /auth/me (authenticated)
func (h *AuthHandler) Me(c *gin.Context) {
	me, err := h.authUsecase.Me(c.Request.Context(), c.GetString("identityID"))
	if err != nil {
		respondError(c, h.logger, "me", err)
		return
	}
	c.JSON(http.StatusOK, me)
}
