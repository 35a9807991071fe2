package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ErlanBelekov/bloodbank/internal/domain"
	"github.com/ErlanBelekov/bloodbank/internal/email"
	"github.com/ErlanBelekov/bloodbank/internal/metrics"
)

const minPasswordLength = 6

// AuthUsecase drives the account lifecycle: registration, verification,
// login and the password flows. Email delivery failures are logged and never
// undo an issued code.
type AuthUsecase struct {
	creds    *CredentialStore
	otp      *OTPEngine
	sessions *SessionIssuer
	guard    OTPGuard
	email    email.Sender
	logger   *slog.Logger
}

func NewAuthUsecase(
	creds *CredentialStore,
	otp *OTPEngine,
	sessions *SessionIssuer,
	guard OTPGuard,
	emailSender email.Sender,
	logger *slog.Logger,
) *AuthUsecase {
	if guard == nil {
		guard = NoopGuard{}
	}
	return &AuthUsecase{
		creds:    creds,
		otp:      otp,
		sessions: sessions,
		guard:    guard,
		email:    emailSender,
		logger:   logger.With("component", "auth_usecase"),
	}
}

type RegisterInput struct {
	Name      string
	Email     string
	Password  string
	BloodType domain.BloodType
	Phone     string
	Age       int
	Address   string
	Role      domain.Role
}

// Register creates a pending identity and emails it a registration code.
// Self-registration may only ask for the donor or receiver role.
func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (string, error) {
	if in.Role == "" {
		in.Role = domain.RoleDonor
	}
	if err := validateRegistration(in); err != nil {
		return "", err
	}

	id, err := u.creds.CreateIdentity(ctx, domain.Profile{
		Name:      in.Name,
		Email:     in.Email,
		Password:  in.Password,
		BloodType: in.BloodType,
		Phone:     in.Phone,
		Age:       in.Age,
		Address:   in.Address,
		Role:      in.Role,
	})
	if err != nil {
		return "", err
	}

	if err := u.issueAndSend(ctx, id, normalizeEmail(in.Email), domain.PurposeRegistration); err != nil {
		// Without a code the identity can never be verified, and it would
		// hold the email against a retry.
		if derr := u.creds.DeletePending(context.WithoutCancel(ctx), id); derr != nil {
			u.logger.ErrorContext(ctx, "roll back pending identity", "identity_id", id, "error", derr)
		}
		return "", err
	}
	metrics.RegistrationsTotal.WithLabelValues(string(in.Role)).Inc()
	return id, nil
}

// VerifyRegistration consumes the registration code, activates the identity
// and returns a session for it.
func (u *AuthUsecase) VerifyRegistration(ctx context.Context, identityID, code string) (*Session, error) {
	identity, err := u.creds.FindByID(ctx, identityID)
	if err != nil {
		return nil, err
	}
	if identity.Verified {
		return nil, domain.ErrAlreadyVerified
	}

	if err := u.consume(ctx, identityID, domain.PurposeRegistration, code); err != nil {
		return nil, err
	}
	if err := u.creds.MarkVerified(ctx, identityID); err != nil {
		return nil, err
	}
	identity.Verified = true

	subject, body := email.Welcome(identity.Name)
	u.notify(ctx, identity.Email, subject, body)

	return u.sessions.Issue(identity)
}

// ResendRegistrationCode replaces the identity's registration code with a new one.
func (u *AuthUsecase) ResendRegistrationCode(ctx context.Context, identityID string) error {
	identity, err := u.creds.FindByID(ctx, identityID)
	if err != nil {
		return err
	}
	if identity.Verified {
		return domain.ErrAlreadyVerified
	}
	return u.issueAndSend(ctx, identity.ID, identity.Email, domain.PurposeRegistration)
}

func (u *AuthUsecase) Login(ctx context.Context, emailAddr, password string) (*Session, error) {
	s, err := u.sessions.Login(ctx, emailAddr, password)
	switch {
	case err == nil:
		metrics.LoginsTotal.WithLabelValues("success").Inc()
	case errors.Is(err, domain.ErrNotVerified):
		metrics.LoginsTotal.WithLabelValues("not_verified").Inc()
	case errors.Is(err, domain.ErrInvalidCredentials):
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
	default:
		metrics.LoginsTotal.WithLabelValues("error").Inc()
	}
	return s, err
}

// ForgotPassword emails a reset code and returns the identity id the client
// must echo back when resetting.
func (u *AuthUsecase) ForgotPassword(ctx context.Context, emailAddr string) (string, error) {
	identity, err := u.creds.FindByEmail(ctx, emailAddr)
	if err != nil {
		return "", err
	}
	if err := u.issueAndSend(ctx, identity.ID, identity.Email, domain.PurposePasswordReset); err != nil {
		return "", err
	}
	return identity.ID, nil
}

// VerifyResetCode checks a reset code without consuming it.
func (u *AuthUsecase) VerifyResetCode(ctx context.Context, identityID, code string) error {
	if _, err := u.creds.FindByID(ctx, identityID); err != nil {
		return err
	}
	if err := u.guard.BeforeAttempt(ctx, identityID, domain.PurposePasswordReset); err != nil {
		return err
	}
	err := u.otp.Check(ctx, identityID, domain.PurposePasswordReset, code)
	metrics.OTPValidationsTotal.WithLabelValues(string(domain.PurposePasswordReset), outcome(err)).Inc()
	return err
}

// ResetPassword consumes the reset code and replaces the password.
func (u *AuthUsecase) ResetPassword(ctx context.Context, identityID, code, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	if _, err := u.creds.FindByID(ctx, identityID); err != nil {
		return err
	}
	if err := u.consume(ctx, identityID, domain.PurposePasswordReset, code); err != nil {
		return err
	}
	return u.creds.UpdatePassword(ctx, identityID, newPassword)
}

func (u *AuthUsecase) ChangePassword(ctx context.Context, identityID, currentPassword, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	ok, err := u.creds.VerifyPassword(ctx, identityID, currentPassword)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrWrongPassword
	}
	return u.creds.UpdatePassword(ctx, identityID, newPassword)
}

func (u *AuthUsecase) Me(ctx context.Context, identityID string) (*domain.PublicIdentity, error) {
	identity, err := u.creds.FindByID(ctx, identityID)
	if err != nil {
		return nil, err
	}
	p := identity.Public()
	return &p, nil
}

func (u *AuthUsecase) issueAndSend(ctx context.Context, identityID, to string, purpose domain.Purpose) error {
	if err := u.guard.BeforeIssue(ctx, identityID, purpose); err != nil {
		return err
	}

	code, _, err := u.otp.Issue(ctx, identityID, purpose)
	if err != nil {
		return err
	}
	u.guard.Reset(ctx, identityID, purpose)
	metrics.OTPIssuedTotal.WithLabelValues(string(purpose)).Inc()

	var subject, body string
	if purpose == domain.PurposePasswordReset {
		subject, body = email.PasswordResetCode(code, u.otp.TTL())
	} else {
		subject, body = email.VerificationCode(code, u.otp.TTL())
	}
	u.notify(ctx, to, subject, body)
	return nil
}

func (u *AuthUsecase) consume(ctx context.Context, identityID string, purpose domain.Purpose, code string) error {
	if err := u.guard.BeforeAttempt(ctx, identityID, purpose); err != nil {
		return err
	}
	err := u.otp.Validate(ctx, identityID, purpose, code)
	metrics.OTPValidationsTotal.WithLabelValues(string(purpose), outcome(err)).Inc()
	if err != nil {
		return err
	}
	u.guard.Reset(ctx, identityID, purpose)
	return nil
}

func (u *AuthUsecase) notify(ctx context.Context, to, subject, body string) {
	if err := u.email.Send(ctx, to, subject, body); err != nil {
		metrics.NotificationFailuresTotal.Inc()
		u.logger.WarnContext(ctx, "send email", "subject", subject, "error", err)
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrOTPExpired):
		return "expired"
	case errors.Is(err, domain.ErrOTPMismatch):
		return "mismatch"
	case errors.Is(err, domain.ErrOTPNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrTooManyRequests):
		return "throttled"
	default:
		return "error"
	}
}

func validateRegistration(in RegisterInput) error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	case !strings.Contains(in.Email, "@"):
		return fmt.Errorf("%w: email is invalid", domain.ErrInvalidInput)
	case !in.BloodType.Valid():
		return fmt.Errorf("%w: unknown blood type %q", domain.ErrInvalidInput, in.BloodType)
	case strings.TrimSpace(in.Phone) == "":
		return fmt.Errorf("%w: phone is required", domain.ErrInvalidInput)
	case strings.TrimSpace(in.Address) == "":
		return fmt.Errorf("%w: address is required", domain.ErrInvalidInput)
	}

	switch in.Role {
	case domain.RoleDonor:
		if in.Age < 18 || in.Age > 65 {
			return fmt.Errorf("%w: donors must be between 18 and 65", domain.ErrInvalidInput)
		}
	case domain.RoleReceiver:
		if in.Age < 1 || in.Age > 120 {
			return fmt.Errorf("%w: age must be between 1 and 120", domain.ErrInvalidInput)
		}
	case domain.RoleAdmin:
		return fmt.Errorf("%w: admin accounts cannot self-register", domain.ErrInvalidInput)
	default:
		return fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, in.Role)
	}

	return validatePassword(in.Password)
}

func validatePassword(p string) error {
	if len(p) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLength)
	}
	return nil
}
