package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"slices"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/toptunez/internal/hash"
	"github.com/Skotchmaster/toptunez/internal/logging"
	"github.com/Skotchmaster/toptunez/internal/metrics"
	"github.com/Skotchmaster/toptunez/internal/models"
	"github.com/Skotchmaster/toptunez/internal/mykafka"
	"github.com/Skotchmaster/toptunez/internal/repo"
	"github.com/Skotchmaster/toptunez/internal/totp"
	"github.com/Skotchmaster/toptunez/pkg/tokens"
)

type UserService struct {
	Repo   *repo.GormRepo
	Tokens *tokens.Issuer
	Events mykafka.Publisher
}

type SignUpInput struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
}

type AuthResult struct {
	User  *models.User
	Token string
}

type MFAStatus struct {
	Enabled bool
	// URL is a QR code data URI, set only when enabled.
	URL *string
}

func validateSignUp(in SignUpInput) error {
	if strings.TrimSpace(in.Email) == "" {
		return fmt.Errorf("email is required: %w", ErrValidation)
	}
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != strings.TrimSpace(in.Email) {
		return fmt.Errorf("email is invalid: %w", ErrValidation)
	}
	if strings.TrimSpace(in.FirstName) == "" {
		return fmt.Errorf("firstName is required: %w", ErrValidation)
	}
	if strings.TrimSpace(in.LastName) == "" {
		return fmt.Errorf("lastName is required: %w", ErrValidation)
	}
	if in.Password == "" {
		return fmt.Errorf("password is required: %w", ErrValidation)
	}
	if len(in.Password) > hash.MaxPasswordBytes {
		return fmt.Errorf("password must be at most %d bytes: %w", hash.MaxPasswordBytes, ErrValidation)
	}
	return nil
}

// SignUp registers a user without roles.
func (s *UserService) SignUp(ctx context.Context, in SignUpInput) (*AuthResult, error) {
	return s.SignUpWithRoles(ctx, in, nil)
}

// SignUpWithRoles is reserved for bootstrap and fixtures; the public fronts
// only call SignUp.
func (s *UserService) SignUpWithRoles(ctx context.Context, in SignUpInput, roles []string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "users.signup")

	if err := validateSignUp(in); err != nil {
		return nil, err
	}
	for _, r := range roles {
		if !slices.Contains(models.KnownRoles, r) {
			return nil, fmt.Errorf("unknown role %q: %w", r, ErrValidation)
		}
	}

	pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		l.Error("signup_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := models.User{
		Email:        models.NormalizeEmail(in.Email),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		PasswordHash: pwHash,
		Roles:        models.Roles(slices.Clone(roles)),
	}
	if err := s.Repo.CreateUserIfNotExists(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			l.Warn("signup_error", "status", 409, "reason", "user already exist")
			return nil, fmt.Errorf("email already registered: %w", ErrConflict)
		}
		l.Error("signup_error", "status", 500, "error", err)
		return nil, err
	}

	token, err := s.Tokens.Issue(user.Email, user.Roles)
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.Events, mykafka.TopicUsers, user.ID.String(), mykafka.NewUserEvent(mykafka.EventUserSignedUp, &user))
	return &AuthResult{User: &user, Token: token}, nil
}

// LogIn returns nil, nil when the email is unknown or the password is wrong.
func (s *UserService) LogIn(ctx context.Context, email, password string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "users.login")

	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			hash.CheckMissing(password)
			metrics.RecordLogin(false)
			l.Warn("login_failed", "status", 401, "reason", "unknown email")
			return nil, nil
		}
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		metrics.RecordLogin(false)
		l.Warn("login_failed", "status", 401, "reason", "wrong password")
		return nil, nil
	}

	token, err := s.Tokens.Issue(user.Email, user.Roles)
	if err != nil {
		return nil, err
	}

	metrics.RecordLogin(true)
	publishEvent(ctx, s.Events, mykafka.TopicUsers, user.ID.String(), mykafka.NewUserEvent(mykafka.EventUserLoggedIn, user))
	return &AuthResult{User: user, Token: token}, nil
}

func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.Repo.GetUserByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	return user, err
}

// CheckMFA returns nil when the user has no second factor or code is valid.
func (s *UserService) CheckMFA(ctx context.Context, email, code string) error {
	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("unknown user: %w", ErrUnauthenticated)
		}
		return err
	}
	if !user.RequiresMFA() {
		return nil
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return ErrMFARequired
	}
	if !totp.Validate(code, *user.MFASecret) {
		return ErrMFAInvalid
	}
	return nil
}

// ToggleMFA keeps the existing secret when the requested state is already in
// effect.
func (s *UserService) ToggleMFA(ctx context.Context, email string, enabled bool) (*MFAStatus, error) {
	l := logging.FromContext(ctx).With("svc", "users.toggle_mfa")

	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if enabled != user.RequiresMFA() {
		var secret *string
		if enabled {
			generated, err := totp.Generate(user.FirstName)
			if err != nil {
				l.Error("toggle_mfa_error", "status", 500, "reason", "cannot generate secret", "error", err)
				return nil, err
			}
			secret = &generated
		}
		if err := s.Repo.SetMFASecret(ctx, user.ID, secret); err != nil {
			l.Error("toggle_mfa_error", "status", 500, "error", err)
			return nil, err
		}
		user.MFASecret = secret

		evt := mykafka.NewUserEvent(mykafka.EventMFAToggled, user)
		evt.MFAEnabled = &enabled
		publishEvent(ctx, s.Events, mykafka.TopicUsers, user.ID.String(), evt)
	}

	status := &MFAStatus{Enabled: user.RequiresMFA()}
	if status.Enabled {
		uri, err := totp.QRDataURI(*user.MFASecret, user.FirstName)
		if err != nil {
			l.Warn("qr_generation_failed", "error", err)
			uri = fmt.Sprintf("<QRCode Generation Error: %s>", err)
		}
		status.URL = &uri
	}
	return status, nil
}
