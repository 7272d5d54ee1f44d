package auth

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/vendaria/vendaria/internal/apperror"
	"github.com/vendaria/vendaria/internal/password"
	"github.com/vendaria/vendaria/internal/token"
)

// defaultProfile is assigned when registration omits the profile field.
const defaultProfile = "client"

// minPasswordLen is the server-side password policy. The storefront applies
// a stricter rule (digits, letters, special characters) before submitting.
const minPasswordLen = 10

// emailPattern accepts a basic local@domain.tld shape. Intentionally loose;
// the address is never mailed, only used as a login key.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// invalidCredentials is the uniform login failure. The same message is used
// for unknown emails and wrong passwords so callers cannot probe for accounts.
const invalidCredentials = "invalid email or password"

// AuthService defines the business logic contract for authentication and
// account management. Handlers call these methods -- they never touch the
// repository or the token codec directly.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (PublicUser, string, error)
	Login(ctx context.Context, req LoginRequest) (PublicUser, string, error)
	Logout(ctx context.Context) error
	Profile(ctx context.Context, userID int64) (PublicUser, error)
	UpdateProfile(ctx context.Context, claims token.Claims, req UpdateProfileRequest) (PublicUser, error)
	ChangePassword(ctx context.Context, userID int64, req ChangePasswordRequest) error
	DeleteAccount(ctx context.Context, userID int64) error
}

// authService implements AuthService over a user repository and the token codec.
type authService struct {
	repo     UserRepository
	codec    *token.Codec
	tokenTTL time.Duration

	// now is the clock used for timestamps and token expiry, overridable in tests.
	now func() time.Time
}

// NewService creates an auth service. tokenTTL of zero issues tokens without
// an embedded expiry.
func NewService(repo UserRepository, codec *token.Codec, tokenTTL time.Duration) AuthService {
	return &authService{
		repo:     repo,
		codec:    codec,
		tokenTTL: tokenTTL,
		now:      time.Now,
	}
}

// Register creates a new user record and issues a token for it.
func (s *authService) Register(ctx context.Context, req RegisterRequest) (PublicUser, string, error) {
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return PublicUser{}, "", apperror.NewValidation("name, email and password are required")
	}
	if !emailPattern.MatchString(req.Email) {
		return PublicUser{}, "", apperror.NewValidation("invalid email format")
	}
	if len(req.Password) < minPasswordLen {
		return PublicUser{}, "", apperror.NewValidation(fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}

	// Check-then-insert gives the specific 409 message; the unique index on
	// email covers the race window between the two statements.
	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return PublicUser{}, "", apperror.NewInternal(fmt.Errorf("checking email: %w", err))
	}
	if exists {
		return PublicUser{}, "", apperror.NewConflict("user with this email already exists")
	}

	profile := req.Profile
	if profile == "" {
		profile = defaultProfile
	}

	nowISO := s.now().UTC().Format(time.RFC3339)
	user := &User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: password.Hash(req.Password),
		Profile:      profile,
		CreatedAt:    nowISO,
		UpdatedAt:    nowISO,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return PublicUser{}, "", wrapStoreErr("creating user", err)
	}

	tok, err := s.issueToken(user)
	if err != nil {
		return PublicUser{}, "", apperror.NewInternal(fmt.Errorf("issuing token: %w", err))
	}

	slog.Info("user registered",
		slog.Int64("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user.Public(), tok, nil
}

// Login authenticates by email and password and issues a fresh token.
// Unknown email and wrong password produce the identical failure.
func (s *authService) Login(ctx context.Context, req LoginRequest) (PublicUser, string, error) {
	if req.Email == "" || req.Password == "" {
		return PublicUser{}, "", apperror.NewValidation("email and password are required")
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if apperror.SafeCode(err) == 404 {
			return PublicUser{}, "", apperror.NewUnauthorized(invalidCredentials)
		}
		return PublicUser{}, "", apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}

	if !password.Verify(req.Password, user.PasswordHash) {
		return PublicUser{}, "", apperror.NewUnauthorized(invalidCredentials)
	}

	tok, err := s.issueToken(user)
	if err != nil {
		return PublicUser{}, "", apperror.NewInternal(fmt.Errorf("issuing token: %w", err))
	}

	slog.Info("user logged in",
		slog.Int64("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user.Public(), tok, nil
}

// Logout is stateless: tokens cannot be revoked server-side, so it always
// succeeds. Clients are responsible for discarding their local session.
func (s *authService) Logout(ctx context.Context) error {
	return nil
}

// Profile returns the stored record for the given user id.
func (s *authService) Profile(ctx context.Context, userID int64) (PublicUser, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return PublicUser{}, wrapStoreErr("finding user", err)
	}
	return user.Public(), nil
}

// UpdateProfile re-validates name/email, rejects emails held by a different
// account, and persists the change. The returned view keeps the profile from
// the token claims, matching the record at issuance.
func (s *authService) UpdateProfile(ctx context.Context, claims token.Claims, req UpdateProfileRequest) (PublicUser, error) {
	if req.Name == "" || req.Email == "" {
		return PublicUser{}, apperror.NewValidation("name and email are required")
	}
	if !emailPattern.MatchString(req.Email) {
		return PublicUser{}, apperror.NewValidation("invalid email format")
	}

	taken, err := s.repo.EmailTakenByOther(ctx, req.Email, claims.ID)
	if err != nil {
		return PublicUser{}, apperror.NewInternal(fmt.Errorf("checking email ownership: %w", err))
	}
	if taken {
		return PublicUser{}, apperror.NewConflict("email is already taken by another user")
	}

	nowISO := s.now().UTC().Format(time.RFC3339)
	if err := s.repo.UpdateProfile(ctx, claims.ID, req.Name, req.Email, nowISO); err != nil {
		return PublicUser{}, wrapStoreErr("updating profile", err)
	}

	return PublicUser{
		ID:      claims.ID,
		Name:    req.Name,
		Email:   req.Email,
		Profile: claims.Profile,
	}, nil
}

// ChangePassword verifies the current password against the stored hash
// before accepting the new one. A wrong current password is an authentication
// failure, not a validation error.
func (s *authService) ChangePassword(ctx context.Context, userID int64, req ChangePasswordRequest) error {
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return apperror.NewValidation("current password and new password are required")
	}
	if len(req.NewPassword) < minPasswordLen {
		return apperror.NewValidation(fmt.Sprintf("new password must be at least %d characters", minPasswordLen))
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return wrapStoreErr("finding user", err)
	}

	if !password.Verify(req.CurrentPassword, user.PasswordHash) {
		return apperror.NewUnauthorized("current password is incorrect")
	}

	nowISO := s.now().UTC().Format(time.RFC3339)
	if err := s.repo.UpdatePassword(ctx, userID, password.Hash(req.NewPassword), nowISO); err != nil {
		return wrapStoreErr("updating password", err)
	}

	slog.Info("password changed", slog.Int64("user_id", userID))

	return nil
}

// DeleteAccount removes the record for the authenticated user. No password
// re-confirmation is required; a valid bearer token is sufficient.
func (s *authService) DeleteAccount(ctx context.Context, userID int64) error {
	if err := s.repo.Delete(ctx, userID); err != nil {
		return wrapStoreErr("deleting user", err)
	}

	slog.Info("account deleted", slog.Int64("user_id", userID))

	return nil
}

// issueToken signs a claims snapshot of the user record.
func (s *authService) issueToken(user *User) (string, error) {
	claims := token.Claims{
		ID:      user.ID,
		Email:   user.Email,
		Name:    user.Name,
		Profile: user.Profile,
	}
	if s.tokenTTL > 0 {
		claims.Exp = s.now().Add(s.tokenTTL).Unix()
	}
	return s.codec.Sign(claims)
}

// wrapStoreErr passes AppErrors (NotFound, Conflict) through unchanged and
// wraps anything else as an internal error.
func wrapStoreErr(op string, err error) error {
	if _, ok := err.(*apperror.AppError); ok {
		return err
	}
	return apperror.NewInternal(fmt.Errorf("%s: %w", op, err))
}
