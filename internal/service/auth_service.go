package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"eventhub/internal/auth"
	"eventhub/internal/credstore"
	apperrors "eventhub/internal/errors"
	"eventhub/internal/idp"
	"eventhub/internal/model"
	"eventhub/internal/repository"
)

// bcryptCost is the target hashing cost. Hashes stored with a lower cost are
// regenerated on the next successful verification.
const bcryptCost = 12

var (
	// ErrInvalidCredentials is returned when email or password is incorrect.
	// It deliberately does not reveal which factor failed.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidRefreshToken is returned when a refresh token is invalid or expired.
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
)

// SignupError carries the provider's classified, user-presentable signup
// failure message.
type SignupError struct {
	Message string
}

func (e *SignupError) Error() string { return e.Message }

// SignIn is the established session after a successful authentication.
type SignIn struct {
	AccessToken  string
	RefreshToken string
	User         *model.User
}

// AuthService coordinates authentication across the local password hashes in
// the relational store and the external identity provider.
//
// Precedence: a user with a local password hash authenticates ONLY against
// it. The provider is consulted exclusively for users without a local hash,
// so a locally changed password invalidates stale provider credentials
// immediately.
type AuthService interface {
	Login(ctx context.Context, email, password string, remember bool) (*SignIn, error)
	Register(ctx context.Context, email, password, fullName string) (*SignIn, error)
	ChangePassword(ctx context.Context, userID uint, currentPassword, newPassword string) error
	RefreshToken(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, refreshToken, accessToken string) error
}

type authService struct {
	users      repository.UserRepository
	creds      *credstore.Store
	provider   idp.Service
	reconciler Reconciler
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
}

// NewAuthService creates the authentication coordinator.
func NewAuthService(
	users repository.UserRepository,
	creds *credstore.Store,
	provider idp.Service,
	reconciler Reconciler,
	jwtService *auth.JWTService,
	tokenStore auth.TokenStoreInterface,
) AuthService {
	return &authService{
		users:      users,
		creds:      creds,
		provider:   provider,
		reconciler: reconciler,
		jwtService: jwtService,
		tokenStore: tokenStore,
	}
}

// Login authenticates a user. The relational store is checked first; when a
// local password hash exists the provider is never consulted, success or
// failure.
func (s *authService) Login(ctx context.Context, email, password string, remember bool) (*SignIn, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if user != nil && user.PasswordHash != "" {
		return s.loginLocal(ctx, user, password, remember)
	}
	return s.loginProvider(ctx, email, password, remember)
}

// loginLocal verifies against the stored hash and rehashes it when the
// stored cost is below the target.
func (s *authService) loginLocal(ctx context.Context, user *model.User, password string, remember bool) (*SignIn, error) {
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperrors.ErrAccountDeactivated
	}

	if cost, err := bcrypt.Cost([]byte(user.PasswordHash)); err == nil && cost < bcryptCost {
		rehashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("rehash password: %w", err)
		}
		if err := s.users.UpdatePasswordHash(ctx, user.ID, string(rehashed)); err != nil {
			return nil, fmt.Errorf("persist rehashed password: %w", err)
		}
		user.PasswordHash = string(rehashed)
	}

	return s.signIn(ctx, user, remember)
}

// loginProvider delegates to the external identity provider and reconciles
// the user into the relational store on success.
func (s *authService) loginProvider(ctx context.Context, email, password string, remember bool) (*SignIn, error) {
	result := s.provider.Login(ctx, email, password)
	if !result.Success {
		return nil, ErrInvalidCredentials
	}

	resolvedEmail := email
	if result.Email != "" {
		resolvedEmail = result.Email
	}

	s.syncCredentialFile(resolvedEmail, result.FullName)

	user, err := s.reconciler.EnsureUserInDatabase(ctx, resolvedEmail, result.FullName)
	if err != nil {
		return nil, fmt.Errorf("reconcile user: %w", err)
	}
	if !user.IsActive {
		return nil, apperrors.ErrAccountDeactivated
	}

	return s.signIn(ctx, user, remember)
}

// syncCredentialFile keeps the legacy file store in step with provider
// profile data. Best effort only.
func (s *authService) syncCredentialFile(email, fullName string) {
	if s.creds == nil {
		return
	}
	rec, err := s.creds.FindByEmail(email)
	if err != nil {
		log.Printf("auth: credential file read for %s failed: %v", email, err)
		return
	}
	if rec != nil && (fullName == "" || rec.FullName == fullName) {
		return
	}
	next := credstore.Record{Email: email, FullName: fullName, IsActive: "1"}
	if rec != nil {
		next = *rec
		next.FullName = fullName
	}
	if next.FullName == "" {
		next.FullName = email
	}
	if err := s.creds.Add(next); err != nil {
		log.Printf("auth: credential file sync for %s failed: %v", email, err)
	}
}

// Register signs a user up at the provider and materializes the account in
// both auxiliary and relational stores.
func (s *authService) Register(ctx context.Context, email, password, fullName string) (*SignIn, error) {
	if s.creds != nil {
		exists, err := s.creds.EmailExists(email)
		if err != nil {
			return nil, fmt.Errorf("check credential file: %w", err)
		}
		if exists {
			return nil, apperrors.ErrEmailTaken
		}
	}

	result := s.provider.Signup(ctx, email, password, fullName)
	if !result.Success {
		return nil, &SignupError{Message: result.ErrorMessage}
	}

	if s.creds != nil {
		rec := credstore.Record{
			Email:    email,
			FullName: fullName,
			IsActive: "1",
		}
		if err := s.creds.Add(rec); err != nil {
			log.Printf("auth: credential file write for %s failed: %v", email, err)
		}
	}

	user, err := s.reconciler.EnsureUserInDatabase(ctx, email, fullName)
	if err != nil {
		return nil, fmt.Errorf("reconcile user: %w", err)
	}

	return s.signIn(ctx, user, true)
}

// ChangePassword makes the relational store the durable source of truth: the
// new hash is persisted locally BEFORE provider propagation, and a provider
// failure is logged but never rolled back or surfaced.
func (s *authService) ChangePassword(ctx context.Context, userID uint, currentPassword, newPassword string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	if user.PasswordHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
			return ErrInvalidCredentials
		}
	} else {
		// No local hash yet: the provider still owns the current credential.
		if result := s.provider.Login(ctx, user.Email, currentPassword); !result.Success {
			return ErrInvalidCredentials
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, string(hash)); err != nil {
		return fmt.Errorf("persist password: %w", err)
	}

	if s.creds != nil {
		if rec, err := s.creds.FindByEmail(user.Email); err == nil && rec != nil {
			rec.PasswordHash = string(hash)
			if err := s.creds.Add(*rec); err != nil {
				log.Printf("auth: credential file password sync for %s failed: %v", user.Email, err)
			}
		}
	}

	if ok := s.provider.UpdatePassword(ctx, user.Email, newPassword); !ok {
		log.Printf("auth: provider password propagation for %s failed, local hash remains authoritative", user.Email)
	}
	return nil
}

// signIn establishes the token pair for the authenticated user.
func (s *authService) signIn(ctx context.Context, user *model.User, remember bool) (*SignIn, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(user.ID, user.Email, user.FullName, user.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	ttl := auth.SessionRefreshExpiry
	if remember {
		ttl = auth.RememberedRefreshExpiry
	}
	tokenID, refreshToken, err := s.jwtService.GenerateRefreshToken(user.ID, user.Email, ttl)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	if err := s.tokenStore.StoreRefreshToken(ctx, tokenID, user.ID, user.Email, ttl); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &SignIn{AccessToken: accessToken, RefreshToken: refreshToken, User: user}, nil
}

// RefreshToken validates a refresh token and returns a new access token.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.jwtService.ValidateToken(refreshToken)
	if err != nil {
		return "", ErrInvalidRefreshToken
	}
	tokenID, err := s.jwtService.ExtractTokenID(refreshToken)
	if err != nil {
		return "", ErrInvalidRefreshToken
	}

	storedUserID, storedEmail, err := s.tokenStore.GetRefreshToken(ctx, tokenID)
	if err != nil {
		return "", ErrInvalidRefreshToken
	}
	if storedUserID != claims.UserID || storedEmail != claims.Email {
		return "", ErrInvalidRefreshToken
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return "", ErrInvalidRefreshToken
	}
	if !user.IsActive {
		return "", apperrors.ErrAccountDeactivated
	}

	accessToken, err := s.jwtService.GenerateAccessToken(user.ID, user.Email, user.FullName, user.IsAdmin)
	if err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}
	return accessToken, nil
}

// Logout invalidates the refresh session and blacklists the presented
// access token for its remaining lifetime, so it stops working immediately
// rather than at its natural expiry.
func (s *authService) Logout(ctx context.Context, refreshToken, accessToken string) error {
	tokenID, err := s.jwtService.ExtractTokenID(refreshToken)
	if err != nil {
		return ErrInvalidRefreshToken
	}

	if accessToken != "" {
		if claims, err := s.jwtService.ValidateToken(accessToken); err == nil && claims.ID != "" {
			ttl := time.Until(claims.ExpiresAt.Time)
			if ttl > 0 {
				if err := s.tokenStore.BlacklistAccessToken(ctx, claims.ID, ttl); err != nil {
					log.Printf("auth: access token blacklist for user %d failed: %v", claims.UserID, err)
				}
			}
		}
	}

	return s.tokenStore.DeleteRefreshToken(ctx, tokenID)
}
