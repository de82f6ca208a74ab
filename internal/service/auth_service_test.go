package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"eventhub/internal/auth"
	"eventhub/internal/credstore"
	apperrors "eventhub/internal/errors"
	"eventhub/internal/idp"
	"eventhub/internal/model"
)

func hashWithCost(t *testing.T, password string, cost int) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	assert.NoError(t, err)
	return string(hash)
}

func newTestCredStore(t *testing.T) *credstore.Store {
	t.Helper()
	store, err := credstore.NewStore(filepath.Join(t.TempDir(), "users.json"))
	assert.NoError(t, err)
	return store
}

func TestAuthService_Login_LocalHashPrecedence(t *testing.T) {
	tests := []struct {
		name          string
		password      string
		user          *model.User
		expectedError error
	}{
		{
			name:     "local hash verifies",
			password: "correct horse",
			user: &model.User{
				ID:           7,
				Email:        "local@example.com",
				FullName:     "Local User",
				PasswordHash: hashWithCost(t, "correct horse", bcryptCost),
				IsActive:     true,
			},
			expectedError: nil,
		},
		{
			name:     "wrong password fails without provider fallback",
			password: "wrong password",
			user: &model.User{
				ID:           7,
				Email:        "local@example.com",
				PasswordHash: hashWithCost(t, "correct horse", bcryptCost),
				IsActive:     true,
			},
			expectedError: ErrInvalidCredentials,
		},
		{
			name:     "deactivated account is rejected",
			password: "correct horse",
			user: &model.User{
				ID:           7,
				Email:        "local@example.com",
				PasswordHash: hashWithCost(t, "correct horse", bcryptCost),
				IsActive:     false,
			},
			expectedError: apperrors.ErrAccountDeactivated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUsers := new(MockUserRepository)
			mockUsers.On("FindByEmail", mock.Anything, tt.user.Email).Return(tt.user, nil)

			mockTokenStore := new(MockTokenStore)
			if tt.expectedError == nil {
				mockTokenStore.On("StoreRefreshToken", mock.Anything, mock.Anything, tt.user.ID, tt.user.Email, mock.Anything).Return(nil)
			}

			provider := &fakeProvider{loginResult: idp.LoginResult{Success: true}}
			svc := NewAuthService(mockUsers, nil, provider, NewReconciler(mockUsers), auth.NewJWTService("test-secret"), mockTokenStore)

			signIn, err := svc.Login(context.Background(), tt.user.Email, tt.password, false)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, signIn)
			} else {
				assert.NoError(t, err)
				assert.NotEmpty(t, signIn.AccessToken)
				assert.NotEmpty(t, signIn.RefreshToken)
			}
			// A user with a local hash never reaches the provider, even on
			// failure: stale provider passwords must not work.
			assert.Zero(t, provider.loginCalls)
			mockUsers.AssertExpectations(t)
			mockTokenStore.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login_RehashesLowCostHash(t *testing.T) {
	user := &model.User{
		ID:           3,
		Email:        "old@example.com",
		PasswordHash: hashWithCost(t, "password123", 10),
		IsActive:     true,
	}

	var persisted string
	mockUsers := new(MockUserRepository)
	mockUsers.On("FindByEmail", mock.Anything, user.Email).Return(user, nil)
	mockUsers.On("UpdatePasswordHash", mock.Anything, user.ID, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { persisted = args.String(2) }).
		Return(nil)

	mockTokenStore := new(MockTokenStore)
	mockTokenStore.On("StoreRefreshToken", mock.Anything, mock.Anything, user.ID, user.Email, mock.Anything).Return(nil)

	svc := NewAuthService(mockUsers, nil, &fakeProvider{}, NewReconciler(mockUsers), auth.NewJWTService("test-secret"), mockTokenStore)

	signIn, err := svc.Login(context.Background(), user.Email, "password123", false)
	assert.NoError(t, err)
	assert.NotNil(t, signIn)

	mockUsers.AssertExpectations(t)
	assert.NotEmpty(t, persisted)
	cost, err := bcrypt.Cost([]byte(persisted))
	assert.NoError(t, err)
	assert.Equal(t, bcryptCost, cost)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(persisted), []byte("password123")))
}

func TestAuthService_Login_ProviderPath(t *testing.T) {
	tests := []struct {
		name          string
		loginResult   idp.LoginResult
		existing      *model.User
		expectedError error
	}{
		{
			name:        "first provider login creates relational row",
			loginResult: idp.LoginResult{Success: true, Email: "new@example.com", FullName: "New User"},
			existing:    nil,
		},
		{
			name:          "provider rejection",
			loginResult:   idp.LoginResult{Success: false},
			existing:      nil,
			expectedError: ErrInvalidCredentials,
		},
		{
			name:        "deactivated provider-backed account is rejected",
			loginResult: idp.LoginResult{Success: true, Email: "blocked@example.com"},
			existing: &model.User{
				ID:       9,
				Email:    "blocked@example.com",
				IsActive: false,
			},
			expectedError: apperrors.ErrAccountDeactivated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			email := tt.loginResult.Email
			if email == "" {
				email = "new@example.com"
			}

			mockUsers := new(MockUserRepository)
			if tt.existing != nil {
				mockUsers.On("FindByEmail", mock.Anything, email).Return(tt.existing, nil)
			} else {
				mockUsers.On("FindByEmail", mock.Anything, email).Return(nil, gorm.ErrRecordNotFound)
			}
			if tt.loginResult.Success && tt.existing == nil {
				mockUsers.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).
					Run(func(args mock.Arguments) { args.Get(1).(*model.User).ID = 42 }).
					Return(nil)
			}

			mockTokenStore := new(MockTokenStore)
			if tt.expectedError == nil {
				mockTokenStore.On("StoreRefreshToken", mock.Anything, mock.Anything, uint(42), email, mock.Anything).Return(nil)
			}

			provider := &fakeProvider{loginResult: tt.loginResult}
			svc := NewAuthService(mockUsers, newTestCredStore(t), provider, NewReconciler(mockUsers), auth.NewJWTService("test-secret"), mockTokenStore)

			signIn, err := svc.Login(context.Background(), email, "password123", true)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, signIn)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, signIn.User)
				assert.Equal(t, email, signIn.User.Email)
				assert.True(t, signIn.User.IsActive)
			}
			assert.Equal(t, 1, provider.loginCalls)
			mockUsers.AssertExpectations(t)
			mockTokenStore.AssertExpectations(t)
		})
	}
}

func TestAuthService_Register(t *testing.T) {
	t.Run("successful signup materializes all stores", func(t *testing.T) {
		creds := newTestCredStore(t)

		mockUsers := new(MockUserRepository)
		mockUsers.On("FindByEmail", mock.Anything, "new@example.com").Return(nil, gorm.ErrRecordNotFound)
		mockUsers.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).
			Run(func(args mock.Arguments) { args.Get(1).(*model.User).ID = 5 }).
			Return(nil)

		mockTokenStore := new(MockTokenStore)
		mockTokenStore.On("StoreRefreshToken", mock.Anything, mock.Anything, uint(5), "new@example.com", mock.Anything).Return(nil)

		provider := &fakeProvider{signupResult: idp.SignupResult{Success: true, Email: "new@example.com"}}
		svc := NewAuthService(mockUsers, creds, provider, NewReconciler(mockUsers), auth.NewJWTService("test-secret"), mockTokenStore)

		signIn, err := svc.Register(context.Background(), "new@example.com", "password123", "New User")
		assert.NoError(t, err)
		assert.NotEmpty(t, signIn.AccessToken)

		rec, err := creds.FindByEmail("new@example.com")
		assert.NoError(t, err)
		assert.NotNil(t, rec)
		assert.Equal(t, "New User", rec.FullName)
		mockUsers.AssertExpectations(t)
	})

	t.Run("email already in credential file", func(t *testing.T) {
		creds := newTestCredStore(t)
		assert.NoError(t, creds.Add(credstore.Record{Email: "taken@example.com", FullName: "Existing"}))

		provider := &fakeProvider{signupResult: idp.SignupResult{Success: true}}
		svc := NewAuthService(new(MockUserRepository), creds, provider, nil, auth.NewJWTService("test-secret"), new(MockTokenStore))

		signIn, err := svc.Register(context.Background(), "taken@example.com", "password123", "Someone Else")
		assert.ErrorIs(t, err, apperrors.ErrEmailTaken)
		assert.Nil(t, signIn)
		assert.Zero(t, provider.signupCalls)
	})

	t.Run("provider rejection surfaces classified message", func(t *testing.T) {
		provider := &fakeProvider{signupResult: idp.SignupResult{Success: false, ErrorMessage: "An account with that email already exists."}}
		svc := NewAuthService(new(MockUserRepository), newTestCredStore(t), provider, nil, auth.NewJWTService("test-secret"), new(MockTokenStore))

		signIn, err := svc.Register(context.Background(), "dupe@example.com", "password123", "Dupe")
		assert.Nil(t, signIn)

		var signupErr *SignupError
		assert.ErrorAs(t, err, &signupErr)
		assert.Equal(t, "An account with that email already exists.", signupErr.Message)
	})
}

func TestAuthService_ChangePassword(t *testing.T) {
	t.Run("local change survives provider failure", func(t *testing.T) {
		user := &model.User{
			ID:           4,
			Email:        "user@example.com",
			PasswordHash: hashWithCost(t, "old password", bcryptCost),
			IsActive:     true,
		}

		var persisted string
		mockUsers := new(MockUserRepository)
		mockUsers.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		mockUsers.On("UpdatePasswordHash", mock.Anything, user.ID, mock.AnythingOfType("string")).
			Run(func(args mock.Arguments) { persisted = args.String(2) }).
			Return(nil)

		provider := &fakeProvider{updatePasswordOK: false}
		svc := NewAuthService(mockUsers, nil, provider, nil, auth.NewJWTService("test-secret"), new(MockTokenStore))

		err := svc.ChangePassword(context.Background(), user.ID, "old password", "new password")
		assert.NoError(t, err)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(persisted), []byte("new password")))
		assert.Equal(t, 1, provider.updatePasswordCalls)
		mockUsers.AssertExpectations(t)
	})

	t.Run("wrong current password", func(t *testing.T) {
		user := &model.User{
			ID:           4,
			Email:        "user@example.com",
			PasswordHash: hashWithCost(t, "old password", bcryptCost),
			IsActive:     true,
		}

		mockUsers := new(MockUserRepository)
		mockUsers.On("FindByID", mock.Anything, user.ID).Return(user, nil)

		provider := &fakeProvider{updatePasswordOK: true}
		svc := NewAuthService(mockUsers, nil, provider, nil, auth.NewJWTService("test-secret"), new(MockTokenStore))

		err := svc.ChangePassword(context.Background(), user.ID, "not the password", "new password")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Zero(t, provider.updatePasswordCalls)
		mockUsers.AssertNotCalled(t, "UpdatePasswordHash", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("provider verifies current when no local hash", func(t *testing.T) {
		user := &model.User{ID: 6, Email: "idp@example.com", IsActive: true}

		mockUsers := new(MockUserRepository)
		mockUsers.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		mockUsers.On("UpdatePasswordHash", mock.Anything, user.ID, mock.AnythingOfType("string")).Return(nil)

		provider := &fakeProvider{loginResult: idp.LoginResult{Success: true}, updatePasswordOK: true}
		svc := NewAuthService(mockUsers, nil, provider, nil, auth.NewJWTService("test-secret"), new(MockTokenStore))

		err := svc.ChangePassword(context.Background(), user.ID, "provider password", "new password")
		assert.NoError(t, err)
		assert.Equal(t, 1, provider.loginCalls)
		assert.Equal(t, 1, provider.updatePasswordCalls)
		mockUsers.AssertExpectations(t)
	})
}

func TestAuthService_RefreshToken(t *testing.T) {
	user := &model.User{ID: 11, Email: "user@example.com", FullName: "User", IsActive: true}
	jwtService := auth.NewJWTService("test-secret")

	tokenID, refreshToken, err := jwtService.GenerateRefreshToken(user.ID, user.Email, auth.SessionRefreshExpiry)
	assert.NoError(t, err)

	t.Run("valid refresh", func(t *testing.T) {
		mockUsers := new(MockUserRepository)
		mockUsers.On("FindByID", mock.Anything, user.ID).Return(user, nil)

		mockTokenStore := new(MockTokenStore)
		mockTokenStore.On("GetRefreshToken", mock.Anything, tokenID).Return(user.ID, user.Email, nil)

		svc := NewAuthService(mockUsers, nil, &fakeProvider{}, nil, jwtService, mockTokenStore)

		accessToken, err := svc.RefreshToken(context.Background(), refreshToken)
		assert.NoError(t, err)
		assert.NotEmpty(t, accessToken)
	})

	t.Run("session not in store", func(t *testing.T) {
		mockTokenStore := new(MockTokenStore)
		mockTokenStore.On("GetRefreshToken", mock.Anything, tokenID).Return(uint(0), "", assert.AnError)

		svc := NewAuthService(new(MockUserRepository), nil, &fakeProvider{}, nil, jwtService, mockTokenStore)

		_, err := svc.RefreshToken(context.Background(), refreshToken)
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		svc := NewAuthService(new(MockUserRepository), nil, &fakeProvider{}, nil, jwtService, new(MockTokenStore))

		_, err := svc.RefreshToken(context.Background(), "not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})
}

func TestAuthService_Logout(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret")

	refreshID, refreshToken, err := jwtService.GenerateRefreshToken(11, "user@example.com", auth.SessionRefreshExpiry)
	assert.NoError(t, err)
	accessToken, err := jwtService.GenerateAccessToken(11, "user@example.com", "User", false)
	assert.NoError(t, err)
	accessID, err := jwtService.ExtractTokenID(accessToken)
	assert.NoError(t, err)

	t.Run("revokes refresh session and blacklists access token", func(t *testing.T) {
		mockTokenStore := new(MockTokenStore)
		mockTokenStore.On("BlacklistAccessToken", mock.Anything, accessID, mock.MatchedBy(func(ttl time.Duration) bool {
			return ttl > 0 && ttl <= auth.AccessTokenExpiry
		})).Return(nil)
		mockTokenStore.On("DeleteRefreshToken", mock.Anything, refreshID).Return(nil)

		svc := NewAuthService(new(MockUserRepository), nil, &fakeProvider{}, nil, jwtService, mockTokenStore)

		assert.NoError(t, svc.Logout(context.Background(), refreshToken, accessToken))
		mockTokenStore.AssertExpectations(t)
	})

	t.Run("missing access token only revokes the session", func(t *testing.T) {
		mockTokenStore := new(MockTokenStore)
		mockTokenStore.On("DeleteRefreshToken", mock.Anything, refreshID).Return(nil)

		svc := NewAuthService(new(MockUserRepository), nil, &fakeProvider{}, nil, jwtService, mockTokenStore)

		assert.NoError(t, svc.Logout(context.Background(), refreshToken, ""))
		mockTokenStore.AssertNotCalled(t, "BlacklistAccessToken", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("invalid refresh token", func(t *testing.T) {
		svc := NewAuthService(new(MockUserRepository), nil, &fakeProvider{}, nil, jwtService, new(MockTokenStore))

		assert.ErrorIs(t, svc.Logout(context.Background(), "not-a-jwt", accessToken), ErrInvalidRefreshToken)
	})
}
