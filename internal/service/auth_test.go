package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Keknotocrack/hr-music-bot/internal/domain"
	"github.com/Keknotocrack/hr-music-bot/internal/hub"
	"github.com/Keknotocrack/hr-music-bot/internal/repository"
	"github.com/Keknotocrack/hr-music-bot/internal/repository/mocks"
	"github.com/Keknotocrack/hr-music-bot/internal/service"
)

func newAuthFixture(t *testing.T) (*service.AuthService, *mocks.UserRepository, *mocks.TransactionRepository, *eventRecorder) {
	t.Helper()
	mockUserRepo := new(mocks.UserRepository)
	mockTxRepo := new(mocks.TransactionRepository)
	events := &eventRecorder{}
	transactor := &mocks.Transactor{Repos: repository.TxRepositories{
		Users:        mockUserRepo,
		Transactions: mockTxRepo,
	}}
	authService, err := service.NewAuthService(mockUserRepo, transactor, events, "very-secret-key", 1)
	require.NoError(t, err, "创建 AuthService 不应失败")
	return authService, mockUserRepo, mockTxRepo, events
}

// --- 测试 Register 方法 ---

func TestAuthService_Register_GrantsSignupBonus(t *testing.T) {
	authService, mockUserRepo, mockTxRepo, _ := newAuthFixture(t)
	ctx := context.Background()
	username := "newbie"
	password := "StrongPass123"

	mockUserRepo.On("Save", ctx, mock.MatchedBy(func(user *domain.User) bool {
		assert.Equal(t, username, user.Username)
		assert.Equal(t, domain.RoleRegular, user.Role)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)), "密码应被正确哈希")
		return true
	})).
		Run(func(args mock.Arguments) {
			userArg := args.Get(1).(*domain.User)
			userArg.ID = 5
			userArg.CreatedAt = time.Now().Add(-time.Second)
		}).
		Return(nil).
		Once()
	// 初始方块通过 signup_bonus 流水入账，保持余额等于流水之和
	mockUserRepo.On("AdjustBalance", ctx, uint(5), service.DailyRewardCubes).Return(nil).Once()
	mockTxRepo.On("Insert", ctx, mock.MatchedBy(func(tx *domain.CubeTransaction) bool {
		return tx.Type == domain.TxTypeSignupBonus && tx.Amount == service.DailyRewardCubes && tx.UserID == 5
	})).Return(nil).Once()

	registeredUser, err := authService.Register(ctx, username, password)

	assert.NoError(t, err)
	require.NotNil(t, registeredUser)
	assert.Equal(t, uint(5), registeredUser.ID)
	assert.Empty(t, registeredUser.Password, "返回的用户密码应为空")
	assert.Equal(t, service.DailyRewardCubes, registeredUser.CubeBalance)

	mockUserRepo.AssertExpectations(t)
	mockTxRepo.AssertExpectations(t)
}

func TestAuthService_Register_DuplicateUsername(t *testing.T) {
	authService, mockUserRepo, mockTxRepo, _ := newAuthFixture(t)
	ctx := context.Background()

	mockUserRepo.On("Save", ctx, mock.AnythingOfType("*domain.User")).
		Return(repository.ErrDuplicateEntry).Once()

	_, err := authService.Register(ctx, "existingUser", "password123")

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrRegistrationFailed), "错误类型应为 ErrRegistrationFailed")
	mockUserRepo.AssertNotCalled(t, "AdjustBalance", mock.Anything, mock.Anything, mock.Anything)
	mockTxRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestAuthService_Register_EmptyInput(t *testing.T) {
	authService, _, _, _ := newAuthFixture(t)

	_, err := authService.Register(context.Background(), "", "password")
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = authService.Register(context.Background(), "user", "")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

// --- 测试 Login 方法 ---

func TestAuthService_Login_Success(t *testing.T) {
	authService, mockUserRepo, _, _ := newAuthFixture(t)
	ctx := context.Background()
	username := "testuser"
	password := "password123"
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	userInDb := &domain.User{ID: 1, Username: username, Password: string(hashedPassword)}

	mockUserRepo.On("FindByUsername", ctx, username).Return(userInDb, nil).Once()

	token, user, err := authService.Login(ctx, username, password)

	assert.NoError(t, err)
	assert.NotEmpty(t, token)
	require.NotNil(t, user)
	assert.Empty(t, user.Password)

	// 签发的 token 应能通过自身校验
	userID, err := authService.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, uint(1), userID)

	mockUserRepo.AssertExpectations(t)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	authService, mockUserRepo, _, _ := newAuthFixture(t)
	ctx := context.Background()
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.DefaultCost)

	mockUserRepo.On("FindByUsername", ctx, "testuser").
		Return(&domain.User{ID: 1, Username: "testuser", Password: string(hashedPassword)}, nil).Once()

	_, _, err := authService.Login(ctx, "testuser", "wrong-password")
	assert.ErrorIs(t, err, service.ErrAuthenticationFailed)
}

func TestAuthService_Login_UserNotFound(t *testing.T) {
	authService, mockUserRepo, _, _ := newAuthFixture(t)
	ctx := context.Background()

	mockUserRepo.On("FindByUsername", ctx, "ghost").
		Return(nil, repository.ErrUserNotFound).Once()

	_, _, err := authService.Login(ctx, "ghost", "password")
	// 对客户端统一返回认证失败，不泄露用户是否存在
	assert.ErrorIs(t, err, service.ErrAuthenticationFailed)
}

// --- 测试 UpdateRole 方法 ---

func TestAuthService_UpdateRole_PublishesEvent(t *testing.T) {
	authService, mockUserRepo, _, events := newAuthFixture(t)
	ctx := context.Background()

	mockUserRepo.On("UpdateRole", ctx, uint(7), domain.RoleVIP).Return(nil).Once()

	require.NoError(t, authService.UpdateRole(ctx, 7, domain.RoleVIP))
	assert.Contains(t, events.types(), hub.EventUserRoleUpdated)
}

func TestAuthService_UpdateRole_RejectsUnknownRole(t *testing.T) {
	authService, mockUserRepo, _, _ := newAuthFixture(t)

	err := authService.UpdateRole(context.Background(), 7, "superadmin")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
	mockUserRepo.AssertNotCalled(t, "UpdateRole", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_ValidateToken_RejectsGarbage(t *testing.T) {
	authService, _, _, _ := newAuthFixture(t)

	_, err := authService.ValidateToken("not-a-jwt")
	assert.ErrorIs(t, err, service.ErrAuthenticationFailed)
}
