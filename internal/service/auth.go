package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/Keknotocrack/hr-music-bot/internal/domain"
	"github.com/Keknotocrack/hr-music-bot/internal/hub"
	"github.com/Keknotocrack/hr-music-bot/internal/repository"
)

// AuthService 负责用户认证与账号相关的业务逻辑。
type AuthService struct {
	userRepo   repository.UserRepository
	transactor repository.Transactor
	events     Publisher
	jwtSecret  []byte
	jwtExpiry  time.Duration
}

// NewAuthService 创建 AuthService 实例。
// jwtSecretKey 应从安全配置中获取。
// jwtExpiryHours 定义 token 过期的小时数。
func NewAuthService(userRepo repository.UserRepository, transactor repository.Transactor, events Publisher, jwtSecretKey string, jwtExpiryHours int) (*AuthService, error) {
	if userRepo == nil {
		panic("UserRepository cannot be nil for AuthService")
	}
	if transactor == nil {
		panic("Transactor cannot be nil for AuthService")
	}
	if events == nil {
		panic("Publisher cannot be nil for AuthService")
	}
	if jwtSecretKey == "" {
		return nil, fmt.Errorf("JWT secret key cannot be empty")
	}
	if jwtExpiryHours <= 0 {
		jwtExpiryHours = 24
	}
	return &AuthService{
		userRepo:   userRepo,
		transactor: transactor,
		events:     events,
		jwtSecret:  []byte(jwtSecretKey),
		jwtExpiry:  time.Duration(jwtExpiryHours) * time.Hour,
	}, nil
}

// Register 处理用户注册。新用户通过一条 signup_bonus 流水获得
// 初始方块，保持"余额等于流水之和"的不变式从第一天起成立。
func (s *AuthService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	logCtx := logrus.WithField("username", username)

	if username == "" || password == "" {
		return nil, ErrInvalidInput
	}

	hashedPassword, err := hashPassword(password)
	if err != nil {
		logCtx.WithError(err).Error("Failed to hash password during registration")
		return nil, ErrInternalServer
	}

	user := &domain.User{
		Username: username,
		Password: hashedPassword,
		Role:     domain.RoleRegular,
	}

	err = s.transactor.InTransaction(ctx, func(repos repository.TxRepositories) error {
		if err := repos.Users.Save(ctx, user); err != nil {
			return err
		}
		if err := repos.Users.AdjustBalance(ctx, user.ID, DailyRewardCubes); err != nil {
			return err
		}
		return repos.Transactions.Insert(ctx, &domain.CubeTransaction{
			UserID:      user.ID,
			Type:        domain.TxTypeSignupBonus,
			Amount:      DailyRewardCubes,
			Description: "Welcome bonus",
		})
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			logCtx.Warn("Registration failed: username already exists")
			return nil, ErrRegistrationFailed
		}
		logCtx.WithError(err).Error("Database error during user creation")
		return nil, ErrInternalServer
	}

	logCtx.WithField("user_id", user.ID).Info("User registered successfully")
	user.Password = ""
	user.CubeBalance = DailyRewardCubes
	return user, nil
}

// Login 处理用户登录，成功时返回签名后的 JWT。
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	logCtx := logrus.WithField("username", username)

	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			logCtx.Warn("Login attempt failed: User not found")
		} else {
			logCtx.WithError(err).Warn("Login attempt failed: Error finding user")
		}
		return "", nil, ErrAuthenticationFailed
	}
	if user == nil {
		logCtx.Warn("Login attempt failed: User not found (repo returned nil user without error)")
		return "", nil, ErrAuthenticationFailed
	}

	if !checkPassword(password, user.Password) {
		logCtx.Warn("Login attempt failed: Invalid password")
		return "", nil, ErrAuthenticationFailed
	}

	token, err := s.generateJWT(user.ID)
	if err != nil {
		logCtx.WithError(err).Error("Failed to generate JWT token during login")
		return "", nil, ErrInternalServer
	}

	logCtx.WithField("user_id", user.ID).Info("User logged in successfully")
	user.Password = ""
	return token, user, nil
}

// GetUser 返回用户信息 (不含密码哈希)。
func (s *AuthService) GetUser(ctx context.Context, userID uint) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Database error loading user")
		return nil, ErrInternalServer
	}
	user.Password = ""
	return user, nil
}

// UpdateRole 修改用户角色。角色决定点歌扣费豁免，
// 变更实时广播给仪表盘。
func (s *AuthService) UpdateRole(ctx context.Context, userID uint, role string) error {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "role": role})

	switch role {
	case domain.RoleRegular, domain.RoleVIP, domain.RoleOwner:
	default:
		return ErrInvalidInput
	}

	if err := s.userRepo.UpdateRole(ctx, userID, role); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			logCtx.Warn("Role update rejected: user not found")
			return ErrUserNotFound
		}
		logCtx.WithError(err).Error("Database error updating user role")
		return ErrInternalServer
	}

	logCtx.Info("User role updated")
	s.events.Publish(hub.Event{Type: hub.EventUserRoleUpdated, Data: map[string]interface{}{
		"userId": userID,
		"role":   role,
	}})
	return nil
}

// ValidateToken 解析并校验 JWT，返回其中的用户 ID。
func (s *AuthService) ValidateToken(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return 0, ErrAuthenticationFailed
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrAuthenticationFailed
	}
	userIDFloat, ok := claims["user_id"].(float64)
	if !ok {
		return 0, ErrAuthenticationFailed
	}
	return uint(userIDFloat), nil
}

// --- 私有辅助函数 ---

// hashPassword 使用 bcrypt 对密码进行哈希处理
func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to generate hash from password: %w", err)
	}
	return string(bytes), nil
}

// checkPassword 验证提供的密码是否与存储的哈希匹配
func checkPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// generateJWT 为指定用户 ID 生成 JWT Token
func (s *AuthService) generateJWT(userID uint) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(s.jwtExpiry).Unix(),
		"iat":     time.Now().Unix(),
	})
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}
