package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"alumniverse/internal/model"
	"alumniverse/internal/repository"
	"alumniverse/pkg/es"
	"alumniverse/pkg/hash"
	"alumniverse/pkg/log"
	"alumniverse/pkg/oauth"
	"alumniverse/pkg/storage"
	"alumniverse/pkg/token"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 头像预签名 URL 的有效期。
const avatarURLExpiry = 7 * 24 * time.Hour

// AuthTokens 是一次登录或注册成功后签发的令牌对。
type AuthTokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RegisterRequest 是注册接口的业务参数。
type RegisterRequest struct {
	Name           string
	Email          string
	Password       string
	Role           string
	CollegeName    string
	GraduationYear int
	Major          string
}

// UpdateProfileRequest 是资料更新接口的业务参数，
// 指针字段为 nil 表示本次请求不修改该字段。
type UpdateProfileRequest struct {
	Name                   *string
	CollegeName            *string
	GraduationYear         *int
	CurrentCompany         *string
	JobTitle               *string
	ExpectedGraduationYear *int
	Major                  *string
	CareerGoals            *string
}

// OnboardRequest 是首次完善资料接口的业务参数。
type OnboardRequest struct {
	Role                   string
	CollegeName            string
	GraduationYear         int
	CurrentCompany         string
	JobTitle               string
	ExpectedGraduationYear int
	Major                  string
	CareerGoals            string
}

// UserService 接口定义了账号与个人资料相关的业务逻辑。
type UserService interface {
	Register(ctx context.Context, req RegisterRequest) (*model.User, *AuthTokens, error)
	Login(ctx context.Context, email, password, role string) (*model.User, *AuthTokens, error)
	// LoginWithGoogle 根据 Google 用户信息查找或创建本地账号并签发令牌。
	LoginWithGoogle(ctx context.Context, gu *oauth.GoogleUser) (*model.User, *AuthTokens, error)
	GetByID(userID uint) (*model.User, error)
	UpdateProfile(ctx context.Context, userID uint, req UpdateProfileRequest) (*model.User, error)
	Onboard(ctx context.Context, userID uint, req OnboardRequest) (*model.User, error)
	UpdateAvatar(ctx context.Context, userID uint, filename string, reader io.Reader, size int64, contentType string) (string, error)
	// Logout 将 access token 加入 Redis 黑名单直到其自然过期。
	Logout(ctx context.Context, tokenString string, claims *token.CustomClaims) error
	RefreshToken(refreshToken string) (*AuthTokens, error)
}

type userService struct {
	userRepo    repository.UserRepository
	jwtManager  *token.JWTManager
	redisClient *redis.Client
	esIndexName string
}

// NewUserService 创建一个新的 UserService 实例。
func NewUserService(userRepo repository.UserRepository, jwtManager *token.JWTManager, redisClient *redis.Client, esIndexName string) UserService {
	return &userService{
		userRepo:    userRepo,
		jwtManager:  jwtManager,
		redisClient: redisClient,
		esIndexName: esIndexName,
	}
}

// Register 处理传统的邮箱密码注册。
func (s *userService) Register(ctx context.Context, req RegisterRequest) (*model.User, *AuthTokens, error) {
	if req.Role != model.RoleStudent && req.Role != model.RoleAlumni {
		return nil, nil, ErrInvalidRole
	}

	// 1. 检查邮箱是否已被注册
	if _, err := s.userRepo.FindByEmail(req.Email); err == nil {
		return nil, nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, fmt.Errorf("failed to check email: %w", err)
	}

	// 2. 对密码进行哈希处理
	hashedPassword, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// 3. 创建用户记录
	user := &model.User{
		Name:           req.Name,
		Email:          strings.ToLower(req.Email),
		Password:       hashedPassword,
		AuthMethod:     model.AuthMethodTraditional,
		Role:           req.Role,
		CollegeName:    req.CollegeName,
		GraduationYear: req.GraduationYear,
		Major:          req.Major,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	// 4. 索引到 Elasticsearch（失败不影响注册）
	s.indexUser(ctx, user)

	// 5. 签发令牌
	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

// Login 处理传统的邮箱密码登录。
func (s *userService) Login(ctx context.Context, email, password, role string) (*model.User, *AuthTokens, error) {
	user, err := s.userRepo.FindByEmail(strings.ToLower(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}

	// Google 注册的账号没有密码，不允许走密码登录
	if user.AuthMethod == model.AuthMethodGoogle {
		return nil, nil, ErrGoogleAccount
	}
	if role != "" && user.Role != role {
		return nil, nil, ErrInvalidCredentials
	}
	if !hash.CheckPasswordHash(password, user.Password) {
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

// LoginWithGoogle 查找或创建 Google 账号对应的本地用户。
// 新用户默认角色为 student，等待 onboarding 时修正。
func (s *userService) LoginWithGoogle(ctx context.Context, gu *oauth.GoogleUser) (*model.User, *AuthTokens, error) {
	user, err := s.userRepo.FindByGoogleID(gu.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("failed to find user by google id: %w", err)
		}

		// 同邮箱的传统账号自动绑定 Google ID
		user, err = s.userRepo.FindByEmail(strings.ToLower(gu.Email))
		if err == nil {
			user.GoogleID = &gu.ID
			if user.ProfilePicture == "" {
				user.ProfilePicture = gu.Picture
			}
			if err := s.userRepo.Update(user); err != nil {
				return nil, nil, fmt.Errorf("failed to link google account: %w", err)
			}
		} else if errors.Is(err, gorm.ErrRecordNotFound) {
			user = &model.User{
				Name:           gu.Name,
				Email:          strings.ToLower(gu.Email),
				GoogleID:       &gu.ID,
				AuthMethod:     model.AuthMethodGoogle,
				Role:           model.RoleStudent,
				ProfilePicture: gu.Picture,
			}
			if err := s.userRepo.Create(user); err != nil {
				return nil, nil, fmt.Errorf("failed to create google user: %w", err)
			}
			s.indexUser(ctx, user)
		} else {
			return nil, nil, fmt.Errorf("failed to find user by email: %w", err)
		}
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

// GetByID 返回指定用户的完整资料。
func (s *userService) GetByID(userID uint) (*model.User, error) {
	return s.userRepo.FindByID(userID)
}

// UpdateProfile 更新用户资料中被显式提供的字段，并刷新搜索索引。
func (s *userService) UpdateProfile(ctx context.Context, userID uint, req UpdateProfileRequest) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.CollegeName != nil {
		user.CollegeName = *req.CollegeName
	}
	if req.GraduationYear != nil {
		user.GraduationYear = *req.GraduationYear
	}
	if req.CurrentCompany != nil {
		user.CurrentCompany = *req.CurrentCompany
	}
	if req.JobTitle != nil {
		user.JobTitle = *req.JobTitle
	}
	if req.ExpectedGraduationYear != nil {
		user.ExpectedGraduationYear = *req.ExpectedGraduationYear
	}
	if req.Major != nil {
		user.Major = *req.Major
	}
	if req.CareerGoals != nil {
		user.CareerGoals = *req.CareerGoals
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.indexUser(ctx, user)
	return user, nil
}

// Onboard 完成首次登录后的资料完善，并标记用户已完成 onboarding。
func (s *userService) Onboard(ctx context.Context, userID uint, req OnboardRequest) (*model.User, error) {
	if req.Role != model.RoleStudent && req.Role != model.RoleAlumni {
		return nil, ErrInvalidRole
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}

	user.Role = req.Role
	user.CollegeName = req.CollegeName
	user.IsOnboarded = true
	switch req.Role {
	case model.RoleAlumni:
		user.GraduationYear = req.GraduationYear
		user.CurrentCompany = req.CurrentCompany
		user.JobTitle = req.JobTitle
	case model.RoleStudent:
		user.ExpectedGraduationYear = req.ExpectedGraduationYear
		user.Major = req.Major
		user.CareerGoals = req.CareerGoals
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to onboard user: %w", err)
	}

	s.indexUser(ctx, user)
	return user, nil
}

// UpdateAvatar 将头像上传到对象存储并更新用户资料中的头像地址。
func (s *userService) UpdateAvatar(ctx context.Context, userID uint, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return "", err
	}

	objectName := fmt.Sprintf("avatars/%d/%s-%s", userID, uuid.NewString(), filename)
	if _, err := storage.UploadObject(ctx, objectName, reader, size, contentType); err != nil {
		return "", err
	}

	url, err := storage.GetPresignedURL(objectName, avatarURLExpiry)
	if err != nil {
		return "", err
	}

	user.ProfilePicture = url
	if err := s.userRepo.Update(user); err != nil {
		return "", fmt.Errorf("failed to save avatar url: %w", err)
	}

	s.indexUser(ctx, user)
	return url, nil
}

// Logout 将 token 加入黑名单，有效期与 token 的剩余有效期一致。
func (s *userService) Logout(ctx context.Context, tokenString string, claims *token.CustomClaims) error {
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	key := "blacklist:" + tokenString
	if err := s.redisClient.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}
	return nil
}

// RefreshToken 验证 refresh token 并签发新的令牌对。
func (s *userService) RefreshToken(refreshToken string) (*AuthTokens, error) {
	claims, err := s.jwtManager.VerifyToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issueTokens(user)
}

func (s *userService) issueTokens(user *model.User) (*AuthTokens, error) {
	accessToken, err := s.jwtManager.GenerateToken(user.ID, user.Name, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID, user.Name, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return &AuthTokens{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// indexUser 将用户资料同步到 Elasticsearch，失败只记录日志。
func (s *userService) indexUser(ctx context.Context, user *model.User) {
	if es.ESClient == nil {
		return
	}
	doc := model.EsUserDocument{
		UserID:         user.ID,
		Name:           user.Name,
		Role:           user.Role,
		CollegeName:    user.CollegeName,
		CurrentCompany: user.CurrentCompany,
		JobTitle:       user.JobTitle,
		Major:          user.Major,
		ProfilePicture: user.ProfilePicture,
		IsOnboarded:    user.IsOnboarded,
	}
	if err := es.IndexUser(ctx, s.esIndexName, doc); err != nil {
		log.Errorf("同步用户 %d 到搜索索引失败: %v", user.ID, err)
	}
}
