package service

import (
	"errors"
	"fmt"

	"studyhub/internal/apperr"
	"studyhub/internal/model"
	"studyhub/internal/repository"
	"studyhub/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

// 登陆失败统一回这一个错误，不区分用户不存在和密码错误
var ErrInvalidCredentials = errors.New("invalid username or password")

// 处理注册和登陆
type AuthService struct {
	userRepo *repository.UserRepository
}

func NewAuthService(userRepo *repository.UserRepository) *AuthService {
	return &AuthService{userRepo: userRepo}
}

type RegisterRequest struct {
	Username   string `json:"username" binding:"required,min=3,max=30"`
	Password   string `json:"password" binding:"required,min=6"`
	Email      string `json:"email" binding:"required,email"`
	FullName   string `json:"full_name"`
	University string `json:"university"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register 注册新用户。用户名和邮箱都要求唯一。
func (s *AuthService) Register(req RegisterRequest) (*model.User, error) {
	if taken, err := s.usernameTaken(req.Username); err != nil {
		return nil, err
	} else if taken {
		return nil, fmt.Errorf("%w: username already exists", apperr.ErrValidation)
	}

	if taken, err := s.emailTaken(req.Email); err != nil {
		return nil, err
	} else if taken {
		return nil, fmt.Errorf("%w: email already exists", apperr.ErrValidation)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:   req.Username,
		Password:   string(hashedPassword),
		Email:      req.Email,
		FullName:   req.FullName,
		University: req.University,
		Avatar:     "default.png",
	}
	if err := s.userRepo.Create(user); err != nil {
		// 预检和插入之间的并发注册由唯一键兜底
		if apperr.IsDuplicate(err) {
			return nil, fmt.Errorf("%w: username or email already exists", apperr.ErrValidation)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login 校验凭据并签发JWT令牌
func (s *AuthService) Login(req LoginRequest) (string, *model.User, error) {
	user, err := s.userRepo.FindByUsername(req.Username)
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		return "", nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := utils.GenerateToken(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return token, user, nil
}

func (s *AuthService) usernameTaken(username string) (bool, error) {
	existing, err := s.userRepo.FindByUsername(username)
	if err != nil {
		return false, err
	}
	return existing != nil, nil
}

func (s *AuthService) emailTaken(email string) (bool, error) {
	existing, err := s.userRepo.FindByEmail(email)
	if err != nil {
		return false, err
	}
	return existing != nil, nil
}
