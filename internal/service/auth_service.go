package service

import (
	"context"
	"regexp"

	"go.uber.org/zap"

	apperrors "github.com/RedDot15/BE-Xiangqi/internal/errors"
	"github.com/RedDot15/BE-Xiangqi/internal/models"
	"github.com/RedDot15/BE-Xiangqi/internal/repository"
	"github.com/RedDot15/BE-Xiangqi/internal/utils"
)

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
	Password string `json:"password" binding:"required,min=6,max=64"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse 认证响应
type AuthResponse struct {
	PlayerID     int64  `json:"playerId"`
	Username     string `json:"username"`
	Rating       int    `json:"rating"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// AuthService 认证服务
type AuthService struct {
	players    repository.PlayerRepository
	jwtManager *utils.JWTManager
	log        *zap.Logger
}

// NewAuthService 创建认证服务
func NewAuthService(
	players repository.PlayerRepository,
	jwtManager *utils.JWTManager,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		players:    players,
		jwtManager: jwtManager,
		log:        log,
	}
}

// Register 玩家注册
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if !usernameRe.MatchString(req.Username) {
		return nil, apperrors.New(apperrors.ErrInvalidParam, "用户名只能包含字母、数字和下划线")
	}

	if existing, _ := s.players.FindByUsername(ctx, req.Username); existing != nil {
		return nil, apperrors.New(apperrors.ErrUsernameDuplicate)
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternal, "密码加密失败")
	}

	player := &models.Player{
		Username: req.Username,
		Password: hashed,
		Rating:   models.DefaultRating,
		Role:     models.RolePlayer,
	}
	if err := s.players.Create(ctx, player); err != nil {
		s.log.Error("创建玩家失败", zap.String("username", req.Username), zap.Error(err))
		return nil, err
	}

	s.log.Info("玩家注册成功",
		zap.Int64("playerId", player.ID),
		zap.String("username", player.Username))
	return s.issueTokens(player)
}

// Login 玩家登录
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	player, err := s.players.FindByUsername(ctx, req.Username)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.New(apperrors.ErrAuthentication)
		}
		return nil, err
	}

	ok, err := utils.VerifyPassword(req.Password, player.Password)
	if err != nil || !ok {
		return nil, apperrors.New(apperrors.ErrAuthentication)
	}

	s.log.Info("玩家登录", zap.Int64("playerId", player.ID))
	return s.issueTokens(player)
}

// Refresh 用刷新令牌换新访问令牌
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := s.jwtManager.ValidateToken(refreshToken)
	if err != nil {
		if err == utils.ErrExpiredToken {
			return nil, apperrors.New(apperrors.ErrTokenExpired)
		}
		return nil, apperrors.New(apperrors.ErrTokenInvalid)
	}
	if claims.TokenType != "refresh" {
		return nil, apperrors.New(apperrors.ErrTokenInvalid)
	}

	player, err := s.players.FindByID(ctx, claims.PlayerID)
	if err != nil {
		return nil, err
	}
	return s.issueTokens(player)
}

func (s *AuthService) issueTokens(player *models.Player) (*AuthResponse, error) {
	access, err := s.jwtManager.GenerateAccessToken(player.ID, player.Username, player.Role)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternal, "签发访问令牌失败")
	}
	refresh, err := s.jwtManager.GenerateRefreshToken(player.ID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternal, "签发刷新令牌失败")
	}
	return &AuthResponse{
		PlayerID:     player.ID,
		Username:     player.Username,
		Rating:       player.Rating,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}
