package service

import (
	"crypto/subtle"
	"student_risk_backend/internal/config"
	"student_risk_backend/internal/util"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// AuthService 单个操作员账号，凭据来自配置
type AuthService struct {
	mu   sync.RWMutex
	auth config.AuthConfig
	jwt  config.JWTConfig
}

func NewAuthService(auth config.AuthConfig, jwt config.JWTConfig) *AuthService {
	return &AuthService{auth: auth, jwt: jwt}
}

func (s *AuthService) UpdateConfig(auth config.AuthConfig, jwt config.JWTConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth = auth
	s.jwt = jwt
}

func (s *AuthService) Enabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.auth.Enabled
}

func (s *AuthService) Secret() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.jwt.Secret
}

// Login 校验用户名和 bcrypt 密码，成功返回 JWT
func (s *AuthService) Login(username, password string) (string, error) {
	s.mu.RLock()
	auth, jwtCfg := s.auth, s.jwt
	s.mu.RUnlock()

	if subtle.ConstantTimeCompare([]byte(username), []byte(auth.Username)) != 1 {
		return "", util.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(auth.PasswordHash), []byte(password)); err != nil {
		return "", util.ErrInvalidCredentials
	}

	return util.GenerateJWT(auth.Username, util.RoleOperator, jwtCfg.Secret, jwtCfg.ExpireTime)
}

// HashPassword 生成配置文件用的密码哈希
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
