package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"gst-billing-service/internal/gst"
	"gst-billing-service/internal/models"
	"gst-billing-service/internal/repository"
	"gst-billing-service/internal/validation"
)

const (
	// APITokenPrefix marks long lived API tokens so they can be told apart from JWTs
	APITokenPrefix = "wt_"

	minPasswordLength = 8
	maxPasswordBytes  = 72 // bcrypt ignores anything longer
)

// Claims is the payload of an access token
type Claims struct {
	UserID       string `json:"user_id"`
	ShopID       string `json:"shop_id"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	TokenVersion int    `json:"tv"`
	jwt.RegisteredClaims
}

// Principal is an authenticated caller
type Principal struct {
	UserID uuid.UUID
	ShopID uuid.UUID
	Email  string
	Role   models.UserRole
	Scopes []string // only set for API tokens
}

// AuthResult is returned by signup and login
type AuthResult struct {
	AccessToken string       `json:"accessToken"`
	TokenType   string       `json:"tokenType"`
	ExpiresAt   time.Time    `json:"expiresAt"`
	User        *models.User `json:"user"`
}

// CreatedAPIToken carries the raw token, which is only ever shown once
type CreatedAPIToken struct {
	Token    string           `json:"token"`
	APIToken *models.APIToken `json:"apiToken"`
}

// AuthService handles accounts, sessions and API tokens
type AuthService interface {
	Signup(ctx context.Context, req *models.SignupRequest, ip string) (*AuthResult, error)
	Login(ctx context.Context, req *models.LoginRequest, ip string) (*AuthResult, error)
	IssueToken(user *models.User) (string, time.Time, error)
	ParseToken(tokenString string) (*Claims, error)
	Authenticate(ctx context.Context, token string) (*Principal, error)
	ChangePassword(ctx context.Context, actor Actor, req *models.ChangePasswordRequest) (*AuthResult, error)
	LogoutAll(ctx context.Context, actor Actor) error

	CreateAPIToken(ctx context.Context, actor Actor, req *models.CreateAPITokenRequest) (*CreatedAPIToken, error)
	ListAPITokens(ctx context.Context, userID uuid.UUID) ([]models.APIToken, error)
	RevokeAPIToken(ctx context.Context, actor Actor, tokenID uuid.UUID) error
	AuthenticateAPIToken(ctx context.Context, raw string) (*Principal, error)
}

type authService struct {
	users     repository.UserRepository
	shops     repository.ShopRepository
	apiTokens repository.APITokenRepository
	audit     AuditService
	secret    []byte
	tokenTTL  time.Duration
	logger    *logrus.Entry
	now       func() time.Time
}

func NewAuthService(
	users repository.UserRepository,
	shops repository.ShopRepository,
	apiTokens repository.APITokenRepository,
	audit AuditService,
	secretKey string,
	tokenTTL time.Duration,
	logger *logrus.Logger,
) AuthService {
	return &authService{
		users:     users,
		shops:     shops,
		apiTokens: apiTokens,
		audit:     audit,
		secret:    []byte(secretKey),
		tokenTTL:  tokenTTL,
		logger:    logger.WithField("component", "auth"),
		now:       time.Now,
	}
}

func (s *authService) Signup(ctx context.Context, req *models.SignupRequest, ip string) (*AuthResult, error) {
	var errs validation.Errors

	fullName := strings.TrimSpace(req.FullName)
	shopName := strings.TrimSpace(req.ShopName)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	state := strings.TrimSpace(req.State)

	if fullName == "" {
		errs.Add("fullName", validation.CodeRequired, "Full name is required")
	}
	if shopName == "" {
		errs.Add("shopName", validation.CodeRequired, "Shop name is required")
	}
	if !validation.ValidateEmail(email) {
		errs.Add("email", validation.CodeInvalid, "Invalid email address")
	}
	mobile, ok := validation.NormalizePhone(req.Mobile)
	if !ok {
		errs.Add("mobile", validation.CodeInvalid, "Invalid mobile number. Use a 10 digit Indian mobile number")
	}
	if state == "" {
		errs.Add("state", validation.CodeRequired, "State is required")
	}
	gstin := validation.NormalizeGSTIN(req.GSTIN)
	if gstin != "" && !validation.ValidateGSTIN(gstin) {
		errs.Add("gstin", validation.CodeInvalid, "Invalid GSTIN format")
	}
	checkNewPassword(&errs, "password", req.Password, req.ConfirmPassword)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if _, err := s.users.GetByPhone(ctx, mobile); err == nil {
		return nil, ErrPhoneTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check phone: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	shop := &models.Shop{
		Name:          shopName,
		GSTIN:         gstin,
		BusinessEmail: email,
		BusinessPhone: mobile,
		City:          strings.TrimSpace(req.City),
		State:         state,
		StateCode:     resolveStateCode(gstin, state),
		PlaceOfSupply: state,
		InvoicePrefix: gst.DefaultInvoicePrefix,
	}
	user := &models.User{
		FullName:     fullName,
		Email:        email,
		Phone:        &mobile,
		PasswordHash: string(hash),
		Role:         models.UserRoleAdmin,
		IsActive:     true,
	}

	if err := s.shops.Create(ctx, shop, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	user.Shop = shop

	s.audit.Record(ctx, Actor{UserID: user.ID, ShopID: shop.ID, IP: ip}, AuditSignup, "user", user.ID.String(), nil)
	s.logger.WithFields(logrus.Fields{"shopId": shop.ID, "userId": user.ID}).Info("New shop registered")

	return s.result(user)
}

func (s *authService) Login(ctx context.Context, req *models.LoginRequest, ip string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if len(req.Password) > maxPasswordBytes {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}

	s.audit.Record(ctx, Actor{UserID: user.ID, ShopID: user.ShopID, IP: ip}, AuditLogin, "user", user.ID.String(), nil)
	return s.result(user)
}

func (s *authService) result(user *models.User) (*AuthResult, error) {
	token, expiresAt, err := s.IssueToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
		User:        user,
	}, nil
}

// IssueToken signs an HS256 access token for user
func (s *authService) IssueToken(user *models.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.tokenTTL)
	claims := Claims{
		UserID:       user.ID.String(),
		ShopID:       user.ShopID.String(),
		Email:        user.Email,
		Role:         string(user.Role),
		TokenVersion: user.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ParseToken verifies signature and expiry. It does not check the user.
func (s *authService) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Authenticate accepts either an access token or an API token
func (s *authService) Authenticate(ctx context.Context, token string) (*Principal, error) {
	if strings.HasPrefix(token, APITokenPrefix) {
		return s.AuthenticateAPIToken(ctx, token)
	}

	claims, err := s.ParseToken(token)
	if err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	// logout-all bumps the version, which retires every older token
	if !user.IsActive || user.TokenVersion != claims.TokenVersion {
		return nil, ErrInvalidToken
	}

	return &Principal{
		UserID: user.ID,
		ShopID: user.ShopID,
		Email:  user.Email,
		Role:   user.Role,
	}, nil
}

func (s *authService) ChangePassword(ctx context.Context, actor Actor, req *models.ChangePasswordRequest) (*AuthResult, error) {
	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	var errs validation.Errors
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		errs.Add("currentPassword", validation.CodeInvalid, "Current password is incorrect")
	}
	checkNewPassword(&errs, "newPassword", req.NewPassword, req.ConfirmPassword)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = string(hash)
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update password: %w", err)
	}

	version, err := s.users.BumpTokenVersion(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to rotate sessions: %w", err)
	}
	user.TokenVersion = version

	s.audit.Record(ctx, actor, AuditPasswordChanged, "user", user.ID.String(), nil)
	return s.result(user)
}

func (s *authService) LogoutAll(ctx context.Context, actor Actor) error {
	if _, err := s.users.BumpTokenVersion(ctx, actor.UserID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}
	revoked, err := s.apiTokens.RevokeAll(ctx, actor.UserID)
	if err != nil {
		return fmt.Errorf("failed to revoke api tokens: %w", err)
	}

	s.audit.Record(ctx, actor, AuditLogoutAll, "user", actor.UserID.String(), map[string]interface{}{
		"revokedApiTokens": revoked,
	})
	return nil
}

func (s *authService) CreateAPIToken(ctx context.Context, actor Actor, req *models.CreateAPITokenRequest) (*CreatedAPIToken, error) {
	name := strings.TrimSpace(req.Name)
	var errs validation.Errors
	if name == "" {
		errs.Add("name", validation.CodeRequired, "Token name is required")
	} else if len(name) > 100 {
		errs.Add("name", validation.CodeTooLong, "Token name must be at most 100 characters")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	raw, err := generateAPIToken()
	if err != nil {
		return nil, err
	}

	token := &models.APIToken{
		UserID:    actor.UserID,
		ShopID:    actor.ShopID,
		Name:      name,
		TokenHash: hashAPIToken(raw),
		Scopes:    req.Scopes,
	}
	if err := s.apiTokens.Create(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to create api token: %w", err)
	}

	s.audit.Record(ctx, actor, AuditTokenCreated, "api_token", token.ID.String(), map[string]interface{}{"name": name})
	return &CreatedAPIToken{Token: raw, APIToken: token}, nil
}

func (s *authService) ListAPITokens(ctx context.Context, userID uuid.UUID) ([]models.APIToken, error) {
	tokens, err := s.apiTokens.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list api tokens: %w", err)
	}
	return tokens, nil
}

func (s *authService) RevokeAPIToken(ctx context.Context, actor Actor, tokenID uuid.UUID) error {
	if err := s.apiTokens.Revoke(ctx, actor.UserID, tokenID); err != nil {
		return err
	}
	s.audit.Record(ctx, actor, AuditTokenRevoked, "api_token", tokenID.String(), nil)
	return nil
}

func (s *authService) AuthenticateAPIToken(ctx context.Context, raw string) (*Principal, error) {
	if !strings.HasPrefix(raw, APITokenPrefix) {
		return nil, ErrInvalidToken
	}

	token, err := s.apiTokens.GetActiveByHash(ctx, hashAPIToken(raw))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to load api token: %w", err)
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil || !user.IsActive {
		return nil, ErrInvalidToken
	}

	if err := s.apiTokens.Touch(ctx, token.ID, s.now()); err != nil {
		s.logger.WithError(err).WithField("tokenId", token.ID).Warn("Failed to update api token last use")
	}

	return &Principal{
		UserID: user.ID,
		ShopID: token.ShopID,
		Email:  user.Email,
		Role:   user.Role,
		Scopes: token.Scopes,
	}, nil
}

func checkNewPassword(errs *validation.Errors, field, password, confirm string) {
	switch {
	case password != confirm:
		errs.Add(field, validation.CodeMismatch, "Passwords do not match!")
	case len(password) > maxPasswordBytes:
		errs.Add(field, validation.CodeTooLong, "Password too long. Please use a password shorter than 72 bytes.")
	case len(password) < minPasswordLength:
		errs.Add(field, validation.CodeTooShort, fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}
}

// resolveStateCode prefers the code embedded in a GSTIN over the state name
func resolveStateCode(gstin, state string) string {
	if code, ok := validation.StateCodeFromGSTIN(gstin); ok {
		return code
	}
	if code, ok := gst.StateCode(state); ok {
		return code
	}
	return ""
}

func generateAPIToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate api token: %w", err)
	}
	return APITokenPrefix + hex.EncodeToString(buf), nil
}

func hashAPIToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
