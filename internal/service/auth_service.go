package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/paresh-singh/Vehicle-parking/internal/domain"
	"github.com/paresh-singh/Vehicle-parking/internal/logging"
	"github.com/paresh-singh/Vehicle-parking/internal/repository"
)

var ErrInvalidCredentials = errors.New("invalid username or password")
var ErrUserAlreadyExists = errors.New("username already exists")
var ErrTokenInvalid = errors.New("token is invalid or expired")
var ErrTokenRevoked = errors.New("token has been revoked")

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims carried by both access and refresh tokens. Subject is the user ID.
type Claims struct {
	Username  string `json:"username"`
	Role      string `json:"role"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// UserID parses the numeric subject.
func (c *Claims) UserID() (int, error) {
	id, err := strconv.Atoi(c.Subject)
	if err != nil {
		return 0, fmt.Errorf("%w: bad subject %q", ErrTokenInvalid, c.Subject)
	}
	return id, nil
}

type AuthService struct {
	store      repository.Store
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	clock      Clock
}

func NewAuthService(store repository.Store, jwtSecret string, accessTTL, refreshTTL time.Duration, clock Clock) *AuthService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &AuthService{
		store:      store,
		jwtSecret:  []byte(jwtSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		clock:      clock,
	}
}

// Register creates a regular user account.
func (s *AuthService) Register(ctx context.Context, dto domain.RegisterUserDTO) (*domain.User, error) {
	return s.createUser(ctx, dto.Username, dto.Password, domain.RoleUser)
}

func (s *AuthService) createUser(ctx context.Context, username, password, role string) (*domain.User, error) {
	users := s.store.Repos().Users
	existing, err := users.FindByUsername(ctx, username)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("checking username: %w", err)
	}
	if existing != nil {
		return nil, ErrUserAlreadyExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	created, err := users.Create(ctx, &domain.User{
		Username: username,
		Password: string(hashedPassword),
		Role:     role,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}
	created.Password = ""
	return created, nil
}

// EnsureAdmin creates the admin account if no user with that name exists.
// It reports whether an account was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	if username == "" || password == "" {
		return false, fmt.Errorf("%w: admin username and password are required", ErrInvalidArgument)
	}
	_, err := s.createUser(ctx, username, password, domain.RoleAdmin)
	if errors.Is(err, ErrUserAlreadyExists) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	logging.WithFields(ctx, logrus.Fields{"username": username}).Info("admin account created")
	return true, nil
}

func (s *AuthService) Login(ctx context.Context, dto domain.LoginUserDTO) (*domain.AuthResponseDTO, error) {
	user, err := s.store.Repos().Users.FindByUsername(ctx, dto.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("finding user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(dto.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issueTokens(user.ID, user.Username, user.Role)
}

// Refresh exchanges a refresh token for a new token pair. The old refresh
// token is revoked so it can be used only once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.AuthResponseDTO, error) {
	claims, err := s.ValidateToken(ctx, refreshToken, TokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, err
	}
	user, err := s.store.Repos().Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", ErrTokenInvalid)
		}
		return nil, err
	}
	if err := s.revoke(ctx, claims); err != nil {
		return nil, err
	}
	return s.issueTokens(user.ID, user.Username, user.Role)
}

// Logout revokes the access token and, when given, the refresh token.
func (s *AuthService) Logout(ctx context.Context, access *Claims, refreshToken string) error {
	if err := s.revoke(ctx, access); err != nil {
		return err
	}
	if refreshToken == "" {
		return nil
	}
	refresh, err := s.ValidateToken(ctx, refreshToken, TokenTypeRefresh)
	if err != nil {
		// Already unusable.
		return nil
	}
	return s.revoke(ctx, refresh)
}

func (s *AuthService) revoke(ctx context.Context, claims *Claims) error {
	expiresAt := s.clock.Now().Add(s.refreshTTL)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return s.store.Repos().RevokedTokens.Revoke(ctx, claims.ID, expiresAt)
}

func (s *AuthService) issueTokens(userID int, username, role string) (*domain.AuthResponseDTO, error) {
	access, err := s.sign(userID, username, role, TokenTypeAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sign(userID, username, role, TokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &domain.AuthResponseDTO{
		AccessToken:  access,
		RefreshToken: refresh,
		UserID:       userID,
		Username:     username,
		Role:         role,
	}, nil
}

func (s *AuthService) sign(userID int, username, role, tokenType string, ttl time.Duration) (string, error) {
	now := s.clock.Now()
	claims := Claims{
		Username:  username,
		Role:      role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.Itoa(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses tokenString, checks it is of expectedType and has not
// been revoked.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString, expectedType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.clock.Now), jwt.WithExpirationRequired())
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, fmt.Errorf("%w: malformed token", ErrTokenInvalid)
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("%w: token expired", ErrTokenInvalid)
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, fmt.Errorf("%w: token not valid yet", ErrTokenInvalid)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.TokenType != expectedType {
		return nil, fmt.Errorf("%w: expected %s token", ErrTokenInvalid, expectedType)
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("%w: missing token id", ErrTokenInvalid)
	}

	revoked, err := s.store.Repos().RevokedTokens.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("checking token revocation: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

func (s *AuthService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.store.Repos().Users.FindAll(ctx)
}

// PurgeRevokedTokens drops revocations whose tokens have expired anyway.
func (s *AuthService) PurgeRevokedTokens(ctx context.Context) (int64, error) {
	n, err := s.store.Repos().RevokedTokens.DeleteExpired(ctx, s.clock.Now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logging.WithFields(ctx, logrus.Fields{"purged": n}).Info("expired token revocations purged")
	}
	return n, nil
}
