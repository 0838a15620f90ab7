package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/noah-isme/backend-nursery/internal/common"
	"github.com/noah-isme/backend-nursery/internal/loyalty"
	"github.com/noah-isme/backend-nursery/internal/repo"
)

const defaultAccessTTL = 15 * time.Minute

const roleClaim = "role"

// UserStore is the subset of the user repository the auth service needs.
type UserStore interface {
	Insert(ctx context.Context, u repo.User) (repo.User, error)
	ByEmail(ctx context.Context, email string) (repo.User, error)
	ByID(ctx context.Context, id string) (repo.User, error)
}

// Service coordinates registration, login, and access token handling.
type Service struct {
	users     UserStore
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
	signer    jwa.SignatureAlgorithm
	issuer    string
	audience  string
	clockSkew time.Duration
}

// Config configures the auth service.
type Config struct {
	Users          UserStore
	Secret         string
	AccessTokenTTL time.Duration
	Issuer         string
	Audience       string
	ClockSkew      time.Duration
}

// User represents a safe subset of the user model returned to clients.
type User struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Email       string        `json:"email"`
	Role        string        `json:"role"`
	Address     string        `json:"address,omitempty"`
	LoyaltyTier string        `json:"loyaltyTier,omitempty"`
	Loyalty     *loyalty.Info `json:"loyaltyInfo,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// LoginResult bundles token material returned after a successful login.
type LoginResult struct {
	User         User      `json:"user"`
	AccessToken  string    `json:"access_token"`
	AccessExpiry time.Time `json:"access_expires_at"`
}

// NewService constructs a Service instance with sane defaults.
func NewService(cfg Config) (*Service, error) {
	if cfg.Users == nil {
		return nil, errors.New("auth: user store is required")
	}
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = "backend-nursery"
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		audience = "nursery-frontend"
	}
	clockSkew := cfg.ClockSkew
	if clockSkew < 0 {
		clockSkew = 0
	}
	return &Service{
		users:     cfg.Users,
		secret:    []byte(secret),
		accessTTL: accessTTL,
		now:       time.Now,
		signer:    jwa.HS256,
		issuer:    issuer,
		audience:  audience,
		clockSkew: clockSkew,
	}, nil
}

// WithNow allows tests to override the time provider.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Register creates a new customer account with the supplied credentials.
func (s *Service) Register(ctx context.Context, name, email, password, address string) (User, error) {
	return s.register(ctx, name, email, password, address, repo.RoleCustomer, "")
}

// RegisterEmployee creates a staff or admin account. Callers must enforce
// admin authorisation before invoking this.
func (s *Service) RegisterEmployee(ctx context.Context, name, email, password, role, employeeID string) (User, error) {
	if role != repo.RoleStaff && role != repo.RoleAdmin {
		return User{}, common.NewAppError("VALIDATION_ERROR", "role must be staff or admin", http.StatusBadRequest, nil)
	}
	return s.register(ctx, name, email, password, "", role, employeeID)
}

func (s *Service) register(ctx context.Context, name, email, password, address, role, employeeID string) (User, error) {
	if strings.TrimSpace(name) == "" {
		return User{}, common.NewAppError("VALIDATION_ERROR", "name is required", http.StatusBadRequest, nil)
	}
	normalizedEmail := strings.TrimSpace(strings.ToLower(email))
	if normalizedEmail == "" {
		return User{}, common.NewAppError("VALIDATION_ERROR", "email is required", http.StatusBadRequest, nil)
	}
	if len(password) < 8 {
		return User{}, common.NewAppError("VALIDATION_ERROR", "password must be at least 8 characters", http.StatusBadRequest, nil)
	}

	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	user := repo.User{
		Name:         strings.TrimSpace(name),
		Email:        normalizedEmail,
		PasswordHash: hash,
		Role:         role,
		Address:      strings.TrimSpace(address),
		EmployeeID:   strings.TrimSpace(employeeID),
		IsActive:     true,
	}
	if role == repo.RoleCustomer {
		user.LoyaltyTier = loyalty.TierGreen
	}

	created, err := s.users.Insert(ctx, user)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return User{}, common.NewAppError("EMAIL_ALREADY_USED", "email is already registered", http.StatusConflict, err)
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return convertUser(created), nil
}

// Login verifies credentials and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	normalizedEmail := strings.TrimSpace(strings.ToLower(email))
	if normalizedEmail == "" || password == "" {
		return LoginResult{}, invalidCredentials(nil)
	}

	user, err := s.users.ByEmail(ctx, normalizedEmail)
	if err != nil {
		return LoginResult{}, invalidCredentials(nil)
	}
	if !user.IsActive {
		return LoginResult{}, common.NewAppError("ACCOUNT_DISABLED", "account is disabled", http.StatusForbidden, nil)
	}

	ok, err := argon2id.ComparePasswordAndHash(password, user.PasswordHash)
	if err != nil || !ok {
		return LoginResult{}, invalidCredentials(err)
	}

	token, expiry, err := s.signAccessToken(user.ID.Hex(), user.Role)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign access token: %w", err)
	}

	return LoginResult{
		User:         convertUser(user),
		AccessToken:  token,
		AccessExpiry: expiry,
	}, nil
}

// Me fetches the current authenticated user with loyalty standing attached.
func (s *Service) Me(ctx context.Context, userID string) (User, error) {
	if strings.TrimSpace(userID) == "" {
		return User{}, unauthorized(nil)
	}
	user, err := s.users.ByID(ctx, userID)
	if err != nil {
		return User{}, unauthorized(err)
	}
	return convertUser(user), nil
}

// ParseAccessToken validates an access token and returns the subject and role.
func (s *Service) ParseAccessToken(token string) (userID, role string, err error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return "", "", common.NewAppError("UNAUTHORIZED", "missing token", http.StatusUnauthorized, nil)
	}
	algorithm, err := extractTokenAlgorithm(trimmed)
	if err != nil {
		return "", "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	if algorithm != s.signer {
		return "", "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, fmt.Errorf("unexpected token algorithm %s", algorithm))
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(algorithm, s.secret))
	if err != nil {
		return "", "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	if err := s.validate(parsed); err != nil {
		return "", "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	if v, ok := parsed.Get(roleClaim); ok {
		role, _ = v.(string)
	}
	return parsed.Subject(), role, nil
}

func (s *Service) validate(tok jwt.Token) error {
	now := s.now()
	options := []jwt.ValidateOption{
		jwt.WithClock(jwt.ClockFunc(func() time.Time { return now })),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
	}
	if s.clockSkew > 0 {
		options = append(options, jwt.WithAcceptableSkew(s.clockSkew))
	}
	return jwt.Validate(tok, options...)
}

func (s *Service) signAccessToken(userID, role string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTTL)
	builder := jwt.NewBuilder().
		Subject(userID).
		Issuer(s.issuer).
		Audience([]string{s.audience}).
		IssuedAt(now).
		NotBefore(now.Add(-s.clockSkew)).
		Expiration(expiresAt).
		Claim(roleClaim, role)
	token, err := builder.Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(s.signer, s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiresAt, nil
}

func extractTokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	signatures := message.Signatures()
	if len(signatures) == 0 {
		return "", errors.New("auth: token contains no signatures")
	}
	var algorithm jwa.SignatureAlgorithm
	for _, sig := range signatures {
		headers := sig.ProtectedHeaders()
		if headers == nil {
			return "", errors.New("auth: token missing protected headers")
		}
		alg := headers.Algorithm()
		if alg == "" {
			return "", errors.New("auth: token missing algorithm")
		}
		if alg == jwa.NoSignature {
			return "", errors.New("auth: token uses none algorithm")
		}
		if algorithm == "" {
			algorithm = alg
		} else if algorithm != alg {
			return "", errors.New("auth: mixed token algorithms detected")
		}
	}
	return algorithm, nil
}

func invalidCredentials(err error) *common.AppError {
	return common.NewAppError("INVALID_CREDENTIALS", "invalid email or password", http.StatusUnauthorized, err)
}

func unauthorized(err error) *common.AppError {
	return common.NewAppError("UNAUTHORIZED", "unauthorized", http.StatusUnauthorized, err)
}

func convertUser(u repo.User) User {
	out := User{
		ID:        u.ID.Hex(),
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Address:   u.Address,
		CreatedAt: u.CreatedAt,
	}
	if u.IsCustomer() {
		out.LoyaltyTier = u.LoyaltyTier
		info := loyalty.InfoFor(u.LoyaltyTier, u.TotalSpentCents, u.LoyaltyCreditCents, u.LoyaltyPoints)
		out.Loyalty = &info
	}
	return out
}
