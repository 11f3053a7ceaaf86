package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/jewelpalace/storefront/internal/metrics"
	"github.com/jewelpalace/storefront/internal/models"
	"github.com/jewelpalace/storefront/internal/store"
)

// IdentityConfig controls token issuing and the demo role policy
type IdentityConfig struct {
	Secret     []byte
	TTL        time.Duration
	BcryptCost int
	// AdminByEmail grants the admin role to any email containing "admin"
	AdminByEmail bool
	// LaxLogin lets unknown credentials sign in with a claims-only user
	LaxLogin bool
}

// UserService handles registration, login and token verification
type UserService struct {
	store   store.Store
	metrics *metrics.AppMetrics
	cfg     IdentityConfig
	now     func() time.Time
}

type sessionClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Admin bool   `json:"admin"`
	jwt.RegisteredClaims
}

// NewUserService creates a new user service
func NewUserService(st store.Store, metrics *metrics.AppMetrics, cfg IdentityConfig) *UserService {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &UserService{
		store:   st,
		metrics: metrics,
		cfg:     cfg,
		now:     time.Now,
	}
}

// IsAdminEmail reports whether email contains "admin", ignoring case
func IsAdminEmail(email string) bool {
	return strings.Contains(strings.ToLower(email), "admin")
}

// ToAuthUser renders a user for API responses
func ToAuthUser(u *models.User) models.AuthUser {
	return models.AuthUser{
		ID:               u.ID,
		Aud:              "authenticated",
		Role:             "authenticated",
		Email:            u.Email,
		EmailConfirmedAt: u.CreatedAt,
		UserMetadata:     models.UserMetadata{Name: u.Name, Phone: u.Phone, IsAdmin: u.IsAdmin},
		AppMetadata:      models.AppMetadata{Provider: "email"},
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account and signs it in
func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, *models.Session, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(req); err != nil {
		return nil, nil, err
	}

	isAdmin := s.cfg.AdminByEmail && IsAdminEmail(req.Email)
	user, err := s.createUser(ctx, req, isAdmin)
	if err != nil {
		return nil, nil, err
	}

	s.metrics.UserRegistrations.Add(ctx, 1, metric.WithAttributes(s.metrics.WithServiceName([]attribute.KeyValue{
		attribute.Bool("admin", user.IsAdmin),
	})...))

	session, err := s.issueSession(user)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// CreateAdmin creates an account holding the admin role
func (s *UserService) CreateAdmin(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	return s.createUser(ctx, req, true)
}

func (s *UserService) createUser(ctx context.Context, req models.RegisterRequest, isAdmin bool) (*models.User, error) {
	if _, err := s.findByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = strings.SplitN(req.Email, "@", 2)[0]
	}

	now := s.now().UTC()
	user := &models.User{
		ID:           newID("user", now),
		Email:        req.Email,
		Name:         name,
		PasswordHash: string(hash),
		IsAdmin:      isAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := putRecord(ctx, s.store, store.KindUser, user.ID, user); err != nil {
		return nil, err
	}

	zap.L().Info("user registered", zap.String("userId", user.ID), zap.Bool("admin", isAdmin))
	return user, nil
}

// EnsureUser creates the account when the email is free. An existing account
// is returned untouched.
func (s *UserService) EnsureUser(ctx context.Context, req models.RegisterRequest, isAdmin bool) (*models.User, error) {
	req.Email = normalizeEmail(req.Email)
	existing, err := s.findByEmail(ctx, req.Email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	user, err := s.createUser(ctx, req, isAdmin)
	if errors.Is(err, ErrEmailTaken) {
		return s.findByEmail(ctx, req.Email)
	}
	return user, err
}

// UpdateProfile applies a profile change for a stored user. The role is kept
// even when the email changes.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.User, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	existing, err := getRecord[models.User](ctx, s.store, store.KindUser, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	updated := *existing
	if req.Email != "" && req.Email != normalizeEmail(existing.Email) {
		other, err := s.findByEmail(ctx, req.Email)
		if err == nil && other.ID != existing.ID {
			return nil, ErrEmailTaken
		}
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		updated.Email = req.Email
	}
	if req.Data.Name != nil {
		if name := strings.TrimSpace(*req.Data.Name); name != "" {
			updated.Name = name
		}
	}
	if req.Data.Phone != nil {
		updated.Phone = strings.TrimSpace(*req.Data.Phone)
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		updated.PasswordHash = string(hash)
	}
	updated.UpdatedAt = s.now().UTC()

	if err := putRecord(ctx, s.store, store.KindUser, updated.ID, updated); err != nil {
		return nil, err
	}

	zap.L().Info("profile updated",
		zap.String("userId", updated.ID),
		zap.Bool("emailChanged", updated.Email != existing.Email),
		zap.Bool("passwordChanged", req.Password != ""),
	)
	return &updated, nil
}

// Login checks credentials and issues a session
func (s *UserService) Login(ctx context.Context, req models.LoginRequest) (*models.User, *models.Session, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, nil, ErrInvalidCredentials
	}

	user, err := s.findByEmail(ctx, email)
	switch {
	case err == nil:
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
			if !s.cfg.LaxLogin {
				s.recordLogin(ctx, false)
				return nil, nil, ErrInvalidCredentials
			}
			user = s.claimsUser(email, "")
		}
	case errors.Is(err, store.ErrNotFound):
		if !s.cfg.LaxLogin {
			s.recordLogin(ctx, false)
			return nil, nil, ErrInvalidCredentials
		}
		user = s.claimsUser(email, "")
	default:
		return nil, nil, err
	}

	s.recordLogin(ctx, true)
	session, err := s.issueSession(user)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

func (s *UserService) recordLogin(ctx context.Context, success bool) {
	s.metrics.UserLogins.Add(ctx, 1, metric.WithAttributes(s.metrics.WithServiceName([]attribute.KeyValue{
		attribute.Bool("success", success),
	})...))
}

// claimsUser builds an unsaved user whose id is stable for the email
func (s *UserService) claimsUser(email, name string) *models.User {
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	now := s.now().UTC()
	return &models.User{
		ID:        "user_" + uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+email)).String(),
		Email:     email,
		Name:      name,
		IsAdmin:   IsAdminEmail(email),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CurrentUser resolves a bearer token to its user
func (s *UserService) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.cfg.Secret, nil
	})
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return nil, ErrUnauthorized
	}

	user, err := getRecord[models.User](ctx, s.store, store.KindUser, claims.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if !s.cfg.LaxLogin {
		return nil, ErrUnauthorized
	}

	u := s.claimsUser(claims.Email, claims.Name)
	u.ID = claims.Subject
	u.IsAdmin = claims.Admin
	return u, nil
}

func (s *UserService) issueSession(u *models.User) (*models.Session, error) {
	now := s.now()
	expires := now.Add(s.cfg.TTL)
	claims := sessionClaims{
		Email: u.Email,
		Name:  u.Name,
		Admin: u.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    "jewel-palace",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &models.Session{
		AccessToken:  signed,
		TokenType:    "bearer",
		ExpiresIn:    int64(s.cfg.TTL / time.Second),
		ExpiresAt:    expires.Unix(),
		RefreshToken: uuid.NewString(),
		User:         ToAuthUser(u),
	}, nil
}

func (s *UserService) findByEmail(ctx context.Context, email string) (*models.User, error) {
	users, err := listRecords[models.User](ctx, s.store, store.KindUser)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if normalizeEmail(users[i].Email) == email {
			return &users[i], nil
		}
	}
	return nil, store.ErrNotFound
}
