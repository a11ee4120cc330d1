package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"nevermore-backend/internal/entity"
	"nevermore-backend/internal/mailer"
	"nevermore-backend/internal/repository"
)

const (
	sessionTTL        = 24 * time.Hour
	verificationTTL   = 24 * time.Hour
	emailChangeTTL    = 24 * time.Hour
	passwordResetTTL  = 30 * time.Minute
	maxResetsPerMin   = 3
)

type JwtCustomClaims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type UserService struct {
	users       repository.UserStore
	rdb         *redis.Client
	mail        mailer.Mailer
	jwtSecret   []byte
	apiURL      string
	frontendURL string
	now         func() time.Time
}

func NewUserService(users repository.UserStore, rdb *redis.Client, mail mailer.Mailer, jwtSecret, apiURL, frontendURL string) *UserService {
	return &UserService{
		users:       users,
		rdb:         rdb,
		mail:        mail,
		jwtSecret:   []byte(jwtSecret),
		apiURL:      strings.TrimRight(apiURL, "/"),
		frontendURL: strings.TrimRight(frontendURL, "/"),
		now:         time.Now,
	}
}

func randomToken() string {
	buf := make([]byte, 32)
	rand.Read(buf)
	return hex.EncodeToString(buf)
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// CheckPassword enforces the account password policy: at least 8
// characters with one uppercase letter and one digit.
func CheckPassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", entity.ErrValidation)
	}
	var hasUpper, hasDigit bool
	for _, r := range password {
		if unicode.IsUpper(r) {
			hasUpper = true
		}
		if unicode.IsDigit(r) {
			hasDigit = true
		}
	}
	if !hasUpper {
		return fmt.Errorf("%w: password must contain at least one uppercase letter", entity.ErrValidation)
	}
	if !hasDigit {
		return fmt.Errorf("%w: password must contain at least one number", entity.ErrValidation)
	}
	return nil
}

type RegisterResult struct {
	UserID           int64  `json:"user_id,omitempty"`
	Email            string `json:"email"`
	Username         string `json:"username,omitempty"`
	VerificationSent bool   `json:"verification_sent"`
	AlreadyExists    bool   `json:"-"`
}

// Register creates an unverified account and mails the verification link.
// Re-registering an unverified address resends a fresh token instead.
func (s *UserService) Register(ctx context.Context, email, username, password string) (*RegisterResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	username = strings.TrimSpace(username)

	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", entity.ErrValidation)
	}
	if len(username) < 3 || len(username) > 50 {
		return nil, fmt.Errorf("%w: username must be 3-50 characters", entity.ErrValidation)
	}
	if err := CheckPassword(password); err != nil {
		return nil, err
	}

	existing, err := s.users.ByEmail(ctx, email)
	if err != nil && !errors.Is(err, entity.ErrUserNotFound) {
		return nil, err
	}
	if existing != nil {
		if existing.Verified() {
			return nil, entity.ErrEmailTaken
		}
		token := randomToken()
		if err := s.users.SetVerificationToken(ctx, existing.ID, token, s.now().Add(verificationTTL)); err != nil {
			return nil, err
		}
		s.sendVerificationEmail(existing.Email, existing.Username, token)
		return &RegisterResult{Email: existing.Email, VerificationSent: true, AlreadyExists: true}, nil
	}

	taken, err := s.users.UsernameExists(ctx, username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, entity.ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	token := randomToken()
	user := &entity.User{
		Email:        email,
		Username:     username,
		Role:         entity.RoleCustomer,
		AuthProvider: "local",
	}
	userID, err := s.users.Create(ctx, user, string(hash), token, s.now().Add(verificationTTL))
	if err != nil {
		logger.Error().Err(err).Str("email", email).Msg("Error creating user")
		return nil, err
	}

	if err := s.sendVerificationEmail(email, username, token); err != nil {
		// No verified path into this account without the mail.
		if delErr := s.users.Delete(ctx, userID); delErr != nil {
			logger.Error().Err(delErr).Int64("user", userID).Msg("Error rolling back unverifiable user")
		}
		return nil, entity.ErrMailDelivery
	}

	return &RegisterResult{UserID: userID, Email: email, Username: username, VerificationSent: true}, nil
}

func (s *UserService) sendVerificationEmail(email, username, token string) error {
	verifyURL := s.apiURL + "/api/auth/verify-email?token=" + url.QueryEscape(token) +
		"&return_to=" + url.QueryEscape(s.frontendURL)
	err := s.mail.Send(email, "Verify your email - Nevermore", mailer.VerificationBody(username, verifyURL))
	if err != nil {
		logger.Error().Err(err).Str("email", email).Msg("Verification email failed")
	}
	return err
}

func (s *UserService) sessionKey(email string) string {
	return "session:" + email
}

// Login authenticates a verified account and issues a 24h JWT. The token
// is mirrored in Redis so sessions can be revoked server-side; one live
// session per user.
func (s *UserService) Login(ctx context.Context, email, password string) (string, *entity.User, error) {
	user, err := s.users.ByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, entity.ErrUserNotFound) {
			return "", nil, entity.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, entity.ErrInvalidCredentials
	}
	if !user.Verified() {
		return "", nil, entity.ErrEmailNotVerified
	}

	claims := &JwtCustomClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(s.now().Add(sessionTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", nil, err
	}

	if s.rdb != nil {
		if err := s.rdb.Set(ctx, s.sessionKey(user.Email), token, sessionTTL).Err(); err != nil {
			return "", nil, err
		}
	}
	return token, user, nil
}

func (s *UserService) Logout(ctx context.Context, email string) error {
	if s.rdb == nil {
		return nil
	}
	return s.rdb.Del(ctx, s.sessionKey(email)).Err()
}

// SessionValid reports whether the presented token is the live session
// for the account.
func (s *UserService) SessionValid(ctx context.Context, email, token string) (bool, error) {
	if s.rdb == nil {
		return true, nil
	}
	stored, err := s.rdb.Get(ctx, s.sessionKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return stored == token, nil
}

func (s *UserService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("%w: missing verification token", entity.ErrValidation)
	}
	_, err := s.users.VerifyByToken(ctx, token, s.now())
	return err
}

func (s *UserService) ResendVerification(ctx context.Context, email string) (alreadyVerified bool, err error) {
	user, err := s.users.ByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return false, err
	}
	if user.Verified() {
		return true, nil
	}

	token := randomToken()
	if err := s.users.SetVerificationToken(ctx, user.ID, token, s.now().Add(verificationTTL)); err != nil {
		return false, err
	}
	s.sendVerificationEmail(user.Email, user.Username, token)
	return false, nil
}

// RequestPasswordReset never reveals whether the address exists; it is
// rate-capped per address and invalidates older tokens.
func (s *UserService) RequestPasswordReset(ctx context.Context, email, requestIP, userAgent string) error {
	user, err := s.users.ByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, entity.ErrUserNotFound) {
			return nil
		}
		return err
	}

	now := s.now()
	recent, err := s.users.CountRecentResets(ctx, user.Email, now.Add(-time.Minute))
	if err != nil {
		return err
	}
	if recent >= maxResetsPerMin {
		return nil
	}

	if err := s.users.InvalidateResets(ctx, user.ID, now); err != nil {
		return err
	}

	token := randomToken()
	if len(userAgent) > 255 {
		userAgent = userAgent[:255]
	}
	reset := &entity.PasswordReset{
		UserID:    user.ID,
		Email:     user.Email,
		TokenHash: hashToken(token),
		ExpiresAt: now.Add(passwordResetTTL),
		CreatedAt: now,
		RequestIP: requestIP,
		UserAgent: userAgent,
	}
	if err := s.users.CreateReset(ctx, reset); err != nil {
		return err
	}

	resetURL := s.frontendURL + "/reset-password?token=" + url.QueryEscape(token)
	if err := s.mail.Send(user.Email, "Reset your Nevermore password", mailer.PasswordResetBody(resetURL)); err != nil {
		logger.Error().Err(err).Str("email", user.Email).Msg("Password reset email failed")
	}
	return nil
}

func (s *UserService) VerifyResetToken(ctx context.Context, token string) error {
	_, err := s.users.FindReset(ctx, hashToken(token), s.now())
	return err
}

// ResetPassword burns the token, updates the password and revokes the
// live session.
func (s *UserService) ResetPassword(ctx context.Context, token, password string) error {
	if len(token) < 20 {
		return fmt.Errorf("%w: invalid token", entity.ErrValidation)
	}
	if err := CheckPassword(password); err != nil {
		return err
	}

	reset, err := s.users.FindReset(ctx, hashToken(token), s.now())
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.users.ResetPassword(ctx, reset.ID, reset.UserID, string(hash)); err != nil {
		return err
	}

	return s.Logout(ctx, reset.Email)
}

func (s *UserService) Profile(ctx context.Context, userID int64) (*entity.User, error) {
	return s.users.ByID(ctx, userID)
}

func (s *UserService) UpdateProfile(ctx context.Context, userID int64, firstName, lastName *string) (*entity.User, error) {
	if firstName == nil && lastName == nil {
		return nil, fmt.Errorf("%w: nothing to update", entity.ErrValidation)
	}
	if err := s.users.UpdateNames(ctx, userID, firstName, lastName); err != nil {
		return nil, err
	}
	return s.users.ByID(ctx, userID)
}

func (s *UserService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	if err := CheckPassword(newPassword); err != nil {
		return err
	}

	hash, err := s.users.PasswordHash(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(currentPassword)) != nil {
		return entity.ErrInvalidCredentials
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, string(newHash))
}

// RequestEmailChange parks the new address as pending and mails a
// confirmation link to it.
func (s *UserService) RequestEmailChange(ctx context.Context, userID int64, newEmail string) error {
	newEmail = strings.TrimSpace(strings.ToLower(newEmail))
	if newEmail == "" || !strings.Contains(newEmail, "@") {
		return fmt.Errorf("%w: a valid email is required", entity.ErrValidation)
	}

	if existing, err := s.users.ByEmail(ctx, newEmail); err == nil && existing != nil {
		return entity.ErrEmailTaken
	} else if err != nil && !errors.Is(err, entity.ErrUserNotFound) {
		return err
	}

	token := randomToken()
	if err := s.users.SetPendingEmail(ctx, userID, newEmail, hashToken(token), s.now().Add(emailChangeTTL)); err != nil {
		return err
	}

	confirmURL := s.apiURL + "/api/user/verify-email-change?token=" + url.QueryEscape(token)
	if err := s.mail.Send(newEmail, "Confirm your new email - Nevermore", mailer.EmailChangeBody(confirmURL)); err != nil {
		logger.Error().Err(err).Str("email", newEmail).Msg("Email change mail failed")
		return entity.ErrMailDelivery
	}
	return nil
}

func (s *UserService) VerifyEmailChange(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("%w: missing token", entity.ErrValidation)
	}
	user, err := s.users.CommitEmailChange(ctx, hashToken(token), s.now())
	if err != nil {
		return err
	}
	// The session key is derived from the old address.
	return s.Logout(ctx, user.Email)
}
