package httpapi

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"myshop/backend/internal/cache"
	"myshop/backend/internal/domain"
	"myshop/backend/internal/xid"
)

const (
	tokenIssuer    = "myshop"
	maxOTPAttempts = 5
)

type UserStore interface {
	CreateUser(ctx context.Context, user domain.User) (domain.User, error)
	GetUser(ctx context.Context, id string) (domain.User, error)
	FindUserByEmail(ctx context.Context, email string) (domain.User, error)
}

// OTPNotifier delivers a login code to the user.
type OTPNotifier interface {
	SendOTP(ctx context.Context, user domain.User, code string) error
}

// LogNotifier writes codes to the log. Suitable for development only.
type LogNotifier struct {
	Log zerolog.Logger
}

func (n LogNotifier) SendOTP(_ context.Context, user domain.User, code string) error {
	n.Log.Info().Str("user_id", user.ID).Str("email", user.Email).Str("otp", code).Msg("login code issued")
	return nil
}

type AuthOptions struct {
	TokenTTL time.Duration
	OTPTTL   time.Duration
	Notifier OTPNotifier
}

type AuthManager struct {
	secret     []byte
	tokenTTL   time.Duration
	otpTTL     time.Duration
	users      UserStore
	challenges cache.ChallengeStore
	notifier   OTPNotifier
	now        func() time.Time
}

func NewAuthManager(secret string, users UserStore, challenges cache.ChallengeStore, opts AuthOptions) *AuthManager {
	if secret == "" {
		secret = "dev-change-me"
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 12 * time.Hour
	}
	if opts.OTPTTL <= 0 {
		opts.OTPTTL = 5 * time.Minute
	}
	if opts.Notifier == nil {
		opts.Notifier = LogNotifier{Log: zerolog.Nop()}
	}
	return &AuthManager{
		secret:     []byte(secret),
		tokenTTL:   opts.TokenTTL,
		otpTTL:     opts.OTPTTL,
		users:      users,
		challenges: challenges,
		notifier:   opts.Notifier,
		now:        time.Now,
	}
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: a valid email is required", domain.ErrInvalidInput)
	}
	return email, nil
}

func (a *AuthManager) Signup(ctx context.Context, req domain.SignupRequest) (domain.User, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return domain.User{}, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.User{}, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}

	_, err = a.users.FindUserByEmail(ctx, email)
	switch {
	case err == nil:
		return domain.User{}, fmt.Errorf("%w: email is already registered", domain.ErrConflict)
	case !errors.Is(err, domain.ErrNotFound):
		return domain.User{}, err
	}

	return a.users.CreateUser(ctx, domain.User{
		ID:        xid.New("user"),
		Name:      name,
		Email:     email,
		CreatedAt: domain.NewTimestamp(a.now()),
	})
}

// RequestLoginToken issues a six digit code for the user. A new request
// replaces any pending code.
func (a *AuthManager) RequestLoginToken(ctx context.Context, req domain.LoginTokenRequest) (domain.LoginTokenResponse, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return domain.LoginTokenResponse{}, err
	}
	user, err := a.users.FindUserByEmail(ctx, email)
	if err != nil {
		return domain.LoginTokenResponse{}, err
	}

	code, err := generateCode()
	if err != nil {
		return domain.LoginTokenResponse{}, fmt.Errorf("%w: generate code: %v", domain.ErrUpstream, err)
	}
	hash, err := hashSecret(code)
	if err != nil {
		return domain.LoginTokenResponse{}, fmt.Errorf("%w: hash code: %v", domain.ErrUpstream, err)
	}
	expiresAt := a.now().UTC().Add(a.otpTTL)
	if err := a.challenges.Put(ctx, email, cache.Challenge{UserID: user.ID, CodeHash: hash, ExpiresAt: expiresAt}); err != nil {
		return domain.LoginTokenResponse{}, fmt.Errorf("%w: store challenge: %v", domain.ErrUpstream, err)
	}
	if err := a.notifier.SendOTP(ctx, user, code); err != nil {
		return domain.LoginTokenResponse{}, fmt.Errorf("%w: deliver code: %v", domain.ErrUpstream, err)
	}

	return domain.LoginTokenResponse{UserID: user.ID, ExpiresAt: expiresAt.Format(time.RFC3339)}, nil
}

// VerifyOTP exchanges a valid code for an access token. The code is burnt
// after use or after too many wrong guesses.
func (a *AuthManager) VerifyOTP(ctx context.Context, req domain.VerifyOTPRequest) (domain.TokenResponse, error) {
	invalid := fmt.Errorf("%w: invalid or expired code", domain.ErrUnauthorized)
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return domain.TokenResponse{}, err
	}

	challenge, err := a.challenges.Get(ctx, email)
	if errors.Is(err, cache.ErrChallengeNotFound) {
		return domain.TokenResponse{}, invalid
	}
	if err != nil {
		return domain.TokenResponse{}, fmt.Errorf("%w: load challenge: %v", domain.ErrUpstream, err)
	}

	if !verifySecret(challenge.CodeHash, req.OTP) {
		challenge.Attempts++
		if challenge.Attempts >= maxOTPAttempts {
			err = a.challenges.Delete(ctx, email)
		} else {
			err = a.challenges.Put(ctx, email, challenge)
		}
		if err != nil {
			return domain.TokenResponse{}, fmt.Errorf("%w: update challenge: %v", domain.ErrUpstream, err)
		}
		return domain.TokenResponse{}, invalid
	}
	if err := a.challenges.Delete(ctx, email); err != nil {
		return domain.TokenResponse{}, fmt.Errorf("%w: delete challenge: %v", domain.ErrUpstream, err)
	}

	expiresAt := a.now().UTC().Add(a.tokenTTL)
	token, err := a.sign(challenge.UserID, expiresAt)
	if err != nil {
		return domain.TokenResponse{}, fmt.Errorf("%w: sign token: %v", domain.ErrUpstream, err)
	}
	return domain.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt.Format(time.RFC3339),
	}, nil
}

// ParseToken validates the signature and expiry and returns the user id.
func (a *AuthManager) ParseToken(tokenStr string) (string, error) {
	claims := &jwtlib.RegisteredClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}), jwtlib.WithIssuer(tokenIssuer))
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: invalid or expired token", domain.ErrUnauthorized)
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("%w: invalid token subject", domain.ErrUnauthorized)
	}
	return sub, nil
}

// Authenticate resolves a bearer token to a stored user.
func (a *AuthManager) Authenticate(ctx context.Context, tokenStr string) (domain.Actor, error) {
	userID, err := a.ParseToken(tokenStr)
	if err != nil {
		return domain.Actor{}, err
	}
	user, err := a.users.GetUser(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Actor{}, fmt.Errorf("%w: unknown user", domain.ErrUnauthorized)
	}
	if err != nil {
		return domain.Actor{}, err
	}
	return domain.Actor{UserID: user.ID, Email: user.Email, Name: user.Name}, nil
}

func (a *AuthManager) sign(userID string, expiresAt time.Time) (string, error) {
	claims := jwtlib.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwtlib.NewNumericDate(a.now().UTC()),
		ExpiresAt: jwtlib.NewNumericDate(expiresAt),
		Issuer:    tokenIssuer,
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func verifySecret(stored string, input string) bool {
	if stored == "" || strings.TrimSpace(input) == "" || !isBcryptHash(stored) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(strings.TrimSpace(input))) == nil
}

func hashSecret(secret string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func isBcryptHash(value string) bool {
	return strings.HasPrefix(value, "$2a$") || strings.HasPrefix(value, "$2b$") || strings.HasPrefix(value, "$2y$")
}
