package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/purit/auth-api/internal/model"
	"github.com/purit/auth-api/internal/repository"
	"github.com/purit/auth-api/internal/security"
)

// AuthUsecase defines the interface for authentication-related use cases.
type AuthUsecase interface {
	Register(ctx context.Context, params RegisterParams) (string, error)
	VerifyEmail(ctx context.Context, params VerifyEmailParams) (string, error)
	Login(ctx context.Context, params LoginParams) (*LoginResult, error)
	Me(ctx context.Context, userID string) (*model.User, error)
}

// RegisterParams defines the parameters for user registration.
type RegisterParams struct {
	Name     string
	Email    string
	Password string
}

// VerifyEmailParams defines the parameters for email verification.
type VerifyEmailParams struct {
	Email string
	OTP   string
}

// LoginParams defines the parameters for user login.
type LoginParams struct {
	Email    string
	Password string
}

// LoginResult carries the issued bearer token and the authenticated user.
type LoginResult struct {
	Token string
	User  *model.User
}

// Sender delivers one-shot plaintext messages.
type Sender interface {
	Send(to, subject, body string) error
}

// TokenIssuer produces signed bearer tokens bound to a user ID.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

var (
	ErrUserAlreadyExists   = errors.New("user already exists")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidOrExpiredOTP = errors.New("invalid or expired OTP")
	ErrEmailNotVerified    = errors.New("email not verified")
	ErrInvalidCredentials  = errors.New("invalid credentials")
)

const (
	otpTTL  = 10 * time.Minute
	otpMin  = 100000
	otpSpan = 900000
)

type authUsecase struct {
	userRepo repository.UserRepository
	tokens   TokenIssuer
	sender   Sender
	logger   *zerolog.Logger
	now      func() time.Time
}

// NewAuthUsecase creates a new instance of AuthUsecase.
func NewAuthUsecase(
	userRepo repository.UserRepository,
	tokens TokenIssuer,
	sender Sender,
	logger *zerolog.Logger,
) AuthUsecase {
	return &authUsecase{
		userRepo: userRepo,
		tokens:   tokens,
		sender:   sender,
		logger:   logger,
		now:      time.Now,
	}
}

func (u *authUsecase) Register(ctx context.Context, params RegisterParams) (string, error) {
	passwordHash, err := security.HashPassword(params.Password)
	if err != nil {
		return "", err
	}

	otp, err := generateOTP()
	if err != nil {
		return "", err
	}

	expiresAt := u.now().Add(otpTTL)
	user, err := u.userRepo.CreateUser(ctx, &model.User{
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: passwordHash,
		OTP:          &otp,
		OTPExpiresAt: &expiresAt,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", ErrUserAlreadyExists
		}

		return "", err
	}

	// Mail delivery is best-effort and intentionally non-propagating: the user
	// has already been persisted, a failed send must not fail the registration.
	body := fmt.Sprintf("Your OTP is %s. It is valid for 10 minutes.", otp)
	if err := u.sender.Send(user.Email, "Verify your email", body); err != nil {
		u.logger.Warn().Err(err).Str("email", user.Email).Msg("failed to send verification email")
	}

	return "Registration successful! Please verify your email.", nil
}

func (u *authUsecase) VerifyEmail(ctx context.Context, params VerifyEmailParams) (string, error) {
	user, err := u.userRepo.GetUserByEmail(ctx, params.Email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", ErrUserNotFound
		}

		return "", err
	}

	// A cleared OTP never matches again. Expiry is strictly-earlier-than-now:
	// the exact boundary instant still counts as valid.
	if user.OTP == nil || *user.OTP != params.OTP ||
		(user.OTPExpiresAt != nil && user.OTPExpiresAt.Before(u.now())) {
		return "", ErrInvalidOrExpiredOTP
	}

	if _, err := u.userRepo.MarkVerified(ctx, user.ID.Hex()); err != nil {
		return "", err
	}

	return "Email verified successfully!", nil
}

func (u *authUsecase) Login(ctx context.Context, params LoginParams) (*LoginResult, error) {
	user, err := u.userRepo.GetUserByEmail(ctx, params.Email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}

		return nil, err
	}

	if !user.Verified {
		return nil, ErrEmailNotVerified
	}

	if ok, err := security.VerifyPassword(params.Password, user.PasswordHash); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrInvalidCredentials
	}

	token, err := u.tokens.Issue(user.ID.Hex())
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Token: token,
		User:  user,
	}, nil
}

// Me returns the user bound to userID, or nil when that user no longer exists.
func (u *authUsecase) Me(ctx context.Context, userID string) (*model.User, error) {
	user, err := u.userRepo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}

		return nil, err
	}

	return user, nil
}

// generateOTP draws a 6-digit code uniformly at random from [100000, 999999].
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpSpan))
	if err != nil {
		return "", err
	}

	return strconv.FormatInt(otpMin+n.Int64(), 10), nil
}
