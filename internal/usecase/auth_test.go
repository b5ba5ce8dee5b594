package usecase

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/purit/auth-api/internal/model"
	"github.com/purit/auth-api/internal/security"
)

// --- fakes ---

type fakeUserRepo struct {
	users     map[string]*model.User // keyed by email
	createErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, user *model.User) (*model.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, exists := f.users[user.Email]; exists {
		// What the unique email index produces on a duplicate insert.
		return nil, mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
	}

	user.ID = bson.NewObjectID()
	f.users[user.Email] = user
	return user, nil
}

func (f *fakeUserRepo) GetUser(_ context.Context, id string) (*model.User, error) {
	for _, user := range f.users {
		if user.ID.Hex() == id {
			return user, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	user, ok := f.users[email]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return user, nil
}

func (f *fakeUserRepo) MarkVerified(ctx context.Context, id string) (*model.User, error) {
	user, err := f.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Verified = true
	user.OTP = nil
	user.OTPExpiresAt = nil
	return user, nil
}

type fakeSender struct {
	sent    []string // recipients
	sendErr error
}

func (f *fakeSender) Send(to, _, _ string) error {
	f.sent = append(f.sent, to)
	return f.sendErr
}

type fakeIssuer struct {
	issueErr error
}

func (f *fakeIssuer) Issue(userID string) (string, error) {
	if f.issueErr != nil {
		return "", f.issueErr
	}
	return "token-" + userID, nil
}

func newTestUsecase(repo *fakeUserRepo, sender *fakeSender) *authUsecase {
	logger := zerolog.Nop()
	return NewAuthUsecase(repo, &fakeIssuer{}, sender, &logger).(*authUsecase)
}

// --- Register ---

func TestRegister_Success(t *testing.T) {
	repo := newFakeUserRepo()
	sender := &fakeSender{}
	u := newTestUsecase(repo, sender)

	msg, err := u.Register(context.Background(), RegisterParams{
		Name:     "Alice",
		Email:    "alice@x.com",
		Password: "longpw123",
	})
	require.NoError(t, err)
	assert.Equal(t, "Registration successful! Please verify your email.", msg)

	user, ok := repo.users["alice@x.com"]
	require.True(t, ok)
	assert.Equal(t, "Alice", user.Name)
	assert.False(t, user.Verified)
	assert.NotEqual(t, "longpw123", user.PasswordHash)

	require.NotNil(t, user.OTP)
	require.NotNil(t, user.OTPExpiresAt)
	code, err := strconv.Atoi(*user.OTP)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, code, 100000)
	assert.LessOrEqual(t, code, 999999)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), *user.OTPExpiresAt, 5*time.Second)

	assert.Equal(t, []string{"alice@x.com"}, sender.sent)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	sender := &fakeSender{}
	u := newTestUsecase(repo, sender)

	_, err := u.Register(context.Background(), RegisterParams{Name: "Alice", Email: "alice@x.com", Password: "pw1"})
	require.NoError(t, err)

	_, err = u.Register(context.Background(), RegisterParams{Name: "Alice2", Email: "alice@x.com", Password: "pw2"})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
	assert.Len(t, repo.users, 1)
	assert.Len(t, sender.sent, 1)
}

func TestRegister_MailFailureDoesNotFail(t *testing.T) {
	repo := newFakeUserRepo()
	sender := &fakeSender{sendErr: errors.New("relay down")}
	u := newTestUsecase(repo, sender)

	msg, err := u.Register(context.Background(), RegisterParams{Name: "Bob", Email: "bob@x.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "Registration successful! Please verify your email.", msg)
	assert.Contains(t, repo.users, "bob@x.com")
}

// --- VerifyEmail ---

func seedPendingUser(repo *fakeUserRepo, email, otp string, expiresAt time.Time) *model.User {
	user := &model.User{
		ID:           bson.NewObjectID(),
		Name:         "Alice",
		Email:        email,
		PasswordHash: "hash",
		OTP:          &otp,
		OTPExpiresAt: &expiresAt,
	}
	repo.users[email] = user
	return user
}

func TestVerifyEmail_Success(t *testing.T) {
	repo := newFakeUserRepo()
	u := newTestUsecase(repo, &fakeSender{})
	seedPendingUser(repo, "alice@x.com", "123456", time.Now().Add(10*time.Minute))

	msg, err := u.VerifyEmail(context.Background(), VerifyEmailParams{Email: "alice@x.com", OTP: "123456"})
	require.NoError(t, err)
	assert.Equal(t, "Email verified successfully!", msg)

	user := repo.users["alice@x.com"]
	assert.True(t, user.Verified)
	assert.Nil(t, user.OTP)
	assert.Nil(t, user.OTPExpiresAt)
}

func TestVerifyEmail_SecondAttemptFails(t *testing.T) {
	repo := newFakeUserRepo()
	u := newTestUsecase(repo, &fakeSender{})
	seedPendingUser(repo, "alice@x.com", "123456", time.Now().Add(10*time.Minute))

	_, err := u.VerifyEmail(context.Background(), VerifyEmailParams{Email: "alice@x.com", OTP: "123456"})
	require.NoError(t, err)

	// The code was cleared on success; it can never match again.
	_, err = u.VerifyEmail(context.Background(), VerifyEmailParams{Email: "alice@x.com", OTP: "123456"})
	assert.ErrorIs(t, err, ErrInvalidOrExpiredOTP)
}

func TestVerifyEmail_WrongOTP(t *testing.T) {
	repo := newFakeUserRepo()
	u := newTestUsecase(repo, &fakeSender{})
	seedPendingUser(repo, "alice@x.com", "123456", time.Now().Add(10*time.Minute))

	_, err := u.VerifyEmail(context.Background(), VerifyEmailParams{Email: "alice@x.com", OTP: "654321"})
	assert.ErrorIs(t, err, ErrInvalidOrExpiredOTP)
	assert.False(t, repo.users["alice@x.com"].Verified)
}

func TestVerifyEmail_Expired(t *testing.T) {
	repo := newFakeUserRepo()
	u := newTestUsecase(repo, &fakeSender{})
	expiresAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	seedPendingUser(repo, "alice@x.com", "123456", expiresAt)
	u.now = func() time.Time { return expiresAt.Add(time.Second) }

	_, err := u.VerifyEmail(context.Background(), VerifyEmailParams{Email: "alice@x.com", OTP: "123456"})
	assert.ErrorIs(t, err, ErrInvalidOrExpiredOTP)
}

func TestVerifyEmail_ExpiryBoundaryIsValid(t *testing.T) {
	repo := newFakeUserRepo()
	u := newTestUsecase(repo, &fakeSender{})
	expiresAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	seedPendingUser(repo, "alice@x.com", "123456", expiresAt)

	// Only strictly-earlier-than-now counts as expired.
	u.now = func() time.Time { return expiresAt }

	msg, err := u.VerifyEmail(context.Background(), VerifyEmailParams{Email: "alice@x.com", OTP: "123456"})
	require.NoError(t, err)
	assert.Equal(t, "Email verified successfully!", msg)
}

func TestVerifyEmail_UnknownEmail(t *testing.T) {
	repo := newFakeUserRepo()
	u := newTestUsecase(repo, &fakeSender{})

	_, err := u.VerifyEmail(context.Background(), VerifyEmailParams{Email: "ghost@x.com", OTP: "123456"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

// --- Login ---

func seedVerifiedUser(t *testing.T, repo *fakeUserRepo, email, password string) *model.User {
	t.Helper()

	hash, err := security.HashPassword(password)
	require.NoError(t, err)

	user := &model.User{
		ID:           bson.NewObjectID(),
		Name:         "Alice",
		Email:        email,
		PasswordHash: hash,
		Verified:     true,
	}
	repo.users[email] = user
	return user
}

func TestLogin_Success(t *testing.T) {
	repo := newFakeUserRepo()
	u := newTestUsecase(repo, &fakeSender{})
	user := seedVerifiedUser(t, repo, "alice@x.com", "longpw123")

	result, err := u.Login(context.Background(), LoginParams{Email: "alice@x.com", Password: "longpw123"})
	require.NoError(t, err)
	assert.Equal(t, "token-"+user.ID.Hex(), result.Token)
	assert.Equal(t, user, result.User)
}

func TestLogin_UnknownEmail(t *testing.T) {
	repo := newFakeUserRepo()
	u := newTestUsecase(repo, &fakeSender{})

	_, err := u.Login(context.Background(), LoginParams{Email: "ghost@x.com", Password: "pw"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestLogin_NotVerified(t *testing.T) {
	repo := newFakeUserRepo()
	u := newTestUsecase(repo, &fakeSender{})
	hash, err := security.HashPassword("longpw123")
	require.NoError(t, err)
	repo.users["alice@x.com"] = &model.User{
		ID:           bson.NewObjectID(),
		Email:        "alice@x.com",
		PasswordHash: hash,
	}

	// The correct password still fails before verification.
	_, err = u.Login(context.Background(), LoginParams{Email: "alice@x.com", Password: "longpw123"})
	assert.ErrorIs(t, err, ErrEmailNotVerified)
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := newFakeUserRepo()
	u := newTestUsecase(repo, &fakeSender{})
	seedVerifiedUser(t, repo, "alice@x.com", "longpw123")

	_, err := u.Login(context.Background(), LoginParams{Email: "alice@x.com", Password: "wrongpw"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

// --- Me ---

func TestMe_ExistingUser(t *testing.T) {
	repo := newFakeUserRepo()
	u := newTestUsecase(repo, &fakeSender{})
	user := seedVerifiedUser(t, repo, "alice@x.com", "longpw123")

	got, err := u.Me(context.Background(), user.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, user, got)
}

func TestMe_MissingUserReturnsNil(t *testing.T) {
	repo := newFakeUserRepo()
	u := newTestUsecase(repo, &fakeSender{})

	got, err := u.Me(context.Background(), bson.NewObjectID().Hex())
	require.NoError(t, err)
	assert.Nil(t, got)
}
