package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"expense-tracker-client/internal/models"
	"expense-tracker-client/internal/storage"
	"expense-tracker-client/internal/tokenstore"
)

var errRejected = errors.New("invalid credentials")

type fakeAuth struct {
	resp      *models.AuthResponse
	err       error
	calls     int
	lastToken string
	lastEmail string
}

func (f *fakeAuth) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	f.calls++
	f.lastEmail = req.Email
	return f.resp, f.err
}

func (f *fakeAuth) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	f.calls++
	f.lastEmail = req.Email
	return f.resp, f.err
}

func (f *fakeAuth) RefreshToken(ctx context.Context, refreshToken string) (*models.AuthResponse, error) {
	f.calls++
	f.lastToken = refreshToken
	return f.resp, f.err
}

// SessionTestSuite exercises the session service over a real token database
type SessionTestSuite struct {
	suite.Suite
	db    *storage.DB
	store *tokenstore.Store
	auth  *fakeAuth
	svc   *Service
}

func (suite *SessionTestSuite) SetupTest() {
	db, err := storage.NewDB(":memory:")
	require.NoError(suite.T(), err, "failed to create test database")
	suite.db = db
	suite.store = tokenstore.New(db)
	suite.auth = &fakeAuth{resp: &models.AuthResponse{
		Token:        "access-1",
		RefreshToken: "refresh-1",
		UserID:       "u1",
		Username:     "ana",
		Email:        "ana@example.com",
	}}
	suite.svc = NewService(suite.store, suite.auth, nil)
}

func (suite *SessionTestSuite) TearDownTest() {
	if suite.db != nil {
		suite.db.Close()
	}
}

func (suite *SessionTestSuite) login() {
	_, err := suite.svc.Login(context.Background(), models.LoginRequest{Email: "ana@example.com", Password: "secret1"})
	require.NoError(suite.T(), err)
}

func (suite *SessionTestSuite) TestLoginPersistsAndPublishes() {
	var seen []*models.User
	unsubscribe := suite.svc.Subscribe(func(u *models.User) { seen = append(seen, u) })
	defer unsubscribe()

	user, err := suite.svc.Login(context.Background(), models.LoginRequest{Email: "ana@example.com", Password: "secret1"})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "u1", user.ID)

	token, _ := suite.store.Token()
	refresh, _ := suite.store.RefreshToken()
	stored, _ := suite.store.User()
	assert.Equal(suite.T(), "access-1", token)
	assert.Equal(suite.T(), "refresh-1", refresh)
	assert.Equal(suite.T(), &models.User{ID: "u1", Username: "ana", Email: "ana@example.com"}, stored)

	// Behaviour subject: nil on subscribe, then the user
	require.Len(suite.T(), seen, 2)
	assert.Nil(suite.T(), seen[0])
	assert.Equal(suite.T(), "ana", seen[1].Username)
	assert.True(suite.T(), suite.svc.IsAuthenticated())
}

func (suite *SessionTestSuite) TestLoginFailureChangesNothing() {
	suite.login()
	suite.auth.err = errRejected
	suite.auth.resp = nil

	_, err := suite.svc.Login(context.Background(), models.LoginRequest{Email: "bob@example.com", Password: "secret2"})
	assert.ErrorIs(suite.T(), err, errRejected)

	token, _ := suite.store.Token()
	assert.Equal(suite.T(), "access-1", token)
	assert.Equal(suite.T(), "u1", suite.svc.CurrentUser().ID)
}

func (suite *SessionTestSuite) TestInvalidRequestNeverReachesServer() {
	_, err := suite.svc.Login(context.Background(), models.LoginRequest{Email: "ana", Password: "1"})
	assert.ErrorIs(suite.T(), err, models.ErrInvalidEmail)
	assert.Zero(suite.T(), suite.auth.calls)

	_, err = suite.svc.Register(context.Background(), models.RegisterRequest{Username: "ana", Email: "ana@example.com", Password: "secret1", ConfirmPassword: "other1"})
	assert.ErrorIs(suite.T(), err, models.ErrPasswordMismatch)
	assert.Zero(suite.T(), suite.auth.calls)
}

func (suite *SessionTestSuite) TestIncompleteAuthResponseRejected() {
	suite.auth.resp = &models.AuthResponse{Token: "t"}
	_, err := suite.svc.Login(context.Background(), models.LoginRequest{Email: "ana@example.com", Password: "secret1"})
	assert.ErrorIs(suite.T(), err, models.ErrInvalidResponse)
	assert.False(suite.T(), suite.svc.IsAuthenticated())
}

func (suite *SessionTestSuite) TestLogoutClearsAllKeys() {
	suite.login()
	last := &models.User{}
	unsubscribe := suite.svc.Subscribe(func(u *models.User) { last = u })
	defer unsubscribe()

	require.NoError(suite.T(), suite.svc.Logout())

	keys, err := suite.db.Keys()
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), keys)
	assert.Nil(suite.T(), last)
	assert.Nil(suite.T(), suite.svc.CurrentUser())
	assert.False(suite.T(), suite.svc.IsAuthenticated())
}

func (suite *SessionTestSuite) TestRefreshSessionUsesStoredToken() {
	suite.login()
	suite.auth.resp = &models.AuthResponse{Token: "access-2", RefreshToken: "refresh-2", UserID: "u1", Username: "ana"}

	token, err := suite.svc.RefreshAccessToken(context.Background())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "access-2", token)
	assert.Equal(suite.T(), "refresh-1", suite.auth.lastToken)

	refresh, _ := suite.store.RefreshToken()
	assert.Equal(suite.T(), "refresh-2", refresh)
}

func (suite *SessionTestSuite) TestRefreshWithoutToken() {
	_, err := suite.svc.RefreshAccessToken(context.Background())
	assert.ErrorIs(suite.T(), err, ErrNoRefreshToken)
	assert.Zero(suite.T(), suite.auth.calls)
}

func (suite *SessionTestSuite) TestExpireLogsOutAndNotifies() {
	suite.login()
	var causes []error
	suite.svc.OnExpired(func(err error) { causes = append(causes, err) })

	suite.svc.Expire(errRejected)

	assert.Equal(suite.T(), []error{errRejected}, causes)
	assert.False(suite.T(), suite.svc.IsAuthenticated())
	assert.Nil(suite.T(), suite.svc.CurrentUser())
}

func (suite *SessionTestSuite) TestRestore() {
	suite.login()

	restored := NewService(suite.store, suite.auth, nil)
	require.NoError(suite.T(), restored.Restore())
	assert.Equal(suite.T(), "ana", restored.CurrentUser().Username)
	assert.True(suite.T(), restored.IsAuthenticated())
}

func (suite *SessionTestSuite) TestRestoreMalformedUserForcesLogout() {
	suite.login()
	require.NoError(suite.T(), suite.db.Set(tokenstore.KeyUser, "{broken"))

	restored := NewService(suite.store, suite.auth, nil)
	require.NoError(suite.T(), restored.Restore())

	assert.Nil(suite.T(), restored.CurrentUser())
	assert.False(suite.T(), restored.IsAuthenticated())
	keys, _ := suite.db.Keys()
	assert.Empty(suite.T(), keys)
}

func (suite *SessionTestSuite) TestUpdateUserKeepsTokens() {
	suite.login()

	stored, err := suite.svc.UpdateUser(&models.User{Username: "ana", Email: "ana@example.com", FirstName: "Ana"})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "u1", stored.ID)

	user := suite.svc.CurrentUser()
	assert.Equal(suite.T(), "u1", user.ID, "id is kept when the profile omits it")
	assert.Equal(suite.T(), "Ana", user.FirstName)
	token, _ := suite.store.Token()
	assert.Equal(suite.T(), "access-1", token)
}

func (suite *SessionTestSuite) TestUpdateUserWithoutIDNeedsSession() {
	_, err := suite.svc.UpdateUser(&models.User{Username: "ana", Email: "ana@example.com"})
	require.ErrorIs(suite.T(), err, models.ErrInvalidResponse)
	assert.Nil(suite.T(), suite.svc.CurrentUser())
}

func (suite *SessionTestSuite) TestUnsubscribe() {
	calls := 0
	unsubscribe := suite.svc.Subscribe(func(*models.User) { calls++ })
	unsubscribe()
	unsubscribe()

	suite.login()
	assert.Equal(suite.T(), 1, calls)
	assert.Zero(suite.T(), suite.svc.users.len())
}

func (suite *SessionTestSuite) TestCurrentUserIsACopy() {
	suite.login()
	suite.svc.CurrentUser().Username = "mutated"
	assert.Equal(suite.T(), "ana", suite.svc.CurrentUser().Username)
}

func (suite *SessionTestSuite) TestTokenExpiry() {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("secret"))
	require.NoError(suite.T(), err)

	suite.auth.resp.Token = signed
	suite.login()

	got, ok := suite.svc.TokenExpiry()
	require.True(suite.T(), ok)
	assert.True(suite.T(), exp.Equal(got))
}

func (suite *SessionTestSuite) TestTokenExpiryOpaqueToken() {
	suite.login()
	_, ok := suite.svc.TokenExpiry()
	assert.False(suite.T(), ok)
}

func TestSessionTestSuite(t *testing.T) {
	suite.Run(t, new(SessionTestSuite))
}
