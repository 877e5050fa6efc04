package identity

import (
	"context"
	"errors"
	"strings"
	"testing"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/designstudio/internal/domain"
	"github.com/utafrali/designstudio/pkg/logger"
)

// MockVerifier is a mock implementation of TokenVerifier.
type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error) {
	args := m.Called(ctx, idToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*firebaseauth.Token), args.Error(1)
}

// MockDirectory is a mock implementation of Directory.
type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) EnsureUser(ctx context.Context, id *domain.Identity) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func TestDeriveClientKey_Deterministic(t *testing.T) {
	a := DeriveClientKey("firebase-uid-123")
	b := DeriveClientKey("firebase-uid-123")
	c := DeriveClientKey("firebase-uid-124")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.True(t, strings.HasPrefix(a, "CL"))
	assert.Len(t, a, 34)
	assert.Equal(t, strings.ToUpper(a), a)
	assert.Empty(t, DeriveClientKey(""))
}

func TestGuestProfiles_Resolve(t *testing.T) {
	var g GuestProfiles

	minted, isNew := g.Resolve("")
	require.True(t, isNew)
	_, err := uuid.Parse(minted)
	require.NoError(t, err)

	again, isNew := g.Resolve(minted)
	assert.False(t, isNew)
	assert.Equal(t, minted, again)

	_, isNew = g.Resolve("not-a-uuid")
	assert.True(t, isNew)

	v5 := uuid.NewSHA1(uuid.NameSpaceDNS, []byte("x")).String()
	_, isNew = g.Resolve(v5)
	assert.True(t, isNew, "only random profile ids are accepted")
}

func TestTokenResolver_ValidToken(t *testing.T) {
	ctx := context.Background()
	v := new(MockVerifier)
	d := new(MockDirectory)
	v.On("VerifyIDToken", mock.Anything, "good").Return(&firebaseauth.Token{
		UID:    "uid-1",
		Claims: map[string]interface{}{"email": "a@example.com"},
	}, nil).Once()

	r := NewTokenResolver(v, d, "good", logger.Discard())
	id := r.CurrentIdentity(ctx)
	require.NotNil(t, id)
	assert.Equal(t, DeriveClientKey("uid-1"), id.Key)
	assert.Equal(t, "a@example.com", id.Email)

	// Cached: the verifier is hit once.
	require.NotNil(t, r.CurrentIdentity(ctx))
	v.AssertExpectations(t)
	d.AssertNotCalled(t, "EnsureUser", mock.Anything, mock.Anything)
}

func TestTokenResolver_EnsureRecordedWritesDirectoryOnce(t *testing.T) {
	ctx := context.Background()
	v := new(MockVerifier)
	d := new(MockDirectory)
	v.On("VerifyIDToken", mock.Anything, "good").Return(&firebaseauth.Token{UID: "uid-1"}, nil).Once()
	d.On("EnsureUser", mock.Anything, mock.MatchedBy(func(id *domain.Identity) bool {
		return id.UID == "uid-1" && id.Key == DeriveClientKey("uid-1")
	})).Return(nil).Once()

	r := NewTokenResolver(v, d, "good", logger.Discard())
	require.NotNil(t, r.CurrentIdentity(ctx))

	id := r.EnsureRecorded(ctx)
	require.NotNil(t, id)
	assert.Equal(t, "uid-1", id.UID)
	require.NotNil(t, r.EnsureRecorded(ctx))

	v.AssertExpectations(t)
	d.AssertExpectations(t)
}

func TestTokenResolver_EnsureRecordedAnonymous(t *testing.T) {
	d := new(MockDirectory)
	r := NewTokenResolver(new(MockVerifier), d, "", logger.Discard())

	assert.Nil(t, r.EnsureRecorded(context.Background()))
	d.AssertNotCalled(t, "EnsureUser", mock.Anything, mock.Anything)
}

func TestTokenResolver_RejectedTokenIsAnonymous(t *testing.T) {
	v := new(MockVerifier)
	v.On("VerifyIDToken", mock.Anything, "expired").Return(nil, errors.New("ID token has expired"))

	r := NewTokenResolver(v, nil, "expired", logger.Discard())
	assert.Nil(t, r.CurrentIdentity(context.Background()))
	assert.True(t, r.Presented())
}

func TestTokenResolver_NoToken(t *testing.T) {
	v := new(MockVerifier)
	r := NewTokenResolver(v, nil, "", logger.Discard())

	assert.Nil(t, r.CurrentIdentity(context.Background()))
	assert.False(t, r.Presented())
	v.AssertNotCalled(t, "VerifyIDToken", mock.Anything, mock.Anything)
}

func TestTokenResolver_EnsureRecordedDirectoryFailureStillResolves(t *testing.T) {
	v := new(MockVerifier)
	d := new(MockDirectory)
	v.On("VerifyIDToken", mock.Anything, "good").Return(&firebaseauth.Token{UID: "uid-2"}, nil)
	d.On("EnsureUser", mock.Anything, mock.Anything).Return(errors.New("firestore unavailable"))

	r := NewTokenResolver(v, d, "good", logger.Discard())
	id := r.EnsureRecorded(context.Background())
	require.NotNil(t, id)
	assert.Equal(t, "uid-2", id.UID)
	assert.Empty(t, id.Email)
}

func TestStaticResolver(t *testing.T) {
	assert.Nil(t, StaticResolver{}.CurrentIdentity(context.Background()))

	r := ForUID("uid-3", "c@example.com")
	id := r.CurrentIdentity(context.Background())
	require.NotNil(t, id)
	assert.Equal(t, DeriveClientKey("uid-3"), id.Key)

	id.Key = "mutated"
	assert.Equal(t, DeriveClientKey("uid-3"), r.CurrentIdentity(context.Background()).Key)
}
