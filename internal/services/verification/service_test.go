package verification

import (
	"context"
	"errors"
	"testing"

	apperrors "hydrofund/internal/errors"
	"hydrofund/internal/models"
	"hydrofund/internal/repositories/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type MockOTP struct {
	mock.Mock
}

func (m *MockOTP) Check(ctx context.Context, secretRef, otp string) (bool, error) {
	args := m.Called(ctx, secretRef, otp)
	return args.Bool(0), args.Error(1)
}

var user = models.Actor{UserID: 10, Role: models.RoleUser}

func TestCodeVerification(t *testing.T) {
	store := memstore.New()
	svc := NewService(store, WithBcryptCost(bcrypt.MinCost))
	ctx := context.Background()

	caps, err := svc.Capabilities(ctx, user)
	require.NoError(t, err)
	assert.False(t, caps.Any())
	assert.NoError(t, svc.Guard(ctx, user, nil))

	err = svc.Verify(ctx, user, Proof{Kind: KindCode, Payload: "1234"})
	assert.ErrorIs(t, err, apperrors.ErrCapabilityUnavailable)

	assert.ErrorIs(t, svc.SetCode(ctx, user, "12a4"), apperrors.ErrInvalidRequest)
	require.NoError(t, svc.SetCode(ctx, user, "4821"))

	caps, err = svc.Capabilities(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, models.Capabilities{HasCode: true}, caps)

	assert.NoError(t, svc.Verify(ctx, user, Proof{Kind: KindCode, Payload: "4821"}))
	assert.ErrorIs(t, svc.Verify(ctx, user, Proof{Kind: KindCode, Payload: "4822"}), apperrors.ErrVerificationFailed)
	assert.ErrorIs(t, svc.Verify(ctx, user, Proof{Kind: "face", Payload: "x"}), apperrors.ErrInvalidRequest)

	err = svc.Guard(ctx, user, nil)
	assert.ErrorIs(t, err, apperrors.ErrVerificationRequired)
	de, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "true", de.Details["has_code"])
	assert.NoError(t, svc.Guard(ctx, user, &Proof{Kind: KindCode, Payload: "4821"}))
}

func TestOTPVerification(t *testing.T) {
	store := memstore.New()
	ref := "totp/10"
	require.NoError(t, store.Security().Save(context.Background(), &models.AccountSecurity{
		UserID: user.UserID, OTPEnabled: true, OTPSecretRef: &ref,
	}))
	ctx := context.Background()

	// without a provider the otp factor is not offered
	plain := NewService(store)
	caps, err := plain.Capabilities(ctx, user)
	require.NoError(t, err)
	assert.False(t, caps.HasOTP)

	otp := new(MockOTP)
	otp.On("Check", mock.Anything, ref, "123456").Return(true, nil)
	otp.On("Check", mock.Anything, ref, "000000").Return(false, nil)
	otp.On("Check", mock.Anything, ref, "999999").Return(false, errors.New("provider down"))
	svc := NewService(store, WithOTPProvider(otp))

	assert.NoError(t, svc.Verify(ctx, user, Proof{Kind: KindOTP, Payload: "123456"}))
	assert.ErrorIs(t, svc.Verify(ctx, user, Proof{Kind: KindOTP, Payload: "000000"}), apperrors.ErrVerificationFailed)
	assert.Equal(t, apperrors.KindTransient, apperrors.KindOf(svc.Verify(ctx, user, Proof{Kind: KindOTP, Payload: "999999"})))
	assert.ErrorIs(t, svc.Verify(ctx, user, Proof{Kind: KindCode, Payload: "1234"}), apperrors.ErrCapabilityUnavailable)
	otp.AssertExpectations(t)
}
