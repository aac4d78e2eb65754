package deposit

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"hydrofund/internal/config"
	apperrors "hydrofund/internal/errors"
	"hydrofund/internal/models"
	"hydrofund/internal/repositories/memstore"
	"hydrofund/internal/services/ledger"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	now   = time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	user  = models.Actor{UserID: 10, Role: models.RoleUser}
	admin = models.Actor{UserID: 1, Role: models.RoleAdmin}
)

type MockProofStore struct {
	mock.Mock
}

func (m *MockProofStore) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	args := m.Called(ctx, key, body, contentType)
	return args.Error(0)
}

type fixture struct {
	store  *memstore.Store
	ledger ledger.Service
	svc    Service
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	clock := func() time.Time { return now }
	store := memstore.New()
	ledgerSvc := ledger.NewService(store, nil, nil, ledger.WithClock(clock))
	opts = append([]Option{WithClock(clock)}, opts...)
	svc := NewService(store, ledgerSvc, nil, config.DefaultLedgerConfig(), opts...)
	return &fixture{store: store, ledger: ledgerSvc, svc: svc}
}

func (f *fixture) balance(t *testing.T, userID uint) decimal.Decimal {
	t.Helper()
	w, err := f.store.Wallets().GetByUserID(context.Background(), userID)
	require.NoError(t, err)
	return w.Balance
}

func submit(amount, code string) SubmitRequest {
	return SubmitRequest{Amount: decimal.RequireFromString(amount), Phone: "+254712345678", Code: code}
}

func TestSubmit(t *testing.T) {
	f := newFixture(t)

	d, err := f.svc.Submit(context.Background(), user, submit("2500", " sgh7k2lm9x "))
	require.NoError(t, err)
	assert.Equal(t, models.DepositPending, d.Status)
	assert.Equal(t, "SGH7K2LM9X", d.Code)
	assert.Nil(t, d.ProofKey)

	// nothing is credited until approval
	_, err = f.store.Wallets().GetByUserID(context.Background(), user.UserID)
	assert.Error(t, err)
}

func TestSubmit_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, user, submit("99.99", "SGH7K2LM9X"))
	assert.ErrorIs(t, err, apperrors.ErrInvalidAmount)
	_, err = f.svc.Submit(ctx, user, submit("100.005", "SGH7K2LM9X"))
	assert.ErrorIs(t, err, apperrors.ErrInvalidAmount)
	_, err = f.svc.Submit(ctx, user, submit("100", "ABC"))
	assert.ErrorIs(t, err, apperrors.ErrInvalidDepositCode)
	_, err = f.svc.Submit(ctx, user, submit("100", strings.Repeat("A", 65)))
	assert.ErrorIs(t, err, apperrors.ErrInvalidDepositCode)

	req := submit("100", "SGH7K2LM9X")
	req.Phone = "0812345678"
	_, err = f.svc.Submit(ctx, user, req)
	assert.ErrorIs(t, err, apperrors.ErrInvalidPhone)
}

func TestSubmit_DuplicateCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, user, submit("500", "SGH7K2LM9X"))
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, models.Actor{UserID: 11}, submit("500", "sgh7k2lm9x"))
	assert.ErrorIs(t, err, apperrors.ErrDuplicateDepositCode)
	assert.Equal(t, apperrors.KindStateConflict, apperrors.KindOf(err))
}

func TestSubmit_UploadsProof(t *testing.T) {
	proofs := new(MockProofStore)
	f := newFixture(t, WithProofStore(proofs))

	proofs.On("Put", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "deposits/") && strings.HasSuffix(key, "/proof.png")
	}), mock.Anything, "image/png").Return(nil).Once()

	req := submit("500", "SGH7K2LM9X")
	req.Proof = &Proof{Name: "receipt.png", Body: strings.NewReader("png")}
	d, err := f.svc.Submit(context.Background(), user, req)
	require.NoError(t, err)
	require.NotNil(t, d.ProofKey)
	assert.Equal(t, "deposits/"+d.ID+"/proof.png", *d.ProofKey)
	proofs.AssertExpectations(t)
}

func TestSubmit_ProofUploadFailure(t *testing.T) {
	proofs := new(MockProofStore)
	f := newFixture(t, WithProofStore(proofs))
	proofs.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("bucket gone"))

	req := submit("500", "SGH7K2LM9X")
	req.Proof = &Proof{Name: "receipt.jpg", Body: strings.NewReader("jpg")}
	_, err := f.svc.Submit(context.Background(), user, req)
	assert.ErrorIs(t, err, apperrors.ErrProofUpload)

	list, total, err := f.svc.ListByUser(context.Background(), user, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)
}

func TestApproveOne_CreditsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d, err := f.svc.Submit(ctx, user, submit("2500", "SGH7K2LM9X"))
	require.NoError(t, err)

	approved, err := f.svc.ApproveOne(ctx, admin, d.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DepositCompleted, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, admin.UserID, *approved.ApprovedBy)
	assert.True(t, f.balance(t, user.UserID).Equal(decimal.NewFromInt(2500)))

	again, err := f.svc.ApproveOne(ctx, admin, d.ID)
	assert.ErrorIs(t, err, apperrors.ErrDepositAlreadyCompleted)
	require.NotNil(t, again)
	assert.True(t, f.balance(t, user.UserID).Equal(decimal.NewFromInt(2500)))

	_, err = f.svc.ApproveOne(ctx, user, d.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestApproveOne_Concurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d, err := f.svc.Submit(ctx, user, submit("2500", "SGH7K2LM9X"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.ApproveOne(ctx, admin, d.ID)
			if err != nil {
				assert.ErrorIs(t, err, apperrors.ErrDepositAlreadyCompleted)
			}
		}()
	}
	wg.Wait()

	assert.True(t, f.balance(t, user.UserID).Equal(decimal.NewFromInt(2500)))
}

func TestApprove_Batch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first, err := f.svc.Submit(ctx, user, submit("1000", "CODE000001"))
	require.NoError(t, err)
	second, err := f.svc.Submit(ctx, user, submit("500", "CODE000002"))
	require.NoError(t, err)
	_, err = f.svc.ApproveOne(ctx, admin, first.ID)
	require.NoError(t, err)

	results, err := f.svc.Approve(ctx, admin, first.ID, second.ID, "missing", second.ID)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, OutcomeAlreadyCompleted, results[0].Outcome)
	assert.Equal(t, OutcomeApproved, results[1].Outcome)
	assert.Equal(t, OutcomeFailed, results[2].Outcome)
	assert.Equal(t, "DEPOSIT_NOT_FOUND", results[2].Reason)

	assert.True(t, f.balance(t, user.UserID).Equal(decimal.NewFromInt(1500)))
}

func TestApprove_BatchBounds(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Approve(context.Background(), admin)
	assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)
	_, err = f.svc.Approve(context.Background(), user, "x")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestGet_HidesOtherUsersDeposits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d, err := f.svc.Submit(ctx, user, submit("500", "SGH7K2LM9X"))
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, models.Actor{UserID: 11}, d.ID)
	assert.ErrorIs(t, err, apperrors.ErrDepositNotFound)

	got, err := f.svc.Get(ctx, admin, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.ID, got.ID)

	pending, total, err := f.svc.ListByStatus(ctx, admin, models.DepositPending, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, pending, 1)
}

type fakePutter struct {
	input *s3.PutObjectInput
	err   error
}

func (p *fakePutter) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	p.input = params
	return &s3.PutObjectOutput{}, p.err
}

func TestS3ProofStore_Put(t *testing.T) {
	putter := &fakePutter{}
	store := &S3ProofStore{client: putter, bucket: "proofs"}

	err := store.Put(context.Background(), "deposits/d1/proof.png", strings.NewReader("x"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "proofs", *putter.input.Bucket)
	assert.Equal(t, "deposits/d1/proof.png", *putter.input.Key)
	assert.Equal(t, "image/png", *putter.input.ContentType)

	putter.err = errors.New("denied")
	err = store.Put(context.Background(), "k", strings.NewReader("x"), "image/png")
	assert.ErrorContains(t, err, "denied")
}

func TestNewS3ProofStore_RequiresBucket(t *testing.T) {
	_, err := NewS3ProofStore(context.Background(), config.S3Config{})
	assert.Error(t, err)
}

func TestProofKey(t *testing.T) {
	key, ct := proofKey("d1", "scan.bin.unknownext")
	assert.Equal(t, "deposits/d1/proof.unknownext", key)
	assert.Equal(t, "application/octet-stream", ct)
}
