package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/veristore/veristore-server/internal/model"
	"github.com/veristore/veristore-server/internal/repository/memory"
	"github.com/veristore/veristore-server/internal/testutil"
)

const testSecret = "verifier-secret"

// MockRecordStore mocks the RecordStore interface
type MockRecordStore struct {
	mock.Mock
}

func (m *MockRecordStore) Get(ctx context.Context, key string) (model.VerificationRecord, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(model.VerificationRecord), args.Error(1)
}

func (m *MockRecordStore) Put(ctx context.Context, key string, record model.VerificationRecord) error {
	args := m.Called(ctx, key, record)
	return args.Error(0)
}

func (m *MockRecordStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type testStore struct {
	service    *Verification
	records    *memory.RecordRepository
	audit      *memory.AuditRepository
	clock      *testClock
	verifierID uuid.UUID
}

func newTestStore(t *testing.T) *testStore {
	t.Helper()

	clock := &testClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	records := memory.NewRecordRepository()
	auditRepo := memory.NewAuditRepository()
	log := testutil.MakeNoopLogger()
	auditService := NewAudit(auditRepo, nil, log, clock.Now)
	verifierID := uuid.New()

	return &testStore{
		service:    NewVerification(records, auditService, log, verifierID, testSecret, clock.Now),
		records:    records,
		audit:      auditRepo,
		clock:      clock,
		verifierID: verifierID,
	}
}

func (ts *testStore) store(t *testing.T, userName, mutable, immutable, credential string) {
	t.Helper()
	ok, err := ts.service.StoreVerificationData(context.Background(), ts.verifierID, model.StoreRecordParams{
		UserName:          userName,
		MutableDataHash:   mutable,
		ImmutableDataHash: immutable,
		UserEncryptedKey:  credential,
	})
	require.NoError(t, err)
	require.True(t, ok)
}

func (ts *testStore) lastEvent(t *testing.T) model.AuditEvent {
	t.Helper()
	events, err := ts.audit.ListSince(context.Background(), time.Time{})
	require.NoError(t, err)
	require.NotEmpty(t, events)
	return events[len(events)-1]
}

func TestVerification_StoreAndVerify(t *testing.T) {
	ts := newTestStore(t)
	ctx := context.Background()

	ts.store(t, "alice", "mh1", "ih1", "credA")

	ok, err := ts.service.VerifyUserIdentity(ctx, "credA", "alice", "mh1", "ih1")
	require.NoError(t, err)
	assert.True(t, ok)

	event := ts.lastEvent(t)
	assert.Equal(t, model.AuditEventDataStored, event.Type)
	assert.Equal(t, "alice", event.UserName)
	assert.Equal(t, model.AuditResultSuccess, event.Result)
}

func TestVerification_StoreDuplicateRejected(t *testing.T) {
	ts := newTestStore(t)
	ctx := context.Background()

	ts.store(t, "alice", "mh1", "ih1", "credA")

	ok, err := ts.service.StoreVerificationData(ctx, ts.verifierID, model.StoreRecordParams{
		UserName:          "alice",
		MutableDataHash:   "mh2",
		ImmutableDataHash: "ih2",
		UserEncryptedKey:  "credA",
	})
	require.NoError(t, err)
	assert.False(t, ok)

	// First record left unchanged.
	ok, err = ts.service.VerifyUserIdentity(ctx, "credA", "alice", "mh1", "ih1")
	require.NoError(t, err)
	assert.True(t, ok)

	event := ts.lastEvent(t)
	assert.Equal(t, model.AuditEventError, event.Type)
	assert.Equal(t, "user already exists", event.Message)
}

func TestVerification_StoreWithExplicitChangeCount(t *testing.T) {
	ts := newTestStore(t)
	ctx := context.Background()

	ok, err := ts.service.StoreVerificationData(ctx, ts.verifierID, model.StoreRecordParams{
		UserName:          "alice",
		MutableDataHash:   "mh1",
		ImmutableDataHash: "ih1",
		UserEncryptedKey:  "credA",
		ChangeCount:       3,
	})
	require.NoError(t, err)
	require.True(t, ok)

	record, err := ts.records.Get(ctx, DeriveKey("credA", testSecret, "alice"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), record.ChangeCount)
	assert.Equal(t, ts.clock.Now(), record.UpdatedAt)
}

func TestVerification_VerifyUserIdentity(t *testing.T) {
	ts := newTestStore(t)
	ctx := context.Background()

	ts.store(t, "alice", "mh1", "ih1", "credA")

	tests := []struct {
		name       string
		credential string
		userName   string
		mutable    string
		immutable  string
		want       bool
	}{
		{name: "exact match", credential: "credA", userName: "alice", mutable: "mh1", immutable: "ih1", want: true},
		{name: "wrong mutable hash", credential: "credA", userName: "alice", mutable: "mh2", immutable: "ih1", want: false},
		{name: "wrong immutable hash", credential: "credA", userName: "alice", mutable: "mh1", immutable: "ih2", want: false},
		{name: "wrong credential", credential: "credB", userName: "alice", mutable: "mh1", immutable: "ih1", want: false},
		{name: "wrong username", credential: "credA", userName: "bob", mutable: "mh1", immutable: "ih1", want: false},
		{name: "absent record", credential: "credC", userName: "carol", mutable: "mh1", immutable: "ih1", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := ts.service.VerifyUserIdentity(ctx, tt.credential, tt.userName, tt.mutable, tt.immutable)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestVerification_DeleteVerificationData(t *testing.T) {
	ts := newTestStore(t)
	ctx := context.Background()

	ts.store(t, "alice", "mh1", "ih1", "credA")

	ok, err := ts.service.DeleteVerificationData(ctx, ts.verifierID, "credA", "alice")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, model.AuditEventDataDeleted, ts.lastEvent(t).Type)

	ok, err = ts.service.VerifyUserIdentity(ctx, "credA", "alice", "mh1", "ih1")
	require.NoError(t, err)
	assert.False(t, ok)

	// Second delete finds nothing.
	ok, err = ts.service.DeleteVerificationData(ctx, ts.verifierID, "credA", "alice")
	require.NoError(t, err)
	assert.False(t, ok)
	event := ts.lastEvent(t)
	assert.Equal(t, model.AuditEventError, event.Type)
	assert.Equal(t, "user does not exist", event.Message)
}

func TestVerification_ChangeKey_RateLimitedSameDay(t *testing.T) {
	ts := newTestStore(t)
	ctx := context.Background()

	ts.store(t, "alice", "mh1", "ih1", "credA")

	ok, err := ts.service.ChangeUserEncryptionKey(ctx, ts.verifierID, "credA", "credB", "alice")
	require.NoError(t, err)
	assert.False(t, ok)

	event := ts.lastEvent(t)
	assert.Equal(t, model.AuditEventError, event.Type)
	assert.Equal(t, "encryption key change is rate limited", event.Message)

	// Record stays reachable under the old credential.
	ok, err = ts.service.VerifyUserIdentity(ctx, "credA", "alice", "mh1", "ih1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerification_ChangeKey_SuccessAfterWindow(t *testing.T) {
	ts := newTestStore(t)
	ctx := context.Background()

	ts.store(t, "alice", "mh1", "ih1", "credA")
	ts.clock.Advance(25 * time.Hour)

	ok, err := ts.service.ChangeUserEncryptionKey(ctx, ts.verifierID, "credA", "credB", "alice")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, model.AuditEventEncryptionKeyChanged, ts.lastEvent(t).Type)

	// Old credential no longer resolves the record, the new one does.
	ok, err = ts.service.VerifyUserIdentity(ctx, "credA", "alice", "mh1", "ih1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = ts.service.VerifyUserIdentity(ctx, "credB", "alice", "mh1", "ih1")
	require.NoError(t, err)
	assert.True(t, ok)

	record, err := ts.records.Get(ctx, DeriveKey("credB", testSecret, "alice"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), record.ChangeCount)
	assert.Equal(t, ts.clock.Now(), record.UpdatedAt)
}

func TestVerification_ChangeKey_CountCeiling(t *testing.T) {
	ts := newTestStore(t)
	ctx := context.Background()

	// A count at the ceiling still passes the guard (it rejects only
	// strictly greater counts).
	ok, err := ts.service.StoreVerificationData(ctx, ts.verifierID, model.StoreRecordParams{
		UserName:          "alice",
		MutableDataHash:   "mh1",
		ImmutableDataHash: "ih1",
		UserEncryptedKey:  "credA",
		ChangeCount:       5,
	})
	require.NoError(t, err)
	require.True(t, ok)
	ts.clock.Advance(25 * time.Hour)

	ok, err = ts.service.ChangeUserEncryptionKey(ctx, ts.verifierID, "credA", "credB", "alice")
	require.NoError(t, err)
	assert.True(t, ok)

	// The rotated record now carries count 6 and is pinned.
	ts.clock.Advance(25 * time.Hour)
	ok, err = ts.service.ChangeUserEncryptionKey(ctx, ts.verifierID, "credB", "credC", "alice")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "encryption key change is rate limited", ts.lastEvent(t).Message)
}

func TestVerification_ChangeKey_UnknownUser(t *testing.T) {
	ts := newTestStore(t)
	ctx := context.Background()

	// Absent record: zero timestamp passes the window guard, then the
	// username comparison fails.
	ok, err := ts.service.ChangeUserEncryptionKey(ctx, ts.verifierID, "credA", "credB", "alice")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "user does not exist", ts.lastEvent(t).Message)
}

func TestVerification_ChangeKey_RestoresRecordOnPutFailure(t *testing.T) {
	clock := &testClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	log := testutil.MakeNoopLogger()
	auditService := NewAudit(memory.NewAuditRepository(), nil, log, clock.Now)
	verifierID := uuid.New()

	oldKey := DeriveKey("credA", testSecret, "alice")
	newKey := DeriveKey("credB", testSecret, "alice")
	stored := model.VerificationRecord{
		UserName:          "alice",
		MutableDataHash:   "mh1",
		ImmutableDataHash: "ih1",
		UpdatedAt:         clock.Now().Add(-48 * time.Hour),
		ChangeCount:       0,
	}

	records := &MockRecordStore{}
	records.On("Get", mock.Anything, oldKey).Return(stored, nil)
	records.On("Delete", mock.Anything, oldKey).Return(nil)
	records.On("Put", mock.Anything, newKey, mock.Anything).Return(errors.New("disk full"))
	records.On("Put", mock.Anything, oldKey, stored).Return(nil)

	svc := NewVerification(records, auditService, log, verifierID, testSecret, clock.Now)

	ok, err := svc.ChangeUserEncryptionKey(context.Background(), verifierID, "credA", "credB", "alice")
	require.Error(t, err)
	assert.False(t, ok)

	// The original record was written back under the old key.
	records.AssertCalled(t, "Put", mock.Anything, oldKey, stored)
}

func TestVerification_ReduceChangeCount(t *testing.T) {
	ts := newTestStore(t)
	ctx := context.Background()

	ts.store(t, "alice", "mh1", "ih1", "credA")

	// Bypasses the rotation guard entirely: same-day rewrite succeeds.
	ok, err := ts.service.ReduceChangeCount(ctx, ts.verifierID, "credA", "alice", 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, model.AuditEventChangeCountReduced, ts.lastEvent(t).Type)

	record, err := ts.records.Get(ctx, DeriveKey("credA", testSecret, "alice"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), record.ChangeCount)

	// Despite the name the count may also grow.
	ok, err = ts.service.ReduceChangeCount(ctx, ts.verifierID, "credA", "alice", 9)
	require.NoError(t, err)
	assert.True(t, ok)

	record, err = ts.records.Get(ctx, DeriveKey("credA", testSecret, "alice"))
	require.NoError(t, err)
	assert.Equal(t, int64(9), record.ChangeCount)
}

func TestVerification_ReduceChangeCount_UnknownUser(t *testing.T) {
	ts := newTestStore(t)

	ok, err := ts.service.ReduceChangeCount(context.Background(), ts.verifierID, "credA", "alice", 2)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "user does not exist", ts.lastEvent(t).Message)
}

func TestVerification_AccessDenied(t *testing.T) {
	ts := newTestStore(t)
	ctx := context.Background()
	intruder := uuid.New()

	ts.store(t, "alice", "mh1", "ih1", "credA")
	before := ts.records.Len()

	tests := []struct {
		name string
		call func() (bool, error)
	}{
		{
			name: "store",
			call: func() (bool, error) {
				return ts.service.StoreVerificationData(ctx, intruder, model.StoreRecordParams{
					UserName:          "bob",
					MutableDataHash:   "mh",
					ImmutableDataHash: "ih",
					UserEncryptedKey:  "credB",
				})
			},
		},
		{
			name: "delete",
			call: func() (bool, error) {
				return ts.service.DeleteVerificationData(ctx, intruder, "credA", "alice")
			},
		},
		{
			name: "change key",
			call: func() (bool, error) {
				return ts.service.ChangeUserEncryptionKey(ctx, intruder, "credA", "credB", "alice")
			},
		},
		{
			name: "reduce change count",
			call: func() (bool, error) {
				return ts.service.ReduceChangeCount(ctx, intruder, "credA", "alice", 0)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := tt.call()
			assert.False(t, ok)
			assert.ErrorIs(t, err, model.ErrAccessDenied)
		})
	}

	// No mutation happened.
	assert.Equal(t, before, ts.records.Len())
	ok, err := ts.service.VerifyUserIdentity(ctx, "credA", "alice", "mh1", "ih1")
	require.NoError(t, err)
	assert.True(t, ok)
}

// The documented scenario from the store's boundary contract.
func TestVerification_Lifecycle(t *testing.T) {
	ts := newTestStore(t)
	ctx := context.Background()

	ok, err := ts.service.StoreVerificationData(ctx, ts.verifierID, model.StoreRecordParams{
		UserName:          "alice",
		MutableDataHash:   "mh1",
		ImmutableDataHash: "ih1",
		UserEncryptedKey:  "credA",
	})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ts.service.VerifyUserIdentity(ctx, "credA", "alice", "mh1", "ih1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ts.service.DeleteVerificationData(ctx, ts.verifierID, "credA", "alice")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ts.service.VerifyUserIdentity(ctx, "credA", "alice", "mh1", "ih1")
	require.NoError(t, err)
	assert.False(t, ok)
}
