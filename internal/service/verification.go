package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/veristore/veristore-server/internal/logger"
	"github.com/veristore/veristore-server/internal/model"
)

const (
	// maxChangeCount is the rotation ceiling. The guard rejects when the
	// stored count is strictly greater, so a record at the ceiling may
	// still rotate once more.
	maxChangeCount = 5
	// rotationWindow is the minimum time between credential rotations.
	rotationWindow = 24 * time.Hour
)

const msgUserExists = "user already exists"
const msgUserNotExists = "user does not exist"
const msgRateLimited = "encryption key change is rate limited"

// Clock supplies the trusted timestamps used for record bookkeeping.
type Clock func() time.Time

// Verification is the verification store. It owns the derived-key mapping,
// the verifier identity and secret key material, and enforces the
// rotation rate-limit policy. Every public operation is serialized
// end-to-end by a single mutex, including rotation's internal
// delete-and-recreate, so callers never observe a partial mutation.
type Verification struct {
	mu             sync.Mutex
	records        model.RecordStore
	audit          *Audit
	logger         *logger.Logger
	verifierID     uuid.UUID
	verifierSecret string
	now            Clock
}

// NewVerification creates the verification store. The constructing caller
// becomes the permanent verifier identity; verifierSecret seeds key
// derivation for the store's lifetime.
func NewVerification(
	records model.RecordStore,
	audit *Audit,
	logger *logger.Logger,
	verifierID uuid.UUID,
	verifierSecret string,
	now Clock,
) *Verification {
	if now == nil {
		now = time.Now
	}
	return &Verification{
		records:        records,
		audit:          audit,
		logger:         logger,
		verifierID:     verifierID,
		verifierSecret: verifierSecret,
		now:            now,
	}
}

// StoreVerificationData registers a verification record for the given
// username under the key derived from its credential. Registering a
// username that already occupies the derived key is rejected; the
// existing record is left unchanged.
func (s *Verification) StoreVerificationData(ctx context.Context, callerID uuid.UUID, params model.StoreRecordParams) (bool, error) {
	if err := s.requireVerifier(callerID); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := DeriveKey(params.UserEncryptedKey, s.verifierSecret, params.UserName)
	existing, err := s.loadRecord(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to load record: %w", err)
	}

	if existing.Exists() && existing.UserName == params.UserName {
		s.audit.Error(ctx, params.UserName, msgUserExists)
		return false, nil
	}

	record := model.VerificationRecord{
		UserName:          params.UserName,
		MutableDataHash:   params.MutableDataHash,
		ImmutableDataHash: params.ImmutableDataHash,
		UpdatedAt:         s.now(),
		ChangeCount:       params.ChangeCount,
	}
	if err := s.records.Put(ctx, key, record); err != nil {
		return false, fmt.Errorf("failed to put record: %w", err)
	}

	s.audit.DataStored(ctx, params.UserName)
	return true, nil
}

// VerifyUserIdentity reports whether the record addressed by the given
// credential and username carries exactly the given fields. A missing
// record behaves as a record with all-empty fields. Read-only, open to
// any caller, no notification on mismatch.
func (s *Verification) VerifyUserIdentity(ctx context.Context, userEncryptedKey, userName, mutableDataHash, immutableDataHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.verifyLocked(ctx, userEncryptedKey, userName, mutableDataHash, immutableDataHash)
}

// DeleteVerificationData removes the record addressed by the given
// credential if its stored username matches.
func (s *Verification) DeleteVerificationData(ctx context.Context, callerID uuid.UUID, userEncryptedKey, userName string) (bool, error) {
	if err := s.requireVerifier(callerID); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := DeriveKey(userEncryptedKey, s.verifierSecret, userName)
	record, err := s.loadRecord(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to load record: %w", err)
	}

	if record.UserName != userName {
		s.audit.Error(ctx, userName, msgUserNotExists)
		return false, nil
	}

	if err := s.records.Delete(ctx, key); err != nil {
		return false, fmt.Errorf("failed to delete record: %w", err)
	}

	s.audit.DataDeleted(ctx, userName)
	return true, nil
}

// ChangeUserEncryptionKey rotates a user's credential: the record is
// removed from under the old derived key and re-stored under the new one
// with an incremented change count and a fresh timestamp. Rotation is
// refused while the rate-limit guard holds: more than maxChangeCount
// prior changes, or less than rotationWindow since the last write.
func (s *Verification) ChangeUserEncryptionKey(ctx context.Context, callerID uuid.UUID, userEncryptedKey, newUserEncryptedKey, userName string) (bool, error) {
	if err := s.requireVerifier(callerID); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	oldKey := DeriveKey(userEncryptedKey, s.verifierSecret, userName)
	record, err := s.loadRecord(ctx, oldKey)
	if err != nil {
		return false, fmt.Errorf("failed to load record: %w", err)
	}

	now := s.now()
	if record.ChangeCount > maxChangeCount || record.UpdatedAt.Add(rotationWindow).After(now) {
		s.audit.Error(ctx, userName, msgRateLimited)
		return false, nil
	}

	if record.UserName != userName {
		s.audit.Error(ctx, userName, msgUserNotExists)
		return false, nil
	}

	// Consistency check against the record's own stored hashes. It can
	// only fail if the mapping no longer agrees with itself.
	ok, err := s.verifyLocked(ctx, userEncryptedKey, userName, record.MutableDataHash, record.ImmutableDataHash)
	if err != nil {
		return false, fmt.Errorf("failed to verify identity: %w", err)
	}
	if !ok {
		s.audit.Error(ctx, userName, msgUserNotExists)
		return false, nil
	}

	if err := s.records.Delete(ctx, oldKey); err != nil {
		return false, fmt.Errorf("failed to delete record: %w", err)
	}

	rotated := record
	rotated.ChangeCount = record.ChangeCount + 1
	rotated.UpdatedAt = now

	newKey := DeriveKey(newUserEncryptedKey, s.verifierSecret, userName)
	if err := s.records.Put(ctx, newKey, rotated); err != nil {
		// The old entry is already gone. Best effort to put it back so a
		// failed rotation does not lose the record.
		if restoreErr := s.records.Put(ctx, oldKey, record); restoreErr != nil {
			s.logger.Error("failed to restore record after rotation failure",
				"user_name", userName, "error", restoreErr)
			s.audit.Error(ctx, userName, "record lost during encryption key change")
		}
		return false, fmt.Errorf("failed to put rotated record: %w", err)
	}

	s.audit.EncryptionKeyChanged(ctx, userName)
	return true, nil
}

// ReduceChangeCount rewrites a record's change count in place and
// refreshes its timestamp. Despite the name the new count may be higher
// than the old one; this is an administrative override and bypasses the
// rotation rate-limit guard entirely.
func (s *Verification) ReduceChangeCount(ctx context.Context, callerID uuid.UUID, userEncryptedKey, userName string, newCount int64) (bool, error) {
	if err := s.requireVerifier(callerID); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := DeriveKey(userEncryptedKey, s.verifierSecret, userName)
	record, err := s.loadRecord(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to load record: %w", err)
	}

	if record.UserName != userName {
		s.audit.Error(ctx, userName, msgUserNotExists)
		return false, nil
	}

	record.ChangeCount = newCount
	record.UpdatedAt = s.now()
	if err := s.records.Put(ctx, key, record); err != nil {
		return false, fmt.Errorf("failed to put record: %w", err)
	}

	s.audit.ChangeCountReduced(ctx, userName)
	return true, nil
}

// VerifierID returns the identity authorized to mutate the store.
func (s *Verification) VerifierID() uuid.UUID {
	return s.verifierID
}

func (s *Verification) verifyLocked(ctx context.Context, userEncryptedKey, userName, mutableDataHash, immutableDataHash string) (bool, error) {
	key := DeriveKey(userEncryptedKey, s.verifierSecret, userName)
	record, err := s.loadRecord(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to load record: %w", err)
	}

	return record.UserName == userName &&
		record.MutableDataHash == mutableDataHash &&
		record.ImmutableDataHash == immutableDataHash, nil
}

// loadRecord reads a record, mapping an absent key to the zero record.
func (s *Verification) loadRecord(ctx context.Context, key string) (model.VerificationRecord, error) {
	record, err := s.records.Get(ctx, key)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.VerificationRecord{}, nil
		}
		return model.VerificationRecord{}, err
	}
	return record, nil
}

func (s *Verification) requireVerifier(callerID uuid.UUID) error {
	if callerID != s.verifierID {
		return model.ErrAccessDenied
	}
	return nil
}
