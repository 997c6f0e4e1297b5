package service

// DeriveKey computes the store addressing key for a (credential, username)
// pair under the verifier's secret. The derivation is a deterministic,
// order-sensitive concatenation: reading or mutating a record requires
// re-presenting the same credential the record was stored under.
//
// Note that plain concatenation is not collision-resistant. Distinct
// tuples can map to the same key when a credential suffix overlaps the
// secret: under secret "ss", ("a", "sb") and ("as", "b") both derive
// "asssb". Callers relying on key uniqueness must account for this.
func DeriveKey(userEncryptedKey, verifierSecret, userName string) string {
	return userEncryptedKey + verifierSecret + userName
}
