// Package models defines sealed export bundles.
//
// Each bundle is encrypted under its own random key, and the key lives in a
// separate row. Erasing a bundle therefore has a crypto-shredding step:
// once the key row is gone the ciphertext is unreadable everywhere,
// including in backups that still hold it.
package models

import (
	"crypto/rand"
	"time"

	"golang.org/x/crypto/chacha20poly1305"

	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

// KeySize is the per-bundle key length in bytes.
const KeySize = chacha20poly1305.KeySize

// Bundle is one sealed export: nonce plus XChaCha20-Poly1305 ciphertext.
type Bundle struct {
	ID         id.ExportID `json:"id"`
	TenantID   id.TenantID `json:"tenant_id"`
	UserID     id.UserID   `json:"user_id"`
	Nonce      []byte      `json:"-"`
	Ciphertext []byte      `json:"-"`
	CreatedAt  time.Time   `json:"created_at"`
}

// Metadata is the bundle without its sealed payload, for listings and for
// the erasure cascade, which only needs identifiers.
type Metadata struct {
	ID        id.ExportID `json:"id"`
	UserID    id.UserID   `json:"user_id"`
	CreatedAt time.Time   `json:"created_at"`
}

// SealBundle encrypts plaintext under a fresh random key. The key is
// returned separately so the store can persist it apart from the
// ciphertext; the caller must never write both to the same row.
func SealBundle(tenantID id.TenantID, userID id.UserID, plaintext []byte, now time.Time) (*Bundle, []byte, error) {
	if tenantID.IsNil() || userID.IsNil() {
		return nil, nil, dErrors.New(dErrors.CodeInvariantViolation, "bundle requires tenant and user ids")
	}

	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate bundle key")
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to initialize cipher")
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate nonce")
	}

	return &Bundle{
		ID:         id.NewExportID(),
		TenantID:   tenantID,
		UserID:     userID,
		Nonce:      nonce,
		Ciphertext: aead.Seal(nil, nonce, plaintext, nil),
		CreatedAt:  now,
	}, key, nil
}

// Open decrypts the bundle with its key. Fails if the key or the
// ciphertext has been tampered with.
func (b *Bundle) Open(key []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to initialize cipher")
	}
	plaintext, err := aead.Open(nil, b.Nonce, b.Ciphertext, nil)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to open bundle")
	}
	return plaintext, nil
}
