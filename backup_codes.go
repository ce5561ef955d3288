package adminauth

import (
	"crypto/rand"
	"crypto/sha256"
	"math/big"
	"strings"
)

// backupCodeAlphabet omits I, O, 0, and 1 so transcribed codes cannot be
// ambiguous.
const backupCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func newBackupCode(length int) (string, error) {
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := cryptoRandomIndex(len(backupCodeAlphabet))
		if err != nil {
			return "", err
		}
		b.WriteByte(backupCodeAlphabet[n])
	}
	return b.String(), nil
}

// formatBackupCode inserts a midpoint dash for display. Canonicalization
// removes it again before hashing.
func formatBackupCode(code string) string {
	n := len(code)
	if n < 8 {
		return code
	}
	mid := n / 2
	return code[:mid] + "-" + code[mid:]
}

func canonicalizeBackupCode(code string) string {
	s := strings.ToUpper(strings.TrimSpace(code))
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, " ", "")
	return s
}

// backupCodeHash binds the digest to the principal so identical codes
// issued to different principals never collide in storage.
func backupCodeHash(principalID, canonicalCode string) [32]byte {
	data := make([]byte, 0, len(principalID)+1+len(canonicalCode))
	data = append(data, principalID...)
	data = append(data, 0)
	data = append(data, canonicalCode...)
	return sha256.Sum256(data)
}

// generateBackupCodes returns count fresh codes, unique within the batch,
// alongside their storage records.
func generateBackupCodes(principalID string, count, length int) ([]string, []BackupCodeRecord, error) {
	codes := make([]string, 0, count)
	records := make([]BackupCodeRecord, 0, count)
	seen := make(map[string]struct{}, count)

	for len(codes) < count {
		raw, err := newBackupCode(length)
		if err != nil {
			return nil, nil, err
		}
		canonical := canonicalizeBackupCode(raw)
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		codes = append(codes, formatBackupCode(raw))
		records = append(records, BackupCodeRecord{Hash: backupCodeHash(principalID, canonical)})
	}

	return codes, records, nil
}

func cryptoRandomIndex(max int) (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()), nil
}
