package adminauth

import (
	"context"
	"encoding/base32"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/snapmarket/adminauth/authz"
)

type mockPrincipalStore struct {
	mu sync.Mutex

	principals   map[string]PrincipalRecord
	byIdentifier map[string]string
	mfa          map[string]MFARecord
	backupCodes  map[string][]BackupCodeRecord

	getMFAErr     error
	replaceMFAErr error
	consumeErr    error

	getByIdentifierCalls int
	getByIDCalls         int
	replaceMFACalls      int
	markConfirmedCalls   int
	consumeCalls         int
}

func newMockPrincipalStore() *mockPrincipalStore {
	return &mockPrincipalStore{
		principals:   map[string]PrincipalRecord{},
		byIdentifier: map[string]string{},
		mfa:          map[string]MFARecord{},
		backupCodes:  map[string][]BackupCodeRecord{},
	}
}

func (m *mockPrincipalStore) GetByIdentifier(_ context.Context, identifier string) (PrincipalRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getByIdentifierCalls++

	id, ok := m.byIdentifier[identifier]
	if !ok {
		return PrincipalRecord{}, errors.New("not found")
	}
	return m.principals[id], nil
}

func (m *mockPrincipalStore) GetByID(_ context.Context, principalID string) (PrincipalRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getByIDCalls++

	p, ok := m.principals[principalID]
	if !ok {
		return PrincipalRecord{}, errors.New("not found")
	}
	return p, nil
}

func (m *mockPrincipalStore) GetMFA(_ context.Context, principalID string) (MFARecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getMFAErr != nil {
		return MFARecord{}, m.getMFAErr
	}
	return m.mfa[principalID], nil
}

func (m *mockPrincipalStore) ReplaceMFA(_ context.Context, principalID string, record MFARecord, codes []BackupCodeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replaceMFACalls++

	if m.replaceMFAErr != nil {
		return m.replaceMFAErr
	}
	m.mfa[principalID] = record
	m.backupCodes[principalID] = append([]BackupCodeRecord(nil), codes...)
	return nil
}

func (m *mockPrincipalStore) MarkMFAConfirmed(_ context.Context, principalID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markConfirmedCalls++

	p, ok := m.principals[principalID]
	if !ok {
		return errors.New("not found")
	}
	p.MFAEnabled = true
	m.principals[principalID] = p
	return nil
}

func (m *mockPrincipalStore) ConsumeBackupCode(_ context.Context, principalID string, hash [32]byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.consumeCalls++

	if m.consumeErr != nil {
		return false, m.consumeErr
	}

	codes := m.backupCodes[principalID]
	for i, c := range codes {
		if c.Hash == hash {
			m.backupCodes[principalID] = append(codes[:i], codes[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *mockPrincipalStore) seed(p PrincipalRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.principals[p.PrincipalID] = p
	m.byIdentifier[p.Identifier] = p.PrincipalID
}

func (m *mockPrincipalStore) remainingBackupCodes(principalID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.backupCodes[principalID])
}

type mockRoleDirectory struct {
	mu     sync.Mutex
	grants map[string]authz.GrantSet
	err    error
	calls  int
}

func newMockRoleDirectory() *mockRoleDirectory {
	return &mockRoleDirectory{grants: map[string]authz.GrantSet{}}
}

func (m *mockRoleDirectory) GrantsForRole(_ context.Context, roleID string) (authz.GrantSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if m.err != nil {
		return authz.GrantSet{}, m.err
	}
	set, ok := m.grants[roleID]
	if !ok {
		return authz.GrantSet{}, ErrRoleNotFound
	}
	return set, nil
}

func (m *mockRoleDirectory) setRole(roleID string, rows []authz.Grant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grants[roleID] = authz.NewGrantSet(rows)
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, rdb
}

func testConfig() Config {
	cfg := defaultConfig()
	cfg.JWT.PrivateKey = []byte("test-secret")
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	return cfg
}

func newTestEngine(t *testing.T, cfg Config, store *mockPrincipalStore, roles *mockRoleDirectory) (*Engine, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, rdb := newTestRedis(t)

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithPrincipalStore(store).
		WithRoleDirectory(roles).
		Build()
	if err != nil {
		mr.Close()
		t.Fatalf("Build failed: %v", err)
	}

	return engine, mr, func() {
		engine.Close()
		_ = rdb.Close()
		mr.Close()
	}
}

func seedActivePrincipal(t *testing.T, engine *Engine, store *mockPrincipalStore, principalID, identifier, plaintext string) {
	t.Helper()

	hash, err := engine.passwordHash.Hash(plaintext)
	if err != nil {
		t.Fatalf("hash seed password: %v", err)
	}
	store.seed(PrincipalRecord{
		PrincipalID:  principalID,
		Identifier:   identifier,
		PasswordHash: hash,
		Active:       true,
		RoleID:       "ops",
	})
}

func codeForNow(t *testing.T, secretBase32 string, cfg TOTPConfig) string {
	t.Helper()
	return codeForOffset(t, secretBase32, cfg, 0)
}

func codeForOffset(t *testing.T, secretBase32 string, cfg TOTPConfig, offset int64) string {
	t.Helper()

	key, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.ToUpper(secretBase32))
	if err != nil {
		t.Fatalf("decode secret failed: %v", err)
	}
	counter := (time.Now().Unix() / int64(cfg.Period)) + offset
	code, err := hotpCode(key, counter, cfg.Digits, cfg.Algorithm)
	if err != nil {
		t.Fatalf("hotpCode failed: %v", err)
	}
	return code
}

// enrollPrincipal walks the full setup branch for a seeded principal and
// returns the confirmed secret plus the one-time backup codes.
func enrollPrincipal(t *testing.T, engine *Engine, cfg Config, identifier, plaintext string) (string, []string) {
	t.Helper()

	result, err := engine.Login(context.Background(), identifier, plaintext)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if result.Status != StatusMFASetupRequired || result.Setup == nil {
		t.Fatalf("expected setup branch, got %+v", result)
	}

	code := codeForNow(t, result.Setup.SecretBase32, cfg.TOTP)
	confirmed, err := engine.VerifySetup(context.Background(), result.PendingID, code)
	if err != nil {
		t.Fatalf("VerifySetup failed: %v", err)
	}
	if confirmed.Status != StatusAuthenticated || confirmed.Setup == nil {
		t.Fatalf("expected authenticated setup result, got %+v", confirmed)
	}
	return result.Setup.SecretBase32, confirmed.Setup.BackupCodes
}
