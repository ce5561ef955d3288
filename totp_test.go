package adminauth

import (
	"encoding/base32"
	"strings"
	"testing"
	"time"
)

func TestTOTPVerifyRFCVectorsSHA1(t *testing.T) {
	m := newTOTPManager(TOTPConfig{
		Issuer:    "SnapMarket Admin",
		Digits:    8,
		Period:    30,
		Algorithm: "SHA1",
		Skew:      0,
	})
	secret := []byte("12345678901234567890")
	cases := []struct {
		ts   int64
		code string
	}{
		{59, "94287082"},
		{1111111109, "07081804"},
		{1111111111, "14050471"},
		{1234567890, "89005924"},
		{2000000000, "69279037"},
		{20000000000, "65353130"},
	}

	for _, tc := range cases {
		ok, _, err := m.VerifyCode(secret, tc.code, time.Unix(tc.ts, 0))
		if err != nil || !ok {
			t.Fatalf("SHA1 vector failed at t=%d, ok=%v err=%v", tc.ts, ok, err)
		}
	}
}

func TestTOTPVerifyRFCVectorsSHA256(t *testing.T) {
	m := newTOTPManager(TOTPConfig{
		Issuer:    "SnapMarket Admin",
		Digits:    8,
		Period:    30,
		Algorithm: "SHA256",
		Skew:      0,
	})
	secret := []byte("12345678901234567890123456789012")
	cases := []struct {
		ts   int64
		code string
	}{
		{59, "46119246"},
		{1111111109, "68084774"},
		{1111111111, "67062674"},
		{1234567890, "91819424"},
		{2000000000, "90698825"},
		{20000000000, "77737706"},
	}

	for _, tc := range cases {
		ok, _, err := m.VerifyCode(secret, tc.code, time.Unix(tc.ts, 0))
		if err != nil || !ok {
			t.Fatalf("SHA256 vector failed at t=%d, ok=%v err=%v", tc.ts, ok, err)
		}
	}
}

func TestTOTPVerifyRFCVectorsSHA512(t *testing.T) {
	m := newTOTPManager(TOTPConfig{
		Issuer:    "SnapMarket Admin",
		Digits:    8,
		Period:    30,
		Algorithm: "SHA512",
		Skew:      0,
	})
	secret := []byte("1234567890123456789012345678901234567890123456789012345678901234")
	cases := []struct {
		ts   int64
		code string
	}{
		{59, "90693936"},
		{1111111109, "25091201"},
		{1111111111, "99943326"},
		{1234567890, "93441116"},
		{2000000000, "38618901"},
		{20000000000, "47863826"},
	}

	for _, tc := range cases {
		ok, _, err := m.VerifyCode(secret, tc.code, time.Unix(tc.ts, 0))
		if err != nil || !ok {
			t.Fatalf("SHA512 vector failed at t=%d, ok=%v err=%v", tc.ts, ok, err)
		}
	}
}

func TestTOTPNormalizationToleratesWhitespaceOnly(t *testing.T) {
	m := newTOTPManager(TOTPConfig{
		Issuer:    "SnapMarket Admin",
		Digits:    6,
		Period:    30,
		Algorithm: "SHA1",
		Skew:      0,
	})
	secret := []byte("12345678901234567890")
	now := time.Unix(59, 0)

	// Base code at this step is 287082.
	accepted := []string{
		"287082",
		"287 082",
		" 287082 ",
		"\t287082\r\n",
	}
	for _, code := range accepted {
		ok, _, err := m.VerifyCode(secret, code, now)
		if err != nil || !ok {
			t.Fatalf("expected %q accepted, ok=%v err=%v", code, ok, err)
		}
	}

	rejected := []string{
		"",
		"28708",
		"2870822",
		"287O82",  // letter O poisons the input
		"287-082", // dashes are not whitespace
		"287.082",
		"abc123",
	}
	for _, code := range rejected {
		ok, _, err := m.VerifyCode(secret, code, now)
		if err != nil {
			t.Fatalf("malformed input must not error, %q gave %v", code, err)
		}
		if ok {
			t.Fatalf("expected %q rejected", code)
		}
	}
}

func TestTOTPSkewWindowBounds(t *testing.T) {
	m := newTOTPManager(TOTPConfig{
		Issuer:    "SnapMarket Admin",
		Digits:    6,
		Period:    30,
		Algorithm: "SHA1",
		Skew:      3,
	})
	secret := []byte("12345678901234567890")
	now := time.Unix(1234567890, 0)
	baseCounter := now.Unix() / 30

	for _, offset := range []int64{-3, -1, 0, 1, 3} {
		code, err := hotpCode(secret, baseCounter+offset, 6, "SHA1")
		if err != nil {
			t.Fatalf("hotpCode failed: %v", err)
		}
		ok, matched, err := m.VerifyCode(secret, code, now)
		if err != nil || !ok {
			t.Fatalf("offset %d: expected acceptance, ok=%v err=%v", offset, ok, err)
		}
		if matched != baseCounter+offset {
			t.Fatalf("offset %d: matched counter %d, want %d", offset, matched, baseCounter+offset)
		}
	}

	for _, offset := range []int64{-4, 4} {
		code, err := hotpCode(secret, baseCounter+offset, 6, "SHA1")
		if err != nil {
			t.Fatalf("hotpCode failed: %v", err)
		}
		if ok, _, _ := m.VerifyCode(secret, code, now); ok {
			t.Fatalf("offset %d: expected rejection outside the window", offset)
		}
	}
}

func TestTOTPZeroSkewIsExactStep(t *testing.T) {
	m := newTOTPManager(TOTPConfig{
		Issuer:    "SnapMarket Admin",
		Digits:    6,
		Period:    30,
		Algorithm: "SHA1",
		Skew:      0,
	})
	secret := []byte("12345678901234567890")
	now := time.Unix(1234567890, 0)
	baseCounter := now.Unix() / 30

	prev, err := hotpCode(secret, baseCounter-1, 6, "SHA1")
	if err != nil {
		t.Fatalf("hotpCode failed: %v", err)
	}
	if ok, _, _ := m.VerifyCode(secret, prev, now); ok {
		t.Fatal("skew 0 must not accept the previous step")
	}
}

func TestTOTPEmptySecretErrors(t *testing.T) {
	m := newTOTPManager(TOTPConfig{
		Issuer:    "SnapMarket Admin",
		Digits:    6,
		Period:    30,
		Algorithm: "SHA1",
		Skew:      0,
	})
	if _, _, err := m.VerifyCode(nil, "123456", time.Now()); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestTOTPGenerateSecretShape(t *testing.T) {
	m := newTOTPManager(TOTPConfig{
		Issuer:    "SnapMarket Admin",
		Digits:    6,
		Period:    30,
		Algorithm: "SHA1",
		Skew:      1,
	})

	raw, encoded, err := m.GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret failed: %v", err)
	}
	if len(raw) != totpSecretBytes {
		t.Fatalf("expected %d secret bytes, got %d", totpSecretBytes, len(raw))
	}
	if strings.Contains(encoded, "=") {
		t.Fatal("expected unpadded base32")
	}

	decoded, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(encoded)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if string(decoded) != string(raw) {
		t.Fatal("encoded secret does not round-trip")
	}

	_, second, err := m.GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret failed: %v", err)
	}
	if second == encoded {
		t.Fatal("expected distinct secrets per call")
	}
}

func TestTOTPProvisionURIFormat(t *testing.T) {
	m := newTOTPManager(TOTPConfig{
		Issuer:    "SnapMarket Admin",
		Digits:    6,
		Period:    30,
		Algorithm: "SHA1",
		Skew:      1,
	})

	uri := m.ProvisionURI("JBSWY3DPEHPK3PXP", "casey@snapmarket.example")
	if !strings.HasPrefix(uri, "otpauth://totp/") {
		t.Fatalf("expected otpauth scheme, got %s", uri)
	}
	for _, want := range []string{
		"secret=JBSWY3DPEHPK3PXP",
		"issuer=SnapMarket+Admin",
		"digits=6",
		"period=30",
		"algorithm=SHA1",
	} {
		if !strings.Contains(uri, want) {
			t.Fatalf("expected %q in URI %s", want, uri)
		}
	}
}
