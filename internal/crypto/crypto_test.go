package crypto_test

import (
	"bytes"
	"testing"

	"sibank/internal/crypto"
	"sibank/internal/domain"
)

var testParams = crypto.PasswordParams{Time: 1, Memory: 1024, Threads: 1, SaltLen: 16, KeyLen: 32}

func TestDHAgreement(t *testing.T) {
	aPriv, aPub, err := crypto.GenerateX25519()
	if err != nil {
		t.Fatalf("GenerateX25519: %v", err)
	}
	bPriv, bPub, err := crypto.GenerateX25519()
	if err != nil {
		t.Fatalf("GenerateX25519: %v", err)
	}
	ab, err := crypto.DH(aPriv, bPub)
	if err != nil {
		t.Fatalf("DH: %v", err)
	}
	ba, err := crypto.DH(bPriv, aPub)
	if err != nil {
		t.Fatalf("DH: %v", err)
	}
	if ab != ba {
		t.Fatal("shared secrets differ")
	}
}

func TestDHRejectsLowOrderPoint(t *testing.T) {
	priv, _, err := crypto.GenerateX25519()
	if err != nil {
		t.Fatalf("GenerateX25519: %v", err)
	}
	if _, err := crypto.DH(priv, domain.X25519Public{}); err == nil {
		t.Fatal("expected error for all-zero point")
	}
}

func TestSignVerify(t *testing.T) {
	priv, pub, err := crypto.GenerateEd25519()
	if err != nil {
		t.Fatalf("GenerateEd25519: %v", err)
	}
	msg := []byte("simple-internet-banking-server")
	sig := crypto.SignEd25519(priv, msg)
	if !crypto.VerifyEd25519(pub[:], msg, sig) {
		t.Fatal("signature did not verify")
	}
	if crypto.VerifyEd25519(pub[:], []byte("other"), sig) {
		t.Fatal("signature verified over wrong message")
	}
	if crypto.VerifyEd25519(pub[:5], msg, sig) {
		t.Fatal("short key verified")
	}
}

func TestFingerprintStable(t *testing.T) {
	a := crypto.Fingerprint([]byte("key"))
	b := crypto.Fingerprint([]byte("key"))
	if a != b || len(a) != 20 {
		t.Fatalf("unexpected fingerprints %q %q", a, b)
	}
	if a == crypto.Fingerprint([]byte("other")) {
		t.Fatal("different keys share a fingerprint")
	}
}

func TestPasswordHashing(t *testing.T) {
	encoded, err := crypto.HashPassword("hunter2", testParams)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if bytes.Contains([]byte(encoded), []byte("hunter2")) {
		t.Fatal("hash contains the password")
	}

	ok, err := crypto.VerifyPassword("hunter2", encoded)
	if err != nil || !ok {
		t.Fatalf("VerifyPassword(correct) = %v, %v", ok, err)
	}
	ok, err = crypto.VerifyPassword("hunter3", encoded)
	if err != nil || ok {
		t.Fatalf("VerifyPassword(wrong) = %v, %v", ok, err)
	}

	again, err := crypto.HashPassword("hunter2", testParams)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if again == encoded {
		t.Fatal("salts were reused")
	}
}

func TestVerifyPasswordMalformed(t *testing.T) {
	for _, encoded := range []string{
		"",
		"plain",
		"$argon2i$v=19$m=1,t=1,p=1$AA$AA",
		"$argon2id$v=19$m=x,t=1,p=1$AA$AA",
		"$argon2id$v=19$m=1024,t=1,p=1$!!$AA",
	} {
		if _, err := crypto.VerifyPassword("pw", encoded); err == nil {
			t.Errorf("VerifyPassword(%q): expected error", encoded)
		}
	}
}
