package store_test

import (
	"os"
	"path/filepath"
	"testing"

	"sibank/internal/domain"
	"sibank/internal/protocol/trust"
	"sibank/internal/store"
)

var testKDF = store.ScryptParams{N: 1 << 10, R: 8, P: 1}

func TestServerKey_SaveLoad_OK(t *testing.T) {
	home := t.TempDir()
	var keys domain.ServerKeyStore = store.NewServerKeyFileStore(home, testKDF)

	if _, ok, err := keys.LoadServerIdentity("pass"); err != nil || ok {
		t.Fatalf("empty store: ok=%v err=%v", ok, err)
	}

	anchor, err := trust.Generate(trust.DefaultIdentity)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	id := anchor.ServerIdentity()
	if err := keys.SaveServerIdentity("pass", id); err != nil {
		t.Fatalf("save identity: %v", err)
	}

	got, ok, err := keys.LoadServerIdentity("pass")
	if err != nil || !ok {
		t.Fatalf("load identity: ok=%v err=%v", ok, err)
	}
	if got != id {
		t.Fatal("mismatch after load")
	}

	raw, err := os.ReadFile(filepath.Join(home, "server_key.enc"))
	if err != nil {
		t.Fatalf("read key file: %v", err)
	}
	info, err := os.Stat(filepath.Join(home, "server_key.enc"))
	if err != nil {
		t.Fatalf("stat key file: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("key file mode %v", info.Mode().Perm())
	}
	if containsBytes(raw, id.EdPriv[:32]) {
		t.Fatal("key file contains the plaintext seed")
	}
}

func TestServerKey_WrongPassphrase_Fails(t *testing.T) {
	home := t.TempDir()
	keys := store.NewServerKeyFileStore(home, testKDF)

	anchor, err := trust.Generate(trust.DefaultIdentity)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if err := keys.SaveServerIdentity("correct", anchor.ServerIdentity()); err != nil {
		t.Fatalf("save identity: %v", err)
	}
	if _, _, err := keys.LoadServerIdentity("wrong"); err == nil {
		t.Fatal("expected error with wrong passphrase")
	}
}

func TestKnownServers_Pin(t *testing.T) {
	home := t.TempDir()
	pins := store.NewKnownServerFileStore(home)

	if _, ok, err := pins.PinnedServer("bank"); err != nil || ok {
		t.Fatalf("empty store: ok=%v err=%v", ok, err)
	}
	if err := pins.PinServer("bank", "aabbcc"); err != nil {
		t.Fatalf("pin: %v", err)
	}

	// A fresh handle sees the persisted pin.
	fp, ok, err := store.NewKnownServerFileStore(home).PinnedServer("bank")
	if err != nil || !ok || fp != "aabbcc" {
		t.Fatalf("pinned = %q, %v, %v", fp, ok, err)
	}
}

func containsBytes(haystack, needle []byte) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if string(haystack[i:i+len(needle)]) == string(needle) {
			return true
		}
	}
	return false
}
