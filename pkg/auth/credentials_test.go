package auth

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCredentialManager(t *testing.T) {
	// Use mock manager for reliable testing
	manager, mockStore := NewMockManager()

	account := &Account{
		Username:     "testuser",
		APIKey:       "test_api_key_1234567890",
		LastModified: time.Now(),
	}

	err := manager.Store(account)
	if err != nil {
		t.Errorf("Failed to store account: %v", err)
	}

	retrieved, err := manager.Retrieve("testuser")
	if err != nil {
		t.Fatalf("Failed to retrieve account: %v", err)
	}

	if retrieved.Username != account.Username {
		t.Errorf("Username mismatch: got %s, want %s", retrieved.Username, account.Username)
	}
	if retrieved.APIKey != account.APIKey {
		t.Errorf("APIKey mismatch: got %s, want %s", retrieved.APIKey, account.APIKey)
	}

	accounts, err := manager.List()
	if err != nil {
		t.Errorf("Failed to list accounts: %v", err)
	}
	if len(accounts) == 0 {
		t.Error("Expected at least one account in list")
	}

	sanitized := SanitizeAccount(account)
	if sanitized.APIKey == account.APIKey {
		t.Error("APIKey should be masked")
	}
	if sanitized.Username != account.Username {
		t.Error("Username should not be masked")
	}

	err = manager.Delete("testuser")
	if err != nil {
		t.Errorf("Failed to delete account: %v", err)
	}

	_, err = manager.Retrieve("testuser")
	if err == nil {
		t.Error("Expected error retrieving deleted account")
	}

	if mockStore.Count() != 0 {
		t.Errorf("Expected 0 accounts after deletion, got %d", mockStore.Count())
	}
}

func TestManagerRejectsIncompleteAccounts(t *testing.T) {
	manager, _ := NewMockManager()

	if err := manager.Store(&Account{APIKey: "key_only"}); err == nil {
		t.Error("Expected error storing account without username")
	}
	if err := manager.Store(&Account{Username: "user_only"}); err == nil {
		t.Error("Expected error storing account without API key")
	}
}

func TestEncryptedFileStore(t *testing.T) {
	tempFile := filepath.Join(t.TempDir(), "test_creds.enc")

	os.Setenv("BOORUFETCH_PASSPHRASE", "test_passphrase_123")
	defer os.Unsetenv("BOORUFETCH_PASSPHRASE")

	store, err := NewEncryptedFileStore(tempFile)
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	account := &Account{
		Username:     "encrypteduser",
		APIKey:       "encrypted_api_key_0987654321",
		LastModified: time.Now(),
	}

	if err := store.Store(account); err != nil {
		t.Fatalf("Failed to store account: %v", err)
	}

	retrieved, err := store.Retrieve("encrypteduser")
	if err != nil {
		t.Fatalf("Failed to retrieve account: %v", err)
	}
	if retrieved.APIKey != account.APIKey {
		t.Errorf("APIKey mismatch after decrypt: got %s, want %s", retrieved.APIKey, account.APIKey)
	}

	// The file on disk must not contain the plaintext key
	content, err := os.ReadFile(tempFile)
	if err != nil {
		t.Fatalf("Failed to read store file: %v", err)
	}
	if bytes.Contains(content, []byte(account.APIKey)) {
		t.Error("Encrypted file contains the plaintext API key")
	}

	// A second store with the same passphrase reads the same data
	reopened, err := NewEncryptedFileStore(tempFile)
	if err != nil {
		t.Fatalf("Failed to reopen encrypted store: %v", err)
	}
	if !reopened.Exists("encrypteduser") {
		t.Error("Reopened store should see the stored account")
	}

	if err := store.Delete("encrypteduser"); err != nil {
		t.Errorf("Failed to delete account: %v", err)
	}
	if _, err := os.Stat(tempFile); !os.IsNotExist(err) {
		t.Error("Store file should be removed once the last account is deleted")
	}
}

func TestEnvironmentStore(t *testing.T) {
	os.Setenv("BOORUFETCH_USERNAME", "envuser")
	os.Setenv("BOORUFETCH_API_KEY", "env_api_key")
	defer os.Unsetenv("BOORUFETCH_USERNAME")
	defer os.Unsetenv("BOORUFETCH_API_KEY")

	store := NewEnvironmentStore()

	account, err := store.Retrieve("")
	if err != nil {
		t.Fatalf("Failed to retrieve from environment: %v", err)
	}
	if account.Username != "envuser" || account.APIKey != "env_api_key" {
		t.Errorf("Unexpected account from environment: %+v", account)
	}

	if _, err := store.Retrieve("someoneelse"); err == nil {
		t.Error("Expected mismatched username to fail")
	}

	if err := store.Store(account); err == nil {
		t.Error("Environment store should not accept writes")
	}
}

func TestManagerFallbackAcrossStores(t *testing.T) {
	failing := NewMockStore()
	failing.StoreError = ErrStoreUnavailable
	failing.RetrieveError = ErrStoreUnavailable
	working := NewMockStore()

	manager := NewMockManagerWithStores(failing, working)

	account := &Account{Username: "fallbackuser", APIKey: "fallback_key_123"}
	if err := manager.Store(account); err != nil {
		t.Fatalf("Store should fall through to the working backend: %v", err)
	}

	retrieved, err := manager.Retrieve("fallbackuser")
	if err != nil {
		t.Fatalf("Retrieve should fall through to the working backend: %v", err)
	}
	if retrieved.APIKey != account.APIKey {
		t.Errorf("APIKey mismatch: got %s, want %s", retrieved.APIKey, account.APIKey)
	}
}

func TestMaskString(t *testing.T) {
	if masked := maskString("short"); masked != "********" {
		t.Errorf("Short strings should be fully masked, got %s", masked)
	}
	masked := maskString("abcdefghijklmnop")
	if masked != "abcd...mnop" {
		t.Errorf("Unexpected mask: %s", masked)
	}
}
