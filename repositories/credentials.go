package repositories

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"corpchat/errors"
)

// CredentialStore persists username -> password-hash records in a flat
// append-only file, one "username:hashHex" record per line. The full table
// is loaded into memory at startup; registrations append a single line.
//
// Credentials are never mutated in place and never deleted.
type CredentialStore struct {
	mu    sync.Mutex
	log   *slog.Logger
	path  string
	users map[string]string
}

func NewCredentialStore(log *slog.Logger, path string) *CredentialStore {
	return &CredentialStore{
		log:   log,
		path:  path,
		users: make(map[string]string),
	}
}

// Load reads all stored credentials into memory, creating the backing file
// if it does not exist yet. Malformed lines are skipped, not fatal: a
// partially written trailing record must not take the server down.
func (c *CredentialStore) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.OpenFile(c.path, os.O_RDONLY|os.O_CREATE, 0o600)
	if err != nil {
		return fmt.Errorf("opening credential store: %w", err)
	}
	defer f.Close()

	skipped := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			skipped++
			continue
		}
		c.users[parts[0]] = parts[1]
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading credential store: %w", err)
	}

	if skipped > 0 {
		c.log.Warn("Skipped malformed credential lines", "count", skipped)
	}
	c.log.Info("Credential store loaded", "users", len(c.users), "path", c.path)
	return nil
}

// Create inserts a credential if the username is absent. The existence
// check, the durable append and the in-memory insert all happen under one
// lock so that concurrent registrations of the same username cannot both
// succeed.
func (c *CredentialStore) Create(username, passwordHash string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.users[username]; exists {
		return errors.ErrUserAlreadyExists
	}

	if err := c.appendLine(username, passwordHash); err != nil {
		// Not inserted in memory either: the store stays consistent
		// with the file.
		return fmt.Errorf("persisting credential: %w", err)
	}

	c.users[username] = passwordHash
	c.log.Info("User registered", "username", username)
	return nil
}

// HashFor returns the stored hash for a username.
// An unknown username is not an error.
func (c *CredentialStore) HashFor(username string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	hash, ok := c.users[username]
	return hash, ok
}

// Count reports how many credentials are loaded.
func (c *CredentialStore) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.users)
}

func (c *CredentialStore) appendLine(username, passwordHash string) error {
	f, err := os.OpenFile(c.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s:%s\n", username, passwordHash); err != nil {
		return err
	}
	return f.Sync()
}
