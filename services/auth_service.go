package services

import (
	"fmt"

	"corpchat/auth"
	"corpchat/contract"
	"corpchat/errors"
)

// AuthService owns credential verification and creation. The repository
// below it deals in hashes only; hashing happens here so plain passwords
// never reach the storage layer.
type AuthService struct {
	store  contract.ICredentialStore
	hasher auth.Hasher
	tokens *auth.TokenIssuer
}

func NewAuthService(store contract.ICredentialStore, hasher auth.Hasher,
	tokens *auth.TokenIssuer) *AuthService {
	return &AuthService{store: store, hasher: hasher, tokens: tokens}
}

// Register creates a credential. It does not log the user in.
func (s *AuthService) Register(username, password string) error {
	valReq := auth.RegisterRequest{
		Username: username,
		Password: password,
	}

	// Business rules first, before any cryptographic work.
	if err := auth.ValidateRegister(valReq); err != nil {
		return err
	}

	hashedPassword, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hashing failed: %w", err)
	}

	// Propagates ErrUserAlreadyExists if the username is taken.
	return s.store.Create(username, hashedPassword)
}

// Login verifies the password against the stored hash and issues a resume
// token. An unknown username and a wrong password produce the same error.
func (s *AuthService) Login(username, password string) (string, error) {
	storedHash, ok := s.store.HashFor(username)
	if !ok {
		return "", errors.ErrInvalidCredentials
	}

	match, err := s.hasher.Compare(password, storedHash)
	if err != nil || !match {
		return "", errors.ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(username)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}
	return token, nil
}

// Resume validates a token issued by Login and returns the username it is
// bound to. The credential must still exist.
func (s *AuthService) Resume(token string) (string, error) {
	username, err := s.tokens.Validate(token)
	if err != nil {
		return "", err
	}
	if _, ok := s.store.HashFor(username); !ok {
		return "", errors.ErrTokenInvalid
	}
	return username, nil
}
