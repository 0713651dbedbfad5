package errors

import "fmt"

var (
	// ErrInvalidCredentials covers both an unknown username and a wrong
	// password. The two cases are deliberately not distinguished to avoid
	// username enumeration.
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	ErrUserAlreadyExists = fmt.Errorf("username already taken")
	ErrInvalidUsername   = fmt.Errorf("invalid username")
	ErrInvalidPassword   = fmt.Errorf("invalid password")
	ErrTokenGeneration   = fmt.Errorf("token generation failed")
	ErrTokenInvalid      = fmt.Errorf("token invalid or expired")

	// ErrNotAuthenticated is returned for commands that require an
	// authenticated session.
	ErrNotAuthenticated = fmt.Errorf("not authenticated")

	// ErrProtocol marks a malformed or out-of-state command.
	// It is recoverable: the session stays open.
	ErrProtocol = fmt.Errorf("protocol violation")

	// ErrSessionClosed is returned for any command after teardown.
	ErrSessionClosed = fmt.Errorf("session closed")

	// ErrSinkFull signals that a recipient's outbound buffer is saturated.
	// Delivery failures are swallowed by the hub and never reach the sender.
	ErrSinkFull = fmt.Errorf("outbound sink full")

	ErrWorkerPanic = fmt.Errorf("worker panic")
)
