package domain

import "errors"

// Collaborator faults.
var (
	// ErrModelUnavailable is returned when the model backend cannot be reached or rejects credentials.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrMalformedReply is returned when a model reply calls a tool that was not declared.
	ErrMalformedReply = errors.New("malformed model reply")

	// ErrUnknownTool is returned when a tool name is not registered.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrToolExecution wraps any fault raised by a tool capability.
	ErrToolExecution = errors.New("tool execution failed")
)

// Graph misconfiguration. These are programmer errors and are never retried.
var (
	// ErrUnreachableNode is returned when an edge or router names an unregistered node.
	ErrUnreachableNode = errors.New("unreachable node")

	// ErrStepLimitExceeded is returned when a run hits the step ceiling before reaching Terminal.
	ErrStepLimitExceeded = errors.New("step limit exceeded")

	// ErrHistoryRewritten is returned when a node deletes or mutates existing messages.
	ErrHistoryRewritten = errors.New("message history rewritten")
)

// Run management.
var (
	// ErrUnknownSite is returned when a site identifier is missing from the registry.
	ErrUnknownSite = errors.New("unknown site")

	// ErrRunNotFound is returned when a run ID cannot be found in the store.
	ErrRunNotFound = errors.New("run not found")

	// ErrSiteLocked is returned when another run already holds the site.
	ErrSiteLocked = errors.New("site is locked by another run")
)

// Request validation.
var (
	// ErrRequestTooLarge is returned when a seeded human request exceeds MaxRequestSize.
	ErrRequestTooLarge = errors.New("request exceeds maximum allowed size")

	// ErrInvalidUTF8 is returned when a seeded human request is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("request contains invalid UTF-8 sequences")
)
