package domain

// DefaultMaxRetries is the synthesis retry ceiling: the loop stops once RetryCount exceeds it.
const DefaultMaxRetries = 10

// Exact-literal classification tokens. Near misses ("yes", "Yes.") are not normalized.
const (
	// TokenAccept is the evaluator reply that accepts a script run.
	TokenAccept = "Yes"
	// TokenNoTool is the entry reply signalling that no scraper tool matches the site.
	TokenNoTool = "No"
)
