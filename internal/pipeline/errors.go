package pipeline

import "errors"

// Precondition failures; the text is what the item shows.
var (
	ErrNotVerified    = errors.New("API Key is not verified")
	ErrMissingKey     = errors.New("API Key is not set")
	ErrInCatalog      = errors.New("File does already exist in the database")
	ErrDuplicateInRun = errors.New("File is already queued in this batch")
	ErrWrongType      = errors.New("File is not an mp3 file")
)

// Stage failures wrap the underlying cause.
var (
	ErrSave       = errors.New("File could not be saved")
	ErrTranscript = errors.New("Transcript could not be created")
	ErrSummary    = errors.New("Summary could not be created")
	ErrDuration   = errors.New("Audio duration could not be determined")
)

// Batch-level outcomes.
var (
	ErrDismissed    = errors.New("batch dismissed")
	ErrBatchRunning = errors.New("batch already running")
	ErrNoBatch      = errors.New("no batch")

	errDismissedInFlight = errors.New("Batch was dismissed")
)
