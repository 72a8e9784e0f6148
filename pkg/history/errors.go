package history

import "errors"

// Ingestion errors
var (
	ErrNoQubits    = errors.New("dataset declares zero qubits")
	ErrNilDataset  = errors.New("dataset cannot be nil")
	ErrInvalidBase = errors.New("decay base must be greater than 1")
	ErrQueueClosed = errors.New("history task queue is closed")
)
