package config

import "time"

// Well-known state names. The set is open: the storage layer accepts any
// non-empty name, these are the ones the bundled worker writes.
const (
	StateEnqueued   = "Enqueued"
	StateProcessing = "Processing"
	StateSucceeded  = "Succeeded"
	StateFailed     = "Failed"
	StateDeleted    = "Deleted"
)

// Parameter names the worker maintains on each job.
const (
	ParamRetryCount = "RetryCount"
)

const (
	DefaultQueue        = "default"
	DefaultLeaseTimeout = 30 * time.Minute
	DefaultPageSize     = 20
	MaxPageSize         = 1000
)
