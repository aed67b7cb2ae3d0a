package utils

import "time"

// =============================================================================
// Timeout Constants
// =============================================================================

const (
	// DefaultRequestTimeout bounds synchronous HTTP searches
	DefaultRequestTimeout = 60 * time.Second

	// ShutdownTimeout is how long running jobs get to stop on shutdown
	ShutdownTimeout = 30 * time.Second

	// QueueConnectTimeout is the timeout for establishing broker connections
	QueueConnectTimeout = 10 * time.Second
)

// =============================================================================
// Job Constants
// =============================================================================

const (
	// DefaultJobSubject is the queue subject carrying sweep jobs
	DefaultJobSubject = "udlc.jobs"

	// DefaultMemoryQueueBuffer is the per-subject buffer of the in-memory queue
	DefaultMemoryQueueBuffer = 1024
)

// =============================================================================
// Queue Type Constants
// =============================================================================

// QueueType represents the type of message queue
type QueueType string

const (
	// QueueTypeMemory represents in-memory queue (default, single process)
	QueueTypeMemory QueueType = "memory"

	// QueueTypeNATS represents NATS JetStream queue
	QueueTypeNATS QueueType = "nats"

	// QueueTypeRedis represents Redis Streams queue
	QueueTypeRedis QueueType = "redis"

	// QueueTypeKafka represents Apache Kafka queue
	QueueTypeKafka QueueType = "kafka"
)
