package utils

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var idCounter uint64

// GenerateID generates a unique timestamp+counter ID, used as a fallback
// when uuid generation is unavailable.
func GenerateID() string {
	count := atomic.AddUint64(&idCounter, 1)
	timestamp := time.Now().UnixNano()
	return fmt.Sprintf("%x-%x", timestamp, count)
}

// GenerateRunID generates a run ID with a timestamp prefix and a short
// uuid suffix.
func GenerateRunID() string {
	timestamp := time.Now().Format("20060102-150405")
	u, err := uuid.NewRandom()
	if err != nil {
		return fmt.Sprintf("run-%s-%s", timestamp, GenerateID())
	}
	return fmt.Sprintf("run-%s-%s", timestamp, u.String()[:8])
}
