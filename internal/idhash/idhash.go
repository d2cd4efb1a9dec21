// Package idhash derives deterministic identifiers with SHA-256.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"solana-autotrader/internal/domain"
)

// ComputeOutcomeID identifies a trade outcome.
// Formula: SHA256(agent|strategy|signal|unix_nanos|seq)
// seq disambiguates outcomes recorded within the same clock tick.
// Returns hex-encoded hash (64 characters).
func ComputeOutcomeID(agentID, strategyID string, signal domain.Signal, ts time.Time, seq uint64) string {
	data := fmt.Sprintf("%s|%s|%s|%d|%d",
		agentID,
		strategyID,
		string(signal),
		ts.UnixNano(),
		seq,
	)
	return sum(data)
}

// ComputeOpportunityID identifies an opportunity by mint and pool creation
// time, so repeated sightings of one pool share an id.
// Formula: SHA256(mint|pool_created_unix_ms)
func ComputeOpportunityID(mint string, poolCreated time.Time) string {
	var created int64
	if !poolCreated.IsZero() {
		created = poolCreated.UnixMilli()
	}
	return sum(fmt.Sprintf("%s|%d", mint, created))
}

func sum(data string) string {
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
