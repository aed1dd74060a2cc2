// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CampusLink Contributors

package store

import "github.com/google/uuid"

// Ack reports the outcome of a write against the store.
//
// In degraded mode writes are acknowledged without touching real state.
// The InsertedID of a degraded acknowledgment is a locally generated
// placeholder: callers must treat it as non-durable, and a subsequent
// read is not guaranteed to find the document.
type Ack struct {
	Acknowledged bool
	InsertedID   string
	Degraded     bool
}

// AckFor returns a normal acknowledgment for a persisted identifier.
func AckFor(id string) Ack {
	return Ack{Acknowledged: true, InsertedID: id}
}

// DegradedAck returns a synthetic acknowledgment with a placeholder id.
func DegradedAck() Ack {
	return Ack{Acknowledged: true, InsertedID: uuid.NewString(), Degraded: true}
}
