package repository

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLedgerMarkAndSeen(t *testing.T) {
	ledger := NewLedger(10)

	assert.False(t, ledger.Seen("m1"))
	ledger.MarkProcessed("m1")
	assert.True(t, ledger.Seen("m1"))

	// Remarking is a no-op
	ledger.MarkProcessed("m1")
	assert.True(t, ledger.Seen("m1"))
}

func TestLedgerEvictsOldestFirst(t *testing.T) {
	ledger := NewLedger(3)
	for i := 0; i < 3; i++ {
		ledger.MarkProcessed(fmt.Sprintf("m%d", i))
	}

	ledger.MarkProcessed("m3")

	assert.False(t, ledger.Seen("m0"), "oldest entry should be evicted")
	assert.True(t, ledger.Seen("m1"))
	assert.True(t, ledger.Seen("m2"))
	assert.True(t, ledger.Seen("m3"))
}

func TestLedgerZeroCapacityUsesDefault(t *testing.T) {
	ledger := NewLedger(0)
	for i := 0; i < DefaultLedgerCapacity; i++ {
		ledger.MarkProcessed(fmt.Sprintf("m%d", i))
	}
	assert.True(t, ledger.Seen("m0"))

	ledger.MarkProcessed("overflow")
	assert.False(t, ledger.Seen("m0"))
	assert.True(t, ledger.Seen("overflow"))
}

func TestLedgerChatKeysAreNamespaced(t *testing.T) {
	ledger := NewLedger(10)
	ledger.MarkProcessed("42")
	assert.False(t, ledger.Seen(ChatKeyPrefix+"42"), "chat ids must not collide with email ids")
}
