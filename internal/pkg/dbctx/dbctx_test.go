package dbctx

import (
	"context"
	"testing"

	"gorm.io/gorm"
)

func TestContext_TransactionPrefersOpenTx(t *testing.T) {
	fallback := &gorm.DB{}
	tx := &gorm.DB{}

	c := Context{Ctx: context.Background(), Tx: tx}
	if got := c.Transaction(fallback); got != tx {
		t.Fatalf("expected the open transaction to win")
	}

	c.Tx = nil
	if got := c.Transaction(fallback); got != fallback {
		t.Fatalf("expected fallback handle without a transaction")
	}
}
