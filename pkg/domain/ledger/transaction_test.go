package ledger_test

import (
	"strings"
	"testing"

	"github.com/amirasaad/masroofy/pkg/domain"
	"github.com/amirasaad/masroofy/pkg/domain/ledger"
	"github.com/amirasaad/masroofy/pkg/money"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeposit(t *testing.T) {
	g := uuid.New()
	tx, err := ledger.NewDeposit(g, 50000, "Wallet top-up")
	require.NoError(t, err)
	assert.Equal(t, ledger.KindDeposit, tx.Kind)
	assert.Nil(t, tx.SenderID)
	assert.True(t, tx.IsReceiver(g))
	assert.Equal(t, ledger.DirectionIncoming, tx.DirectionFor(g))
	assert.Equal(t, money.Amount(50000), tx.DeltaFor(g))
}

func TestNewTransfer(t *testing.T) {
	g, d := uuid.New(), uuid.New()
	tx, err := ledger.NewTransfer(g, d, 20000, "Allowance transfer to kid")
	require.NoError(t, err)
	assert.Equal(t, ledger.DirectionOutgoing, tx.DirectionFor(g))
	assert.Equal(t, ledger.DirectionIncoming, tx.DirectionFor(d))
	assert.Equal(t, money.Amount(-20000), tx.DeltaFor(g))
	assert.Equal(t, money.Amount(20000), tx.DeltaFor(d))
	assert.Zero(t, tx.DeltaFor(uuid.New()))

	_, err = ledger.NewTransfer(g, g, 100, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNewExpense(t *testing.T) {
	s := uuid.New()
	tx, err := ledger.NewExpense(s, 5000, "  lunch ")
	require.NoError(t, err)
	assert.Equal(t, "lunch", tx.Description)
	assert.Nil(t, tx.ReceiverID)
	assert.Equal(t, ledger.DirectionOutgoing, tx.DirectionFor(s))

	_, err = ledger.NewExpense(s, 5000, "   ")
	assert.ErrorIs(t, err, domain.ErrMissingDescription)

	_, err = ledger.NewExpense(s, 5000, strings.Repeat("x", ledger.MaxDescriptionLength+1))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNonPositiveAmount(t *testing.T) {
	_, err := ledger.NewDeposit(uuid.New(), 0, "")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	_, err = ledger.NewExpense(uuid.New(), -1, "snack")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestParseFilter(t *testing.T) {
	for in, want := range map[string]ledger.Filter{
		"":        ledger.FilterNone,
		"all":     ledger.FilterNone,
		"income":  ledger.FilterIncome,
		"EXPENSE": ledger.FilterExpense,
	} {
		got, err := ledger.ParseFilter(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ledger.ParseFilter("transfer")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
