package stroming_test

import (
	"context"
	"errors"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/terraskye/stroming"
	"github.com/terraskye/stroming/fixtures"
	"github.com/terraskye/stroming/streamstore/memory"
)

func zeroBackOff() backoff.BackOff { return &backoff.ZeroBackOff{} }

func TestWriteWithRetryResolvesConflicts(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	defer store.Close()

	competing := 2
	decide := func(version stroming.StreamVersion, messages []stroming.Message) ([]stroming.MessageData, error) {
		if competing > 0 {
			// Another writer sneaks in between our read and our write.
			competing--
			_, err := store.WriteToStream(ctx, "counter", version, fixtures.Messages("Competitor"))
			require.NoError(t, err)
		}
		return fixtures.Messages("Incremented"), nil
	}

	pos, err := stroming.WriteWithRetry(ctx, store, "counter", decide, stroming.WithBackOff(zeroBackOff))
	require.NoError(t, err)
	assert.Equal(t, stroming.Position{GlobalPosition: 2, Revision: 2}, pos)

	_, messages, err := store.ReadFromStream(ctx, "counter", stroming.Forwards)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "Incremented", messages[2].MessageType)
}

func TestWriteWithRetryGivesUp(t *testing.T) {
	store := fixtures.ConflictingStore(stroming.Revision(9))
	decide := func(stroming.StreamVersion, []stroming.Message) ([]stroming.MessageData, error) {
		return fixtures.Messages("Never"), nil
	}

	_, err := stroming.WriteWithRetry(context.Background(), store, "s", decide,
		stroming.WithBackOff(zeroBackOff), stroming.WithMaxRetries(3))
	require.ErrorIs(t, err, stroming.ErrWrongExpectedVersion)
	assert.Equal(t, 4, store.WriteCalls)
}

func TestWriteWithRetryStopsOnDecisionError(t *testing.T) {
	store := fixtures.NewStoreSpy()
	rejected := errors.New("order already shipped")
	decide := func(stroming.StreamVersion, []stroming.Message) ([]stroming.MessageData, error) {
		return nil, rejected
	}

	_, err := stroming.WriteWithRetry(context.Background(), store, "s", decide, stroming.WithBackOff(zeroBackOff))
	require.ErrorIs(t, err, rejected)
	assert.Equal(t, 1, store.ReadCalls)
	assert.Equal(t, 0, store.WriteCalls)
}

func TestWriteWithRetryStopsOnStoreError(t *testing.T) {
	store := fixtures.FailingStore(stroming.ErrStoreClosed)
	decide := func(stroming.StreamVersion, []stroming.Message) ([]stroming.MessageData, error) {
		return fixtures.Messages("A"), nil
	}

	_, err := stroming.WriteWithRetry(context.Background(), store, "s", decide, stroming.WithBackOff(zeroBackOff))
	require.ErrorIs(t, err, stroming.ErrStoreClosed)
	assert.Equal(t, 1, store.ReadCalls)
}
