package jobs

import (
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityTaskRoundTrip(t *testing.T) {
	at := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	task, opts, err := NewBookingExpireTask(77, at)
	require.NoError(t, err)

	assert.Equal(t, TypeBookingExpire, task.Type())
	assert.Len(t, opts, 4)

	p, err := ParseEntity(task)
	require.NoError(t, err)
	assert.Equal(t, uint(77), p.ID)
}

func TestParseEntityBadPayloadSkipsRetry(t *testing.T) {
	_, err := ParseEntity(asynq.NewTask(TypePayoutRelease, []byte("{")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}
