package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var allStatuses = []Status{
	StatusPending, StatusConfirmed, StatusOutForDelivery,
	StatusDelivered, StatusCancelled, StatusRejected,
}

func TestCanTransition(t *testing.T) {
	allowed := map[Status][]Status{
		StatusPending:        {StatusConfirmed, StatusOutForDelivery, StatusDelivered, StatusCancelled, StatusRejected},
		StatusConfirmed:      {StatusOutForDelivery, StatusDelivered, StatusCancelled},
		StatusOutForDelivery: {StatusDelivered},
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}

	assert.False(t, CanTransition("shipped", StatusDelivered))
	assert.False(t, CanTransition(StatusPending, "shipped"))
}

func TestCanTransition_ReachabilityShrinks(t *testing.T) {
	// Anything reachable from a later forward status is reachable from an
	// earlier one, so a stale cached status never refuses a valid request.
	for i, earlier := range forward {
		for _, later := range forward[i+1:] {
			for _, to := range allStatuses {
				if CanTransition(later, to) {
					assert.True(t, CanTransition(earlier, to), "%s reachable from %s but not %s", to, later, earlier)
				}
			}
		}
	}
}

func TestStatusSteps(t *testing.T) {
	t.Run("Confirmed", func(t *testing.T) {
		steps := StatusSteps(StatusConfirmed)
		assert.Len(t, steps, 4)
		assert.True(t, steps[0].Completed)
		assert.True(t, steps[1].Completed)
		assert.True(t, steps[1].Current)
		assert.False(t, steps[2].Completed)
		assert.False(t, steps[3].Completed)
	})

	t.Run("Delivered completes everything", func(t *testing.T) {
		for _, s := range StatusSteps(StatusDelivered) {
			assert.True(t, s.Completed, s.Status)
		}
	})

	t.Run("Monotonic for every forward status", func(t *testing.T) {
		for _, current := range forward {
			steps := StatusSteps(current)
			seenIncomplete := false
			for _, s := range steps {
				if !s.Completed {
					seenIncomplete = true
				}
				assert.False(t, seenIncomplete && s.Completed, "%s: later step completed after incomplete one", current)
			}
		}
	})

	t.Run("Cancelled short-circuits", func(t *testing.T) {
		steps := StatusSteps(StatusCancelled)
		assert.Equal(t, []Step{
			{Status: StatusPending, Label: "Pending", Completed: true},
			{Status: StatusCancelled, Label: "Cancelled", Completed: true, Current: true, Failed: true},
		}, steps)
	})

	t.Run("Unknown status completes nothing", func(t *testing.T) {
		for _, s := range StatusSteps("lost") {
			assert.False(t, s.Completed)
			assert.False(t, s.Current)
		}
	})
}

func TestOrder_Steps(t *testing.T) {
	now := time.Now()

	t.Run("Cancelled after confirmation", func(t *testing.T) {
		o := &Order{Status: StatusCancelled, StatusHistory: []StatusChange{
			{Status: StatusPending, Timestamp: now},
			{Status: StatusConfirmed, Timestamp: now.Add(time.Minute)},
			{Status: StatusCancelled, Timestamp: now.Add(2 * time.Minute)},
		}}

		steps := o.Steps()
		assert.Len(t, steps, 3)
		assert.Equal(t, StatusConfirmed, steps[1].Status)
		assert.True(t, steps[1].Completed)
		assert.True(t, steps[2].Failed)
		for _, s := range steps {
			assert.NotEqual(t, StatusOutForDelivery, s.Status)
		}
	})

	t.Run("Forward status ignores history", func(t *testing.T) {
		o := &Order{Status: StatusOutForDelivery}
		assert.Equal(t, StatusSteps(StatusOutForDelivery), o.Steps())
	})
}

func TestStatus_Predicates(t *testing.T) {
	assert.True(t, StatusDelivered.Terminal())
	assert.False(t, StatusDelivered.Failed())
	assert.True(t, StatusRejected.Failed())
	assert.False(t, Status("shipped").Valid())
	assert.Equal(t, "Out for delivery", StatusOutForDelivery.Label())
	assert.Equal(t, "shipped", Status("shipped").Label())
}
