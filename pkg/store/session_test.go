package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpdateIfEpochSkipsStaleWriter(t *testing.T) {
	sess := &Session{ID: "sess-1", Stage: StageResolvingIndicators}

	epoch := sess.CurrentEpoch()
	sess.BumpEpoch()

	applied := sess.UpdateIfEpoch(epoch, func() {
		sess.Stage = StageDone
		sess.Plan = &Plan{}
	})

	assert.False(t, applied)
	assert.Equal(t, StageResolvingIndicators, sess.Stage)
	assert.Nil(t, sess.Plan)
}

func TestUpdateIfEpochAppliesCurrentWriter(t *testing.T) {
	sess := &Session{ID: "sess-1"}

	applied := sess.UpdateIfEpoch(sess.CurrentEpoch(), func() {
		sess.Stage = StageAwaitingPreferences
	})

	assert.True(t, applied)
	assert.Equal(t, StageAwaitingPreferences, sess.Stage)
}

func TestUpdateSerializesConcurrentWriters(t *testing.T) {
	sess := &Session{ID: "sess-1", AskedIndicators: make(map[string]bool)}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess.Update(func() {
				sess.PendingIndicators = append(sess.PendingIndicators, "x")
				sess.AskedIndicators["x"] = true
			})
		}()
	}
	wg.Wait()

	assert.Len(t, sess.PendingIndicators, 50)
	assert.True(t, sess.AskedIndicators["x"])
}

func TestBumpEpochCountsRestarts(t *testing.T) {
	sess := &Session{ID: "sess-1"}

	assert.EqualValues(t, 1, sess.BumpEpoch())
	assert.EqualValues(t, 2, sess.BumpEpoch())
	assert.EqualValues(t, 2, sess.CurrentEpoch())
}
