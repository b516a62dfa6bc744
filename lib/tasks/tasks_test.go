package tasks_test

import (
	"errors"
	"testing"

	"github.com/icco/backlog/lib/tasks"
	"github.com/stretchr/testify/assert"
)

func TestGoDeliversValue(t *testing.T) {
	ch := tasks.Go(func() (int, error) { return 42, nil })

	res := <-ch
	assert.NoError(t, res.Err)
	assert.Equal(t, 42, res.Value)

	_, open := <-ch
	assert.False(t, open, "channel closes after one result")
}

func TestGoDeliversError(t *testing.T) {
	boom := errors.New("boom")
	ch := tasks.Go(func() (string, error) { return "", boom })

	res := <-ch
	assert.ErrorIs(t, res.Err, boom)
}

func TestGoDoesNotBlockWithoutReader(t *testing.T) {
	done := make(chan struct{})
	tasks.Go(func() (struct{}, error) {
		defer close(done)
		return struct{}{}, nil
	})
	<-done // the task finishes even though nobody reads the result
}
