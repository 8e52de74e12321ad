package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrightPath-Learning/course-progress-service/internal/progress"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// errorPublisher always fails, for exercising the best-effort path.
type errorPublisher struct{}

func (errorPublisher) PublishProgressEvent(context.Context, *ProgressEvent) error {
	return errors.New("broker down")
}

func (errorPublisher) Close() error { return nil }

func TestForwarderPublishesChangedEvent(t *testing.T) {
	publisher := NewMockEventPublisher(testLogger())
	forwarder := NewProgressForwarder(publisher, testLogger())

	modulePercent := 35
	forwarder.ProgressChanged(progress.ChangeNotification{
		ModuleID:        "module1",
		OverallProgress: 12,
		ModuleProgress:  &modulePercent,
	})

	require.Len(t, publisher.Events, 1)
	event := publisher.Events[0]
	assert.Equal(t, EventProgressChanged, event.Type)
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "course-progress-service", event.Source)
	assert.Equal(t, "1.0", event.Version)
	assert.False(t, event.Timestamp.IsZero())

	data, ok := event.Data.(ProgressChangedEvent)
	require.True(t, ok)
	assert.Equal(t, "module1", data.ModuleID)
	assert.Equal(t, 12, data.OverallProgress)
	require.NotNil(t, data.ModuleProgress)
	assert.Equal(t, 35, *data.ModuleProgress)
}

func TestForwarderPublishesResetEvent(t *testing.T) {
	publisher := NewMockEventPublisher(testLogger())
	forwarder := NewProgressForwarder(publisher, testLogger())

	forwarder.ProgressChanged(progress.ChangeNotification{
		ModuleID:        progress.AllModules,
		OverallProgress: 0,
	})

	require.Len(t, publisher.Events, 1)
	assert.Equal(t, EventProgressReset, publisher.Events[0].Type)
}

func TestForwarderSwallowsPublishFailure(t *testing.T) {
	forwarder := NewProgressForwarder(errorPublisher{}, testLogger())

	// Must not panic or propagate: the in-process notification already counts.
	forwarder.ProgressChanged(progress.ChangeNotification{ModuleID: "module1"})
}

func TestForwarderEventIDsAreUnique(t *testing.T) {
	publisher := NewMockEventPublisher(testLogger())
	forwarder := NewProgressForwarder(publisher, testLogger())

	for i := 0; i < 5; i++ {
		forwarder.ProgressChanged(progress.ChangeNotification{ModuleID: "module1"})
	}

	seen := map[string]bool{}
	for _, event := range publisher.Events {
		assert.False(t, seen[event.ID])
		seen[event.ID] = true
	}
}
