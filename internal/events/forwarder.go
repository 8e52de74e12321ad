package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/BrightPath-Learning/course-progress-service/internal/progress"
)

const eventSource = "course-progress-service"
const eventVersion = "1.0"

// ProgressForwarder subscribes to the progress store and mirrors its change
// notifications onto the external event bus. Publishing is best-effort: a
// broker failure is logged and the in-process notification still counts as
// delivered.
type ProgressForwarder struct {
	publisher EventPublisher
	logger    *slog.Logger
}

func NewProgressForwarder(publisher EventPublisher, logger *slog.Logger) *ProgressForwarder {
	return &ProgressForwarder{
		publisher: publisher,
		logger:    logger,
	}
}

// ProgressChanged implements progress.Observer.
func (f *ProgressForwarder) ProgressChanged(notification progress.ChangeNotification) {
	eventType := EventProgressChanged
	if notification.ModuleID == progress.AllModules {
		eventType = EventProgressReset
	}

	event := &ProgressEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data: ProgressChangedEvent{
			ModuleID:        notification.ModuleID,
			OverallProgress: notification.OverallProgress,
			ModuleProgress:  notification.ModuleProgress,
		},
	}

	if err := f.publisher.PublishProgressEvent(context.Background(), event); err != nil {
		f.logger.Warn("Failed to forward progress event",
			"module_id", notification.ModuleID,
			"error", err)
	}
}
