// Package events is the in-process publish/subscribe bus that decouples
// media library state from the terminal and dashboard renderers.
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/distrohub/mediadesk/internal/constants"
)

// EventType defines the types of events that can be emitted
type EventType string

const (
	EventLog          EventType = "log"
	EventNotification EventType = "notification"

	// Media library
	EventMediaListChanged EventType = "media_list_changed"
	EventSelectionChanged EventType = "selection_changed"
	EventFoldersChanged   EventType = "folders_changed"
	EventRefresh          EventType = "refresh" // a re-fetch completed

	// Uploads
	EventUploadAdded    EventType = "upload_added"
	EventUploadProgress EventType = "upload_progress"
	EventUploadComplete EventType = "upload_complete"
	EventUploadFailed   EventType = "upload_failed"
	EventUploadRemoved  EventType = "upload_removed"
)

// LogLevel defines log severity levels
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

func newBase(t EventType) BaseEvent {
	return BaseEvent{EventType: t, Time: time.Now()}
}

// LogEvent represents log messages
type LogEvent struct {
	BaseEvent
	Level     LogLevel
	Message   string
	Component string
	Error     error
}

// NotificationEvent is a transient user-facing message. Every caught
// failure ends up as one.
type NotificationEvent struct {
	BaseEvent
	Level   LogLevel
	Title   string
	Message string
	Error   error
}

// MediaListEvent reports that the visible page of media changed.
type MediaListEvent struct {
	BaseEvent
	FolderID    string
	Count       int
	CurrentPage int
	TotalPages  int
}

// SelectionEvent reports a change of the selected media item or folder.
// Empty IDs mean the selection was cleared.
type SelectionEvent struct {
	BaseEvent
	MediaID  string
	FolderID string
}

// FoldersChangedEvent reports a rebuilt folder tree.
type FoldersChangedEvent struct {
	BaseEvent
	Count    int
	Detached int
}

// RefreshEvent is published after a re-fetch resolves.
type RefreshEvent struct {
	BaseEvent
	Counter int
	Reason  string
	Error   error
}

// UploadEvent covers the candidate lifecycle.
type UploadEvent struct {
	BaseEvent
	CandidateID string
	Name        string
	FolderID    string
	Progress    int // 0-100
	BytesSent   int64
	BytesTotal  int64
	URL         string
	Error       error
}

// EventBus manages event subscriptions and publishing
type EventBus struct {
	subscribers   map[EventType][]chan Event
	all           []chan Event // Subscribers to all events
	mu            sync.RWMutex
	bufferSize    int
	closed        bool
	droppedEvents atomic.Int64
}

// NewEventBus creates a new event bus with specified buffer size
func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = constants.EventBusDefaultBuffer
	}
	if bufferSize > constants.EventBusMaxBuffer {
		bufferSize = constants.EventBusMaxBuffer
	}
	return &EventBus{
		subscribers: make(map[EventType][]chan Event),
		bufferSize:  bufferSize,
	}
}

// Subscribe creates a subscription to a specific event type
func (eb *EventBus) Subscribe(eventType EventType) <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.subscribers[eventType] = append(eb.subscribers[eventType], ch)
	return ch
}

// SubscribeAll creates a subscription to all events
func (eb *EventBus) SubscribeAll() <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.all = append(eb.all, ch)
	return ch
}

// Publish sends an event to all subscribers without blocking. A subscriber
// whose buffer is full misses the event; see DroppedEventCount.
// Publishing on a nil bus is a no-op.
func (eb *EventBus) Publish(event Event) {
	if eb == nil {
		return
	}
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return
	}

	for _, ch := range eb.subscribers[event.Type()] {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}

	for _, ch := range eb.all {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}
}

// Close shuts down the event bus and closes all channels
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	eb.closed = true

	for _, channels := range eb.subscribers {
		for _, ch := range channels {
			close(ch)
		}
	}
	for _, ch := range eb.all {
		close(ch)
	}
}

// PublishLog is a convenience method for publishing log events
func (eb *EventBus) PublishLog(level LogLevel, message, component string, err error) {
	eb.Publish(&LogEvent{
		BaseEvent: newBase(EventLog),
		Level:     level,
		Message:   message,
		Component: component,
		Error:     err,
	})
}

// Notify publishes a NotificationEvent.
func (eb *EventBus) Notify(level LogLevel, title, message string, err error) {
	eb.Publish(&NotificationEvent{
		BaseEvent: newBase(EventNotification),
		Level:     level,
		Title:     title,
		Message:   message,
		Error:     err,
	})
}

// PublishUpload publishes an upload lifecycle event of the given type.
func (eb *EventBus) PublishUpload(t EventType, e UploadEvent) {
	e.BaseEvent = newBase(t)
	eb.Publish(&e)
}

// PublishSelection publishes a SelectionEvent.
func (eb *EventBus) PublishSelection(mediaID, folderID string) {
	eb.Publish(&SelectionEvent{
		BaseEvent: newBase(EventSelectionChanged),
		MediaID:   mediaID,
		FolderID:  folderID,
	})
}

// PublishMediaList publishes a MediaListEvent.
func (eb *EventBus) PublishMediaList(folderID string, count, currentPage, totalPages int) {
	eb.Publish(&MediaListEvent{
		BaseEvent:   newBase(EventMediaListChanged),
		FolderID:    folderID,
		Count:       count,
		CurrentPage: currentPage,
		TotalPages:  totalPages,
	})
}

// PublishFolders publishes a FoldersChangedEvent.
func (eb *EventBus) PublishFolders(count, detached int) {
	eb.Publish(&FoldersChangedEvent{
		BaseEvent: newBase(EventFoldersChanged),
		Count:     count,
		Detached:  detached,
	})
}

// PublishRefresh publishes a RefreshEvent.
func (eb *EventBus) PublishRefresh(counter int, reason string, err error) {
	eb.Publish(&RefreshEvent{
		BaseEvent: newBase(EventRefresh),
		Counter:   counter,
		Reason:    reason,
		Error:     err,
	})
}

// Unsubscribe removes a subscription channel from a specific event type
func (eb *EventBus) Unsubscribe(eventType EventType, ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	subscribers := eb.subscribers[eventType]
	for i, subCh := range subscribers {
		if subCh == ch {
			subscribers[i] = subscribers[len(subscribers)-1]
			eb.subscribers[eventType] = subscribers[:len(subscribers)-1]
			break
		}
	}
}

// UnsubscribeAll removes a subscription channel from every event type and
// from the all-events list.
func (eb *EventBus) UnsubscribeAll(ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	for eventType, subscribers := range eb.subscribers {
		for i, subCh := range subscribers {
			if subCh == ch {
				subscribers[i] = subscribers[len(subscribers)-1]
				eb.subscribers[eventType] = subscribers[:len(subscribers)-1]
				break
			}
		}
	}

	for i, subCh := range eb.all {
		if subCh == ch {
			eb.all[i] = eb.all[len(eb.all)-1]
			eb.all = eb.all[:len(eb.all)-1]
			break
		}
	}
}

// DroppedEventCount returns the number of events dropped due to full buffers.
func (eb *EventBus) DroppedEventCount() int64 {
	return eb.droppedEvents.Load()
}
