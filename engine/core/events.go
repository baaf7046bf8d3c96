package core

import (
	"github.com/spaghettifunk/anima2d/engine/containers"
)

// System internal event codes. Application should use codes beyond 255.
type SystemEventCode uint16

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT SystemEventCode = 0x01
	// Keyboard key pressed. Data is a *KeyEvent.
	EVENT_CODE_KEY_PRESSED SystemEventCode = 0x02
	// Keyboard key released. Data is a *KeyEvent.
	EVENT_CODE_KEY_RELEASED SystemEventCode = 0x03
	// Resized/resolution changed from the OS. Data is a *SystemEvent.
	EVENT_CODE_RESIZED SystemEventCode = 0x08

	MAX_EVENT_CODE SystemEventCode = 0xFF
)

// Events fired within a single frame beyond this are dropped.
const MAX_QUEUED_EVENTS = 1024

type EventContext struct {
	Type SystemEventCode
	Data interface{}
}

type KeyEvent struct {
	KeyCode KeyCode
}

type SystemEvent struct {
	WindowWidth  uint32
	WindowHeight uint32
}

type FnOnEvent func(context EventContext)

// EventSystem queues events fired during a frame and dispatches them in
// order when ProcessEvents is called from the main loop.
type EventSystem struct {
	registered map[SystemEventCode][]FnOnEvent
	queue      *containers.RingQueue[EventContext]
}

func NewEventSystem() *EventSystem {
	return &EventSystem{
		registered: make(map[SystemEventCode][]FnOnEvent),
		queue:      containers.NewRingQueue[EventContext](MAX_QUEUED_EVENTS),
	}
}

// EventRegister adds a listener for the given code. Listeners are called in
// registration order.
func (es *EventSystem) EventRegister(code SystemEventCode, onEvent FnOnEvent) {
	es.registered[code] = append(es.registered[code], onEvent)
}

// EventFire queues the event. It returns false when the queue is full.
func (es *EventSystem) EventFire(context EventContext) bool {
	if err := es.queue.Enqueue(context); err != nil {
		LogWarn("event %d dropped: %s", context.Type, err)
		return false
	}
	return true
}

// ProcessEvents drains the queue and returns how many events were dispatched.
func (es *EventSystem) ProcessEvents() int {
	dispatched := 0
	for !es.queue.IsEmpty() {
		context, err := es.queue.Dequeue()
		if err != nil {
			break
		}
		for _, fn := range es.registered[context.Type] {
			fn(context)
		}
		dispatched++
	}
	return dispatched
}

func (es *EventSystem) Shutdown() error {
	for !es.queue.IsEmpty() {
		if _, err := es.queue.Dequeue(); err != nil {
			return err
		}
	}
	es.registered = make(map[SystemEventCode][]FnOnEvent)
	return nil
}
