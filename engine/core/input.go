package core

// KeyCode values follow the GLFW key tokens so the platform layer can
// forward them untouched.
type KeyCode uint16

const (
	KEY_SPACE     KeyCode = 32
	KEY_A         KeyCode = 65
	KEY_B         KeyCode = 66
	KEY_D         KeyCode = 68
	KEY_F         KeyCode = 70
	KEY_R         KeyCode = 82
	KEY_S         KeyCode = 83
	KEY_W         KeyCode = 87
	KEY_ESCAPE    KeyCode = 256
	KEY_ENTER     KeyCode = 257
	KEY_RIGHT     KeyCode = 262
	KEY_LEFT      KeyCode = 263
	KEY_DOWN      KeyCode = 264
	KEY_UP        KeyCode = 265
	KEY_F1        KeyCode = 290
	KEY_MAX_CODES KeyCode = 512
)

type keyboardState struct {
	keys [KEY_MAX_CODES]bool
}

// Input keeps the keyboard state of the current and the previous frame.
type Input struct {
	keyboardCurrent  keyboardState
	keyboardPrevious keyboardState
}

func NewInput() *Input {
	return &Input{}
}

// Register wires the input state to the key events of the given event system.
func (in *Input) Register(events *EventSystem) {
	events.EventRegister(EVENT_CODE_KEY_PRESSED, in.onKey)
	events.EventRegister(EVENT_CODE_KEY_RELEASED, in.onKey)
}

func (in *Input) onKey(context EventContext) {
	ke, ok := context.Data.(*KeyEvent)
	if !ok {
		LogError("wrong event associated with the event type `%d`", context.Type)
		return
	}
	in.ProcessKey(ke.KeyCode, context.Type == EVENT_CODE_KEY_PRESSED)
}

func (in *Input) ProcessKey(key KeyCode, pressed bool) {
	if key >= KEY_MAX_CODES {
		return
	}
	in.keyboardCurrent.keys[key] = pressed
}

// Update copies the current state to the previous one. Call it last in a frame.
func (in *Input) Update() {
	in.keyboardPrevious = in.keyboardCurrent
}

func (in *Input) IsKeyDown(key KeyCode) bool {
	if key >= KEY_MAX_CODES {
		return false
	}
	return in.keyboardCurrent.keys[key]
}

func (in *Input) IsKeyUp(key KeyCode) bool {
	return !in.IsKeyDown(key)
}

// WasKeyPressed reports a key that went down during this frame.
func (in *Input) WasKeyPressed(key KeyCode) bool {
	if key >= KEY_MAX_CODES {
		return false
	}
	return in.keyboardCurrent.keys[key] && !in.keyboardPrevious.keys[key]
}
