package keyboard

// Linux input event codes for the keys in DefaultKeymap.
const (
	evKey = 0x01

	keyRelease    = 0
	keyPress      = 1
	keyAutorepeat = 2
)

var keyCodeNames = map[uint16]string{
	2:   "1",
	3:   "2",
	4:   "3",
	5:   "4",
	11:  "0",
	30:  "a",
	32:  "d",
	57:  "space",
	103: "arrowup",
	105: "arrowleft",
	106: "arrowright",
	108: "arrowdown",
}

// inputEvent mirrors struct input_event on 64-bit Linux.
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

// handleEvent forwards a key transition to h. Autorepeat and non-key events
// are ignored.
func handleEvent(ev inputEvent, h KeyHandler) {
	if ev.Type != evKey {
		return
	}
	name, ok := keyCodeNames[ev.Code]
	if !ok {
		return
	}
	switch ev.Value {
	case keyPress:
		h.KeyDown(name)
	case keyRelease:
		h.KeyUp(name)
	case keyAutorepeat:
	}
}
