package capture

// State ist der Zustand einer Erfassungssitzung
type State int

const (
	StateIdle State = iota
	StateStarting
	StateScanning
	StateMatched
	StateTimedOut
	StateDeviceFailed
	StateStoppedByUser
	StateStorageFailed
)

var stateNames = map[State]string{
	StateIdle:          "idle",
	StateStarting:      "starting",
	StateScanning:      "scanning",
	StateMatched:       "matched",
	StateTimedOut:      "timed_out",
	StateDeviceFailed:  "device_failed",
	StateStoppedByUser: "stopped_by_user",
	StateStorageFailed: "storage_failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal meldet, ob kein weiterer Übergang mehr möglich ist
func (s State) Terminal() bool {
	return s >= StateMatched
}

// MarshalText schreibt den Zustandsnamen in JSON-Nutzlasten
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
