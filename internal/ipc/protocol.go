package ipc

// Request is one command sent to the active interview session.
type Request struct {
	Command string `json:"command"`
}

// Response reports whether the session accepted the command, plus the
// conversation state observed when it was handled.
type Response struct {
	OK      bool   `json:"ok"`
	State   string `json:"state,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
