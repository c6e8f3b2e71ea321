package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer   Action = "answer"
	ActionNavigate Action = "navigate"
	ActionFinish   Action = "finish"
	ActionPing     Action = "ping"
)

// Request carries a learner intent. QID/Answer are set for "answer",
// Index or Direction for "navigate".
type Request struct {
	Action    Action `json:"action"`
	QID       string `json:"q_id,omitempty"`
	Answer    string `json:"ans,omitempty"`
	Index     *int   `json:"index,omitempty"`
	Direction string `json:"direction,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState  Event = "state"
	EventResult Event = "result"
	EventError  Event = "error"
	EventPong   Event = "pong"
)

// StateResponse pushes a session snapshot. Sent once per clock second and
// after every accepted intent.
type StateResponse struct {
	Event Event       `json:"event"`
	State interface{} `json:"state"`
}

// ResultResponse delivers the graded result when the session finishes.
// Warning is set when the completion write failed and the result may not
// have been saved.
type ResultResponse struct {
	Event   Event       `json:"event"`
	Result  interface{} `json:"result"`
	Warning string      `json:"warning,omitempty"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
