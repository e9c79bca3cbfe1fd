package session

// Snapshot is the observable state of a session after a tick.
type Snapshot struct {
	Session   string     `json:"session"`
	Tick      uint64     `json:"tick"`
	Position  [3]float64 `json:"position"`
	Yaw       float64    `json:"yaw"`
	Pitch     float64    `json:"pitch"`
	Velocity  [3]float64 `json:"velocity"`
	Locked    bool       `json:"locked"`
	Collided  bool       `json:"collided"`
	Obstacles int        `json:"obstacles"`
}
