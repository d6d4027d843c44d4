package session

import "time"

// Snapshot is a read-only view of a session for dashboards
type Snapshot struct {
	ID        string
	State     State
	Title     string
	Position  int64
	Frames    int64
	Chunks    int64
	Speed     int
	Intensity int
	UpdatedAt time.Time
}

// Progress returns the fraction of the source already read
func (s Snapshot) Progress() float64 {
	if s.Frames <= 0 {
		return 0
	}
	return float64(s.Position) / float64(s.Frames)
}

// Snapshot captures the current state. Call it from the session goroutine.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		ID:        s.id,
		State:     s.state,
		Chunks:    s.chunks,
		Speed:     s.settings.Speed,
		Intensity: s.settings.Intensity,
		UpdatedAt: time.Now(),
	}
	if s.src != nil {
		snap.Title = s.src.Title()
		snap.Position = s.src.Position()
		snap.Frames = s.src.Frames()
	}
	return snap
}

func (s *Session) notify() {
	if s.cfg.Observer != nil {
		s.cfg.Observer(s.Snapshot())
	}
}
