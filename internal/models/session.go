package models

import "time"

type Stage int

const (
	StageIdle Stage = iota
	StageAwaitingLocation
	StageAwaitingFollowUps
	// StageCompleted is only observed at rest when a report could not be
	// persisted; the next message retries the write.
	StageCompleted
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageAwaitingLocation:
		return "awaiting_location"
	case StageAwaitingFollowUps:
		return "awaiting_follow_ups"
	case StageCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// LocationKey is the answer key the accepted location is stored under.
const LocationKey = "location"

type Answer struct {
	Key   string
	Value string
}

type Session struct {
	ID        string
	Stage     Stage
	Category  *Category
	Answers   []Answer
	Cursor    int
	UpdatedAt time.Time
}

func NewSession(id string) *Session {
	s := &Session{ID: id}
	s.Reset()
	return s
}

// Reset returns the session to Idle with no category or answers.
func (s *Session) Reset() {
	s.Stage = StageIdle
	s.Category = nil
	s.Answers = nil
	s.Cursor = 0
}

// Answer returns the value recorded under key, if any.
func (s *Session) Answer(key string) (string, bool) {
	for _, a := range s.Answers {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// SetAnswer records value under key, replacing an earlier answer for the
// same key in place so insertion order is kept.
func (s *Session) SetAnswer(key, value string) {
	for i := range s.Answers {
		if s.Answers[i].Key == key {
			s.Answers[i].Value = value
			return
		}
	}
	s.Answers = append(s.Answers, Answer{Key: key, Value: value})
}
