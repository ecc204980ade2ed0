package models

// TimestampLayout is the minute-resolution format reports are stamped with.
const TimestampLayout = "2006-01-02 15:04"

type Report struct {
	ID            int64  `json:"id"`
	Timestamp     string `json:"timestamp"`
	EmergencyType string `json:"emergency_type"`
	Location      string `json:"location"`
}
