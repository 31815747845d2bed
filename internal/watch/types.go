package watch

import "time"

type EventType int

const (
	EventCreate EventType = iota
	EventModify
	EventDelete
	EventRename
)

type FileEvent struct {
	Path      string
	Type      EventType
	Timestamp time.Time
}
