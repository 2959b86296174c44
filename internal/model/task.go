package model

// TaskOrigin tells where a task was acquired from.
type TaskOrigin string

const (
	// TaskOriginPriority tasks come from the priority sheet or from codes added at runtime.
	TaskOriginPriority TaskOrigin = "priority"
	// TaskOriginBulk tasks come from the contact list, in file order.
	TaskOriginBulk TaskOrigin = "bulk"
)

// Task is a single contact to be called. Identity is the code.
type Task struct {
	Code   string
	Phone  string
	Origin TaskOrigin
}

// HasPhone returns true when the task already carries a phone number.
func (t Task) HasPhone() bool { return t.Phone != "" }
