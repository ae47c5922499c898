package core

// Actor is the person on whose behalf an operation runs (from the request's token).
type Actor struct {
	ID    string
	Role  string
	Class string
}

// Logger is any service that can report events.
// args may hold errors, map[string]interface{} extras and one Actor.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
