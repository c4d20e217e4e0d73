package driven

// ChangeNotifier broadcasts that a named resource changed.
// Notify is fire-and-forget and must not block the caller.
type ChangeNotifier interface {
	Notify(resource string)
}
