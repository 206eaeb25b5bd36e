// Package store holds the observable client state read by the UI layer: the
// authenticated session, the paginated questions list and the question being
// viewed. Stores never perform network calls; callers fetch through the API
// modules and then apply the result with a store method.
package store

// Readable is an observable value.
type Readable[T any] interface {
	// Get returns the current value.
	Get() T
	// Subscribe calls fn with the current value and then after every change,
	// until the returned function is called.
	Subscribe(fn func(T)) (unsubscribe func())
}

var (
	_ Readable[Session]             = (*AuthStore)(nil)
	_ Readable[QuestionsState]      = (*QuestionsStore)(nil)
	_ Readable[QuestionDetailState] = (*QuestionDetailStore)(nil)
)
