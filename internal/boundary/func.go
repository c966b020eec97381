package boundary

// Func is a thread-safe handle to a consumer callback bound to a Loop.
// A *Func may be shared freely between the controller and the capture thread.
type Func[T any] struct {
	loop *Loop
	fn   func(T)
}

// NewFunc binds fn to loop
func NewFunc[T any](loop *Loop, fn func(T)) *Func[T] {
	return &Func[T]{loop: loop, fn: fn}
}

// Call queues fn(v) on the loop without waiting for it to run.
func (f *Func[T]) Call(v T) error {
	fn := f.fn
	return f.loop.Submit(func() { fn(v) })
}
