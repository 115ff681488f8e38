package foundation

// Option represents a value that may or may not be present.
// Page headers use it to tell "header absent" apart from "header set to the zero value".
type Option[T any] struct {
	value   T
	present bool
}

// Some creates an Option with a value.
func Some[T any](value T) Option[T] {
	return Option[T]{value: value, present: true}
}

// None creates an empty Option.
func None[T any]() Option[T] {
	return Option[T]{}
}

// OptionOf converts the comma-ok idiom into an Option.
func OptionOf[T any](value T, ok bool) Option[T] {
	if !ok {
		return None[T]()
	}
	return Some(value)
}

func (o Option[T]) IsSome() bool { return o.present }

// Get returns the value and whether it is present.
func (o Option[T]) Get() (T, bool) {
	return o.value, o.present
}

// Unwrap returns the value and panics when there is none.
func (o Option[T]) Unwrap() T {
	if !o.present {
		panic("foundation: Unwrap on empty Option")
	}
	return o.value
}

// MapOption applies fn to a present value.
func MapOption[T, U any](o Option[T], fn func(T) U) Option[U] {
	if o.present {
		return Some(fn(o.value))
	}
	return None[U]()
}
