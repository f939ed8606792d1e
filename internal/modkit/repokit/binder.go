package repokit

// Binder is a tiny factory that binds a domain repo to a specific Bucket
type Binder[T any] interface {
	Bind(Bucket) T
}

// BindFunc lets you create a Binder from a function
type BindFunc[T any] func(Bucket) T

// Bind calls the underlying function
func (f BindFunc[T]) Bind(b Bucket) T { return f(b) }

// RequireBucket panics early on programmer error (nil bucket)
func RequireBucket(b Bucket) Bucket {
	if b == nil {
		panic("repokit: nil Bucket")
	}
	return b
}

// MustBind is a convenience that validates b then binds
func MustBind[T any](bn Binder[T], b Bucket) T {
	return bn.Bind(RequireBucket(b))
}
