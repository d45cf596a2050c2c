package internal

import (
	"strings"
	"sync"
)

var builderPool = sync.Pool{
	New: func() any { return new(strings.Builder) },
}

// BuildString runs fn against a pooled builder and returns what it wrote.
// fn must not keep the builder.
func BuildString(fn func(sb *strings.Builder)) string {
	sb := builderPool.Get().(*strings.Builder)
	sb.Reset()
	fn(sb)
	s := sb.String()
	sb.Reset()
	builderPool.Put(sb)
	return s
}
