// Package access produces the address streams that drive a simulated cache.
package access

// A Pattern is a finite source of addresses. Next returns ok=false once the
// stream is exhausted. Every produced address decodes to a block index
// within the backing store the pattern was sized for.
type Pattern interface {
	Next() (addr uint64, ok bool)
	Name() string
}
