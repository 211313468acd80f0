// Package chunker splits slices into consecutive bounded sub-slices.
package chunker

// DefaultSize is the batch size used when writing flattened fields.
const DefaultSize = 200

// Split returns consecutive sub-slices of items, each holding at most size
// elements. A non-positive size yields a single chunk with every item.
// Sub-slices share the backing array of items.
func Split[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 {
		size = len(items)
	}

	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end:end])
	}
	return chunks
}
