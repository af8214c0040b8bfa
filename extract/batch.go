package extract

import "github.com/c360/schemaflow/types"

// Chunk splits a batch into sub-batches of at most size records. A size of
// zero or less returns the whole batch as a single chunk. Record order is
// preserved across chunks.
func Chunk(batch types.Batch, size int) []types.Batch {
	if len(batch) == 0 {
		return nil
	}
	if size <= 0 || size >= len(batch) {
		return []types.Batch{batch}
	}

	chunks := make([]types.Batch, 0, (len(batch)+size-1)/size)
	for start := 0; start < len(batch); start += size {
		end := start + size
		if end > len(batch) {
			end = len(batch)
		}
		chunks = append(chunks, batch[start:end])
	}
	return chunks
}
