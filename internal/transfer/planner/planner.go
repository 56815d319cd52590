package planner

import "fmt"

const (
	// MaxParts is the largest number of parts a multipart session may hold.
	MaxParts = 10000

	// MiB is one mebibyte.
	MiB int64 = 1024 * 1024
)

// Part describes one contiguous byte range of an object.
// Part numbers start at 1.
type Part struct {
	Number int
	Offset int64
	Length int64
}

// End returns the offset of the last byte covered by the part.
func (p Part) End() int64 {
	return p.Offset + p.Length - 1
}

// Plan is the partitioning of an object into parts.
type Plan struct {
	TotalSize    int64
	PartSize     int64
	PartCount    int
	LastPartSize int64
}

// New computes the plan for totalSize bytes split into parts of partSize bytes.
// When the natural part count exceeds maxParts, the part size is recomputed as
// totalSize/maxParts and the remainder is folded into the last part.
// A maxParts of zero or less means MaxParts.
//
// The caller guarantees totalSize > 0 and partSize > 0; objects at or below the
// single-shot threshold never reach the planner.
func New(totalSize, partSize int64, maxParts int) Plan {
	if maxParts <= 0 {
		maxParts = MaxParts
	}

	count := totalSize / partSize
	last := totalSize % partSize
	if last != 0 {
		count++
	} else {
		last = partSize
	}

	if count > int64(maxParts) {
		count = int64(maxParts)
		partSize = totalSize / count
		last = partSize + totalSize%count
	}

	return Plan{
		TotalSize:    totalSize,
		PartSize:     partSize,
		PartCount:    int(count),
		LastPartSize: last,
	}
}

// Part returns the descriptor for part n (1-based).
func (p Plan) Part(n int) Part {
	length := p.PartSize
	if n == p.PartCount {
		length = p.LastPartSize
	}
	return Part{
		Number: n,
		Offset: int64(n-1) * p.PartSize,
		Length: length,
	}
}

// Parts returns every part descriptor in ascending order.
func (p Plan) Parts() []Part {
	parts := make([]Part, p.PartCount)
	for i := range parts {
		parts[i] = p.Part(i + 1)
	}
	return parts
}

// Contains reports whether n is a part number of the plan.
func (p Plan) Contains(n int) bool {
	return n >= 1 && n <= p.PartCount
}

// Validate checks that the parts tile the object exactly.
func (p Plan) Validate() error {
	if p.PartCount <= 0 {
		return fmt.Errorf("plan has no parts")
	}
	if p.LastPartSize <= 0 {
		return fmt.Errorf("last part is empty")
	}
	sum := int64(p.PartCount-1)*p.PartSize + p.LastPartSize
	if sum != p.TotalSize {
		return fmt.Errorf("parts cover %d bytes, object has %d", sum, p.TotalSize)
	}
	return nil
}
