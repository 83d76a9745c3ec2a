package monitor

// DefaultHistorySize is the default number of CPU samples kept per container.
const DefaultHistorySize = 60

// History keeps recent CPU readings per container for sparkline rendering.
// It is owned by the Model and not safe for concurrent use.
type History struct {
	size       int
	containers map[string]*ringBuffer
}

// ringBuffer is a fixed-size circular buffer for float64 values.
type ringBuffer struct {
	data  []float64
	head  int
	count int
}

// NewHistory creates a history tracker keeping size samples per container.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{
		size:       size,
		containers: make(map[string]*ringBuffer),
	}
}

// Push records a CPU reading for a container.
func (h *History) Push(id string, cpu float64) {
	buf, ok := h.containers[id]
	if !ok {
		buf = &ringBuffer{data: make([]float64, h.size)}
		h.containers[id] = buf
	}
	buf.push(cpu)
}

// CPU returns up to count of the most recent readings, oldest first.
func (h *History) CPU(id string, count int) []float64 {
	buf, ok := h.containers[id]
	if !ok {
		return nil
	}
	return buf.getLast(count)
}

// Count returns the number of readings stored for a container.
func (h *History) Count(id string) int {
	if buf, ok := h.containers[id]; ok {
		return buf.count
	}
	return 0
}

// Len returns the number of containers tracked.
func (h *History) Len() int {
	return len(h.containers)
}

// Remove drops the history of the given containers.
func (h *History) Remove(ids ...string) {
	for _, id := range ids {
		delete(h.containers, id)
	}
}

// Retain drops every container not in keep.
func (h *History) Retain(keep []string) {
	live := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		live[id] = struct{}{}
	}
	for id := range h.containers {
		if _, ok := live[id]; !ok {
			delete(h.containers, id)
		}
	}
}

func (r *ringBuffer) push(value float64) {
	r.data[r.head] = value
	r.head = (r.head + 1) % len(r.data)
	if r.count < len(r.data) {
		r.count++
	}
}

// getLast returns the last count values in chronological order (oldest first).
func (r *ringBuffer) getLast(count int) []float64 {
	if count <= 0 || r.count == 0 {
		return nil
	}
	count = min(count, r.count)

	size := len(r.data)
	// head is the next write position, so the newest value sits at head-1.
	start := (r.head - count + size) % size
	result := make([]float64, count)
	for i := range result {
		result[i] = r.data[(start+i)%size]
	}
	return result
}
