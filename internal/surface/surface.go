package surface

import "time"

// Content is the current body of one display element.
//
// Body is stored exactly as received; no parsing or escaping is applied.
type Content struct {
	// ID is the element identifier, e.g. "readings".
	ID string `json:"id"`

	// Body is the raw response text last written to the element.
	Body string `json:"body"`

	// Seq is the tick sequence number whose response produced Body.
	// Because completions are applied in arrival order, Seq may go backwards
	// when an older request finishes after a newer one.
	Seq uint64 `json:"seq"`

	// UpdatedAt is when the write was applied.
	UpdatedAt time.Time `json:"updated_at"`
}

// Surface defines the interface for writing and observing display content.
//
// Surface implementations must be safe for concurrent access.
type Surface interface {
	// Write replaces the content of the element named by c.ID and notifies
	// all subscribers.
	Write(c Content)

	// Get returns the current content of one element.
	Get(id string) (Content, bool)

	// GetAll returns a snapshot of every element's content.
	GetAll() []Content

	// Subscribe returns a buffered channel that receives every write.
	// Caller must call Unsubscribe when done.
	Subscribe() <-chan Content

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan Content)
}
