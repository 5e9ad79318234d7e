package ir

// AccountID is an opaque caller identity resolved by the host's
// authorization layer. The store never keys records by it; it only tags events.
type AccountID string

// BookMetadata is the record stored under a book id.
// Both fields are bounded by the deployment's max length.
type BookMetadata struct {
	Title       BoundedBytes `json:"title"`
	Description BoundedBytes `json:"description"`
}

// Book pairs a stored record with its key. Used by backends when the whole
// record set is read for verification.
type Book struct {
	ID       BoundedBytes `json:"book_id"`
	Metadata BookMetadata `json:"metadata"`
}

// EventKind names a notification variant.
type EventKind string

const (
	// EventBookCreated is emitted once per successful create_book.
	EventBookCreated EventKind = "BookCreated"

	// EventBookRemoved is emitted once per successful remove_book.
	EventBookRemoved EventKind = "BookRemoved"
)

// ValidEventKinds defines allowed event kinds.
var ValidEventKinds = map[EventKind]bool{
	EventBookCreated: true,
	EventBookRemoved: true,
}

// Event is an append-only notification of a successful transition.
//
// The transition handler fills Kind, Caller, and BookID. The host stamps Seq
// from its logical clock and ID from EventID before the event is persisted.
type Event struct {
	ID     string       `json:"id,omitempty"` // Content-addressed hash
	Seq    int64        `json:"seq"`          // Logical clock
	Kind   EventKind    `json:"kind"`
	Caller AccountID    `json:"caller"`
	BookID BoundedBytes `json:"book_id"`
}
