package index

// DocIndex defines the interface for document indexing operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type DocIndex interface {
	UpsertDoc(d DocRow, body string) error
	DeleteDoc(key string) error
	GetDoc(key string) (*DocRow, error)
	Fingerprints() (map[string]string, error)
	DynamicKeys() ([]string, error)
	Search(query string, limit int) ([]SearchResult, error)
	Count() (int, error)
	Close() error
}

// Verify *DB satisfies DocIndex at compile time.
var _ DocIndex = (*DB)(nil)
