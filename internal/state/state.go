package state

// Fixed keys for values the client persists across runs.
const (
	KeyAuthToken  = "authToken"
	KeyAuthUser   = "authUser"
	KeyMessageIDs = "myMessageIds"
)

// Store is durable local key-value storage for client state.
//
// Consumers treat any read failure as "no stored value"; the session layer
// must not behave differently when the database is broken versus empty.
type Store interface {
	// Get retrieves the value for a key. ok is false when the key is absent.
	Get(key string) (value string, ok bool, err error)

	// Set stores a value under a key, replacing any previous value.
	Set(key, value string) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(key string) error

	// Close closes the underlying database connection.
	Close() error
}
