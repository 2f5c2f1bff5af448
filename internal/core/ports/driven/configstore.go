package driven

// ConfigStore holds settings under flat dot-separated keys such as
// "export.pace". Typed getters return the zero value when a key is missing
// or holds another type.
type ConfigStore interface {
	// Get returns the raw value and whether the key is set.
	Get(key string) (any, bool)

	GetString(key string) string
	GetInt(key string) int

	// Set stores a value. Persistent stores write it through immediately.
	Set(key string, value any) error

	// Path identifies where values are kept.
	Path() string
}
