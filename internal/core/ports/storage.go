package ports

// KV is the durable local key-value store client state survives restarts in.
// Get is fail-soft: any read problem reports absence rather than an error,
// matching how browser-style local storage degrades.
type KV interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}
