// internal/store/storeconfig.go
package store

// StoreConfig is implemented by every backend configuration.
type StoreConfig interface {
	GetEndpoints() []string
	Validate() error
}
