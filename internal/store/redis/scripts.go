// internal/store/redis/scripts.go
package redis

import (
	"embed"
	"fmt"

	"github.com/avivl/redis-lock/internal/store"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/redis/go-redis/v9"
)

//go:embed scripts/distributed-lock/*.lua scripts/fair-semaphore/*.lua
var scriptFS embed.FS

var scriptPaths = map[store.Operation]string{
	store.OpLockAcquire:      "scripts/distributed-lock/acquire.lua",
	store.OpLockRelease:      "scripts/distributed-lock/release.lua",
	store.OpSemaphoreAcquire: "scripts/fair-semaphore/acquire.lua",
	store.OpSemaphoreRefresh: "scripts/fair-semaphore/refresh.lua",
	store.OpSemaphoreRelease: "scripts/fair-semaphore/release.lua",
}

// ScriptCache loads each operation's script once and keeps it for the life
// of the process. Entries are never replaced.
type ScriptCache struct {
	scripts *xsync.MapOf[store.Operation, *redis.Script]
}

// NewScriptCache returns an empty cache.
func NewScriptCache() *ScriptCache {
	return &ScriptCache{scripts: xsync.NewMapOf[store.Operation, *redis.Script]()}
}

// Get returns the script for op, reading it from the embedded scripts on first use.
func (c *ScriptCache) Get(op store.Operation) (*redis.Script, error) {
	if script, ok := c.scripts.Load(op); ok {
		return script, nil
	}

	path, ok := scriptPaths[op]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrUnknownOperation, op)
	}
	src, err := scriptFS.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script for %s: %w", op, err)
	}

	script, _ := c.scripts.LoadOrStore(op, redis.NewScript(string(src)))
	return script, nil
}

// Len returns the number of cached scripts.
func (c *ScriptCache) Len() int {
	return c.scripts.Size()
}
