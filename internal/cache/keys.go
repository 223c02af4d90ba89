package cache

import (
	"fmt"
	"time"
)

const (
	// IndexPageNamespace is the Redis hash holding rendered index pages.
	IndexPageNamespace = "index_page"
	BlacklistKeyPrefix = "blacklist:%s"
)

const (
	DefaultIndexTTL   = 20 * time.Second
	MemoryPageEntries = 256
)

func BlacklistKey(jti string) string {
	return fmt.Sprintf(BlacklistKeyPrefix, jti)
}

// PageField is the hash field for an index page number.
func PageField(page int) string {
	return fmt.Sprintf("page:%d", page)
}
