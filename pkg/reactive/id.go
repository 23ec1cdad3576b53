package reactive

import (
	"strconv"
	"sync/atomic"
)

// globalIDCounter is the source of unique identifiers for wrapped objects.
var globalIDCounter uint64

// nextID returns the next process-unique identifier, base-36 encoded.
func nextID() string {
	return strconv.FormatUint(atomic.AddUint64(&globalIDCounter, 1), 36)
}

// NamespacedID joins a namespace and an identifier ("todo:1f").
func NamespacedID(namespace, id string) string {
	if namespace == "" {
		return id
	}
	return namespace + ":" + id
}
