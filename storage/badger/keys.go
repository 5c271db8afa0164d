package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/poiesic/recall/core"
)

// Key prefixes for different data types
const (
	itemRecordPrefix = "itmrec"
	itemURLPrefix    = "itmurl"
	itemTitlePrefix  = "itmtit"
	itemDatePrefix   = "itmrecd"
	preferencePrefix = "pref"
	digestPrefix     = "digrec"
)

// makeItemKey generates a key for a candidate item by ID.
func makeItemKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", itemRecordPrefix, id))
}

// makeItemURLKey generates a key for the URL index. The hash is the
// content ID of the normalized URL.
func makeItemURLKey(urlHash core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", itemURLPrefix, urlHash))
}

// makeItemTitleKey generates a key for the normalized-title index.
func makeItemTitleKey(titleHash core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", itemTitlePrefix, titleHash))
}

// makeItemDateKey generates a composite key for the insertion-date index.
// Format: prefix:timestamp:id
func makeItemDateKey(timestamp time.Time, id core.ID) []byte {
	prefix := itemDatePrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 16 // 8 bytes for timestamp + 8 bytes for ID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialItemDateKey generates a partial key for date range queries.
// Format: prefix:timestamp
func makePartialItemDateKey(timestamp time.Time) []byte {
	prefix := itemDatePrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8 // 8 bytes for timestamp
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	return buf
}

// makePreferenceKey generates a key for a persisted preference.
func makePreferenceKey(key string) []byte {
	return []byte(fmt.Sprintf("%s:%s", preferencePrefix, key))
}

// makeDigestKey generates a key for a compiled digest by run date.
func makeDigestKey(date time.Time) []byte {
	return []byte(fmt.Sprintf("%s:%s", digestPrefix, date.UTC().Format(time.DateOnly)))
}
