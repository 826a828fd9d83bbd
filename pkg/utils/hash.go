package utils

import (
	"crypto/md5"
	"fmt"
	"strings"
)

// DocumentID derives a stable identifier for an ingested knowledge-base
// document from its source and retrieval scope. Re-ingesting the same
// document yields the same chunk IDs.
func DocumentID(source, countryCode, visaCategory string) string {
	sum := md5.Sum([]byte(strings.Join([]string{source, countryCode, visaCategory}, "|")))
	return fmt.Sprintf("%x", sum)
}
