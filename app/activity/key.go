package activity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Identity keys for duplicate detection.
//
// The strict key combines every field an editor would re-enter when creating
// the same activity twice; the loose key is the normalized title alone and
// catches re-entries whose metadata has drifted (a changed time string, a
// reworded location).

// StrictKey returns the normalized (title, category, location, time) identity
// signature of a record.
func StrictKey(r Record) string {
	return fmt.Sprintf("%s|%s|%s|%s",
		normalizeField(r.Title),
		normalizeField(r.Category),
		normalizeField(r.Location),
		normalizeField(r.Time))
}

// LooseKey returns the normalized title identity signature of a record.
func LooseKey(r Record) string {
	return normalizeField(r.Title)
}

// ContentHash returns a stable hash of the strict key, suitable for storage
// and cross-source comparison.
func ContentHash(r Record) string {
	hash := sha256.Sum256([]byte(StrictKey(r)))
	return hex.EncodeToString(hash[:])
}
