// Package docid derives stable document IDs from storage locations.
package docid

import (
	"github.com/google/uuid"
)

// Location returns the canonical URL of an object, "s3://bucket/key".
func Location(bucket, key string) string {
	return "s3://" + bucket + "/" + key
}

// FromLocation returns the name-based (version 5, URL namespace) UUID of the object location.
// Re-ingesting the same object always yields the same ID.
func FromLocation(bucket, key string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(Location(bucket, key))).String()
}

// Random returns a fresh version 4 UUID, used when a location-derived ID cannot be trusted.
func Random() string {
	return uuid.NewString()
}
