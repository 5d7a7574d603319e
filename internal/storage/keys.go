package storage

// Key layout: "url:{owner}:{slug}". Owner identifiers never contain the
// separator character; the verifier rejects subjects that would.

const keyPrefix = "url:"

// RecordKey returns the storage key for an owner's slug.
func RecordKey(owner, slug string) string {
	return keyPrefix + owner + ":" + slug
}

// OwnerPrefix returns the key prefix shared by all of an owner's records
// and no other owner's.
func OwnerPrefix(owner string) string {
	return keyPrefix + owner + ":"
}
