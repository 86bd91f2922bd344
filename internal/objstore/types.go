// Package objstore holds the domain types shared by every coordinator and
// catalog implementation: objects, blobs, storage classes, and the lifecycle
// state machine that governs transitions between object statuses.
package objstore

import (
	"regexp"
	"time"
)

// StorageClass is the tier a blob's bytes live on. Immutable after an
// object is reserved.
type StorageClass string

const (
	StorageHot  StorageClass = "hot"
	StorageCold StorageClass = "cold"
)

// Valid reports whether c is one of the known storage classes.
func (c StorageClass) Valid() bool {
	return c == StorageHot || c == StorageCold
}

// Status is the lifecycle state of a logical Object.
type Status string

const (
	StatusWriting   Status = "WRITING"
	StatusCommitted Status = "COMMITTED"
	StatusDeleting  Status = "DELETING"
	StatusDeleted   Status = "DELETED"
)

// transitionWhitelist enumerates every (from, to) pair allowed by §3.1.
// A row never regresses in lifecycle order.
var transitionWhitelist = map[Status]map[Status]bool{
	StatusWriting:   {StatusCommitted: true},
	StatusCommitted: {StatusDeleting: true},
	StatusDeleting:  {StatusDeleted: true},
}

// CanTransition reports whether from -> to is a permitted lifecycle move.
func CanTransition(from, to Status) bool {
	next, ok := transitionWhitelist[from]
	if !ok {
		return false
	}
	return next[to]
}

// AllowedPriors returns the statuses a row may have been in immediately
// before transitioning to target, per the §3.1 whitelist. Used by the
// catalog to perform a conditional UPDATE ... WHERE status IN (...) as the
// single-statement transition check.
func AllowedPriors(target Status) []Status {
	var priors []Status
	for from, tos := range transitionWhitelist {
		if tos[target] {
			priors = append(priors, from)
		}
	}
	return priors
}

// namespacePattern enforces §3.1: 1-64 chars, [a-z0-9_-], already lowercased
// by the caller.
var namespacePattern = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)

// ValidNamespace reports whether ns satisfies the namespace shape rule.
func ValidNamespace(ns string) bool {
	return namespacePattern.MatchString(ns)
}

// sha256HexPattern matches exactly 64 lowercase hex digits.
var sha256HexPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// ValidContentHash reports whether h is a well-formed lowercase hex SHA-256.
func ValidContentHash(h string) bool {
	return sha256HexPattern.MatchString(h)
}

// Object is the logical entity described in §3.1.
type Object struct {
	ID            string
	Namespace     string
	TenantID      string
	Key           string // empty means unset
	Status        Status
	StorageClass  StorageClass
	ContentHash   string // empty until commit
	SizeBytes     int64  // 0 / meaningless until commit; use HasContent
	ContentType   string
	Metadata      Metadata
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasContent reports whether the object carries a committed hash/size pair,
// matching the invariant status=COMMITTED ⇒ content_hash≠null ∧ size_bytes≠null.
func (o *Object) HasContent() bool {
	return o.ContentHash != "" && o.Status != StatusWriting
}

// Blob is the physical entity described in §3.2.
type Blob struct {
	ContentHash  string
	StorageClass StorageClass
	SizeBytes    int64
	RefCount     int64
	CreatedAt    time.Time
}
