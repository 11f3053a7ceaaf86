// Package store persists JSON records for the storefront behind a uniform
// get/list/put/delete contract. Every backend stores whole records keyed by
// kind and id; nothing here knows what a product or an order looks like.
package store

import (
	"context"
	"errors"
)

// Kind names a family of records
type Kind string

const (
	KindProduct  Kind = "product"
	KindOrder    Kind = "order"
	KindUser     Kind = "user"
	KindDiscount Kind = "discount"
)

// Kinds lists every record family a backend must hold
var Kinds = []Kind{KindProduct, KindOrder, KindUser, KindDiscount}

// Collection is the plural name used for files, buckets and collections
func (k Kind) Collection() string {
	return string(k) + "s"
}

var (
	// ErrNotFound is returned by Get when no record has the id
	ErrNotFound = errors.New("record not found")
	// ErrUnavailable wraps failures to reach the backing store
	ErrUnavailable = errors.New("record store unavailable")
)

// Store is a keyed record store. Put is an upsert with last-write-wins
// semantics and Delete of a missing id is not an error.
type Store interface {
	Get(ctx context.Context, kind Kind, id string) ([]byte, error)
	List(ctx context.Context, kind Kind) ([][]byte, error)
	Put(ctx context.Context, kind Kind, id string, record []byte) error
	Delete(ctx context.Context, kind Kind, id string) error
	Close() error
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
