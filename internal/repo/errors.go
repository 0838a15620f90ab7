package repo

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("repo: document not found")
	// ErrDuplicate is returned when a unique index rejects a write.
	ErrDuplicate = errors.New("repo: duplicate document")
	// ErrInsufficientStock is returned when a guarded stock decrement
	// would take a plant below zero.
	ErrInsufficientStock = errors.New("repo: insufficient stock")
	// ErrConflict is returned when a conditional update matched nothing,
	// typically a status transition raced by another writer.
	ErrConflict = errors.New("repo: conflicting update")
)

func translateFindErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func translateWriteErr(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}
