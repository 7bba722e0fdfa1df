package inventory

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateKey  = errors.New("a server with this serial number already exists")
	ErrNotFound      = errors.New("no server found with this serial number")
	ErrEmptyStore    = errors.New("no servers found to export")
	ErrInvalidRecord = errors.New("invalid server record")

	// ErrStorageIO matches any *StorageError via errors.Is.
	ErrStorageIO = errors.New("storage i/o error")
)

// StorageError describes a failed read or write of a store or export file.
type StorageError struct {
	Op   string // "read", "write", "export"
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorageIO }

func storageErr(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Path: path, Err: err}
}
