// Package medium detects which durable storage medium the process uses and
// hands out a capability for it once that capability is ready.
//
// Detection happens once per process (see Default). The medium kind is known
// immediately, but its capability (file system access plus the application
// data directory, or an opened key-value store) is resolved asynchronously;
// until then the Handle reports StatePending and Await blocks.
package medium

import (
	"context"
	"fmt"
	"strings"

	"snippetmanager/internal/kv"
)

// Kind identifies the durable storage medium.
type Kind string

const (
	// KindFilesystem stores one JSON file per key (desktop shell).
	KindFilesystem Kind = "filesystem"
	// KindKeyValue stores one entry per key in a kv.Store (browser-style front end).
	KindKeyValue Kind = "keyvalue"
)

// AppDirName is the directory created under the application data directory.
const AppDirName = "snippet-manager"

// ParseKind accepts filesystem|keyvalue; "" and "auto" return "" (detect).
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return "", nil
	case string(KindFilesystem), "file", "fs", "desktop":
		return KindFilesystem, nil
	case string(KindKeyValue), "kv", "browser":
		return KindKeyValue, nil
	default:
		return "", fmt.Errorf("unknown medium %q", s)
	}
}

// State is the lifecycle of a Handle's capability.
type State int

const (
	// StatePending means the medium is known but its capability is not ready yet.
	StatePending State = iota
	// StateReady means Await returns a usable Capability.
	StateReady
	// StateFailed means the capability could not be initialized.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// FileSystem is the file access the filesystem medium needs.
type FileSystem interface {
	ReadFile(name string) ([]byte, error)
	// WriteFile replaces name with data.
	WriteFile(name string, data []byte) error
	// MkdirAll creates dir and parents; an existing directory is not an error.
	MkdirAll(dir string) error
	// ReadDir lists the names of regular files in dir.
	ReadDir(dir string) ([]string, error)
	Remove(name string) error
}

// PathResolver locates the per-user application data directory.
type PathResolver interface {
	AppDataDir(ctx context.Context) (string, error)
}

// Capability is what a ready Handle provides. Files and Paths are set for
// KindFilesystem; Store is set for KindKeyValue.
type Capability struct {
	Kind  Kind
	Files FileSystem
	Paths PathResolver
	Store kv.Store
}
