package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"snippetmanager/internal/config"
	"snippetmanager/internal/medium"
	"snippetmanager/internal/snippet"
	"snippetmanager/internal/storage"
)

const (
	ExitCodeSuccess     = 0
	ExitCodeGeneric     = 1
	ExitCodeUsage       = 2
	ExitCodeNotFound    = 3
	ExitCodeInvalidData = 4
	ExitCodeUnavailable = 5
	ExitCodeIO          = 7
)

type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *ExitError) ExitCode() int {
	if e == nil {
		return ExitCodeGeneric
	}
	return e.Code
}

func asExitError(code int, err error) error {
	if err == nil {
		return nil
	}
	var withExit interface{ ExitCode() int }
	if errors.As(err, &withExit) {
		return err
	}
	return &ExitError{Code: code, Err: err}
}

func mapCommandError(err error) error {
	if err == nil {
		return nil
	}
	var withExit interface{ ExitCode() int }
	if errors.As(err, &withExit) {
		return err
	}

	switch {
	case errors.Is(err, snippet.ErrNotFound):
		return asExitError(ExitCodeNotFound, err)
	case errors.Is(err, snippet.ErrTitleRequired),
		errors.Is(err, snippet.ErrContentRequired),
		errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, storage.ErrInvalidKey):
		return asExitError(ExitCodeUsage, err)
	case errors.Is(err, snippet.ErrInvalidImport),
		errors.Is(err, snippet.ErrNothingToExport):
		return asExitError(ExitCodeInvalidData, err)
	case errors.Is(err, medium.ErrClosed), errors.Is(err, errStorageUnavailable):
		return asExitError(ExitCodeUnavailable, err)
	}

	var pathErr *fs.PathError
	if errors.As(err, &pathErr) || errors.Is(err, os.ErrNotExist) {
		return asExitError(ExitCodeIO, err)
	}
	return asExitError(ExitCodeGeneric, err)
}

func usageErrorf(format string, args ...any) error {
	return &ExitError{
		Code: ExitCodeUsage,
		Err:  fmt.Errorf(format, args...),
	}
}
