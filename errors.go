package folio

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/tsawler/folio/pages"
	"github.com/tsawler/folio/reader"
	"github.com/tsawler/folio/render"
	"github.com/tsawler/folio/security"
	"github.com/tsawler/folio/text"
)

// ErrorKind is the class of an engine failure.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindFile
	KindFormat
	KindPassword
	KindSecurity
	KindPage
)

var kindNames = [...]string{
	KindUnknown:  "UnknownError",
	KindFile:     "FileError",
	KindFormat:   "FormatError",
	KindPassword: "PasswordError",
	KindSecurity: "SecurityError",
	KindPage:     "PageError",
}

var kindDescriptions = [...]string{
	KindUnknown:  "Unknown error.",
	KindFile:     "File not found or could not be opened.",
	KindFormat:   "File not in PDF format or corrupted.",
	KindPassword: "Incorrect password.",
	KindSecurity: "Unsupported security scheme.",
	KindPage:     "Page not found or content error.",
}

// String returns the kind name, such as "FormatError".
func (k ErrorKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
	return kindNames[k]
}

// Description returns the user-facing message for the kind.
func (k ErrorKind) Description() string {
	if k < 0 || int(k) >= len(kindDescriptions) {
		return kindDescriptions[KindUnknown]
	}
	return kindDescriptions[k]
}

// Error is returned by every Engine method that fails.
type Error struct {
	Kind ErrorKind
	Op   string // engine operation, such as "open" or "render"
	Page int    // page index, or -1
	Err  error  // underlying cause
}

// Sentinel kinds for errors.Is:
//
//	if errors.Is(err, folio.ErrPassword) { ... ask again ... }
var (
	ErrFile     = &Error{Kind: KindFile, Page: -1}
	ErrFormat   = &Error{Kind: KindFormat, Page: -1}
	ErrPassword = &Error{Kind: KindPassword, Page: -1}
	ErrSecurity = &Error{Kind: KindSecurity, Page: -1}
	ErrPage     = &Error{Kind: KindPage, Page: -1}
	ErrUnknown  = &Error{Kind: KindUnknown, Page: -1}
)

// ErrInvalidHandle is wrapped by errors for stale, freed, zero or
// foreign handles.
var ErrInvalidHandle = errors.New("invalid handle")

func (e *Error) Error() string {
	msg := e.Kind.Description()
	if e.Page >= 0 {
		msg = fmt.Sprintf("page %d: %s", e.Page, msg)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += " (" + e.Err.Error() + ")"
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

// KindOf classifies err. Errors that are not engine errors are matched
// against the loader, security, page and render sentinels.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	switch {
	case errors.Is(err, security.ErrPasswordRequired), errors.Is(err, security.ErrIncorrectPassword):
		return KindPassword
	case errors.Is(err, security.ErrUnsupported):
		return KindSecurity
	case errors.Is(err, reader.ErrEmptySource), errors.Is(err, reader.ErrRead),
		errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		return KindFile
	case errors.Is(err, reader.ErrNotPDF), errors.Is(err, reader.ErrMalformed),
		errors.Is(err, pages.ErrNoPageTree):
		return KindFormat
	case errors.Is(err, pages.ErrPageNotFound), errors.Is(err, pages.ErrInvalidPage),
		errors.Is(err, pages.ErrZeroArea), errors.Is(err, render.ErrNilPage),
		errors.Is(err, text.ErrNilPage):
		return KindPage
	}
	return KindUnknown
}

// wrap builds an engine error for op. Unclassified causes get fallback.
func wrap(op string, page int, err error, fallback ErrorKind) error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return err
	}
	kind := KindOf(err)
	if kind == KindUnknown {
		kind = fallback
	}
	return &Error{Kind: kind, Op: op, Page: page, Err: err}
}

func invalidHandle(op string) error {
	return &Error{Kind: KindUnknown, Op: op, Page: -1, Err: ErrInvalidHandle}
}
