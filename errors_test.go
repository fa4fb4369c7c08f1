package folio

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"github.com/tsawler/folio/pages"
	"github.com/tsawler/folio/reader"
	"github.com/tsawler/folio/render"
	"github.com/tsawler/folio/security"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, KindUnknown},
		{"plain", errors.New("boom"), KindUnknown},
		{"empty source", reader.ErrEmptySource, KindFile},
		{"missing file", fmt.Errorf("%w: %w", reader.ErrRead, fs.ErrNotExist), KindFile},
		{"not pdf", reader.ErrNotPDF, KindFormat},
		{"malformed", fmt.Errorf("%w: bad xref", reader.ErrMalformed), KindFormat},
		{"no page tree", pages.ErrNoPageTree, KindFormat},
		{"password required", security.ErrPasswordRequired, KindPassword},
		{"wrong password", security.ErrIncorrectPassword, KindPassword},
		{"unsupported handler", security.ErrUnsupported, KindSecurity},
		{"page not found", pages.ErrPageNotFound, KindPage},
		{"zero area", pages.ErrZeroArea, KindPage},
		{"render nil page", render.ErrNilPage, KindPage},
		{"engine error", &Error{Kind: KindSecurity, Err: errors.New("x")}, KindSecurity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestErrorIs(t *testing.T) {
	err := wrap("open", -1, security.ErrIncorrectPassword, KindFormat)
	if !errors.Is(err, ErrPassword) {
		t.Errorf("expected %v to match ErrPassword", err)
	}
	if errors.Is(err, ErrFormat) {
		t.Error("expected no match with ErrFormat")
	}
	if !errors.Is(err, security.ErrIncorrectPassword) {
		t.Error("expected the cause to stay reachable")
	}
}

func TestWrap(t *testing.T) {
	if wrap("render", 0, nil, KindPage) != nil {
		t.Error("expected nil for a nil cause")
	}

	err := wrap("render", 3, errors.New("bad operator"), KindPage)
	var fe *Error
	if !errors.As(err, &fe) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if fe.Kind != KindPage || fe.Page != 3 || fe.Op != "render" {
		t.Errorf("unexpected fields %+v", fe)
	}
	if again := wrap("outer", 1, err, KindFile); again != err {
		t.Error("expected engine errors to pass through unchanged")
	}
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Kind: KindPage, Op: "load page", Page: 2, Err: errors.New("no such page")}
	want := "load page: page 2: Page not found or content error. (no such page)"
	if got := err.Error(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if got := ErrFormat.Error(); got != "File not in PDF format or corrupted." {
		t.Errorf("unexpected sentinel message %q", got)
	}
}

func TestErrorKindString(t *testing.T) {
	kinds := map[ErrorKind]string{
		KindUnknown:  "UnknownError",
		KindFile:     "FileError",
		KindFormat:   "FormatError",
		KindPassword: "PasswordError",
		KindSecurity: "SecurityError",
		KindPage:     "PageError",
	}
	for k, want := range kinds {
		if got := k.String(); got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	}
	if got := ErrorKind(42).String(); !strings.HasPrefix(got, "ErrorKind(") {
		t.Errorf("unexpected name for unknown kind %q", got)
	}
}
