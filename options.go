package folio

import (
	"log/slog"

	"github.com/tsawler/folio/graphicsstate"
)

// Option configures an Engine.
type Option func(*options)

type options struct {
	logger       *slog.Logger
	repair       bool
	maxFormDepth int
	fontCache    bool
}

func defaultOptions() options {
	return options{
		repair:       true,
		maxFormDepth: graphicsstate.DefaultMaxFormDepth,
		fontCache:    true,
	}
}

// WithLogger installs l as the logger of every folio package. The
// logger is process-wide; the last engine created with a logger wins.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithRepair enables or disables rebuilding damaged cross-reference
// tables when opening documents (default: enabled).
func WithRepair(repair bool) Option {
	return func(o *options) {
		o.repair = repair
	}
}

// WithMaxFormDepth limits nested form XObjects and Type 3 glyphs while
// rendering and extracting text.
func WithMaxFormDepth(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxFormDepth = n
		}
	}
}

// WithFontCache shares loaded fonts between the pages of a document
// (default: enabled). Without it every render and text load parses its
// fonts again.
func WithFontCache(enabled bool) Option {
	return func(o *options) {
		o.fontCache = enabled
	}
}

// RenderOptions holds configuration for RenderPage.
type RenderOptions struct {
	// Annotations draws the normal appearance of visible annotations.
	Annotations bool

	// Rotation is added to the page's own rotation: 0, 90, 180 or 270
	// degrees clockwise.
	Rotation int

	// ReverseByteOrder writes RGBA instead of BGRA pixels.
	ReverseByteOrder bool
}

// DefaultRenderOptions returns the default render options.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{}
}
