package font

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
)

// Substitute faces, indexed by style.
const (
	faceRegular = iota
	faceBold
	faceItalic
	faceBoldItalic
	faceMono
	faceMonoBold
	faceMonoItalic
	faceMonoBoldItalic
	numFaces
)

var faceData = [numFaces][]byte{
	faceRegular:        goregular.TTF,
	faceBold:           gobold.TTF,
	faceItalic:         goitalic.TTF,
	faceBoldItalic:     gobolditalic.TTF,
	faceMono:           gomono.TTF,
	faceMonoBold:       gomonobold.TTF,
	faceMonoItalic:     gomonoitalic.TTF,
	faceMonoBoldItalic: gomonobolditalic.TTF,
}

var (
	faceMu sync.Mutex
	faces  *[numFaces]*sfnt.Font
)

// InitFallbacks parses the substitute faces used for fonts that are not
// embedded. Calls after a successful one do nothing until
// ReleaseFallbacks.
func InitFallbacks() error {
	faceMu.Lock()
	defer faceMu.Unlock()
	return initFaces()
}

func initFaces() error {
	if faces != nil {
		return nil
	}
	var set [numFaces]*sfnt.Font
	for i, data := range faceData {
		f, err := sfnt.Parse(data)
		if err != nil {
			return fmt.Errorf("parse substitute face %d: %w", i, err)
		}
		set[i] = f
	}
	faces = &set
	return nil
}

// ReleaseFallbacks drops the parsed substitute faces. Fonts loaded
// before the call keep the face they were given.
func ReleaseFallbacks() {
	faceMu.Lock()
	faces = nil
	faceMu.Unlock()
}

// FallbacksLoaded reports whether the substitute faces are parsed.
func FallbacksLoaded() bool {
	faceMu.Lock()
	defer faceMu.Unlock()
	return faces != nil
}

// fallbackFaces returns the substitute faces, parsing them on first use.
func fallbackFaces() *[numFaces]*sfnt.Font {
	faceMu.Lock()
	defer faceMu.Unlock()
	if initFaces() != nil {
		return nil
	}
	return faces
}

// substituteFace picks the face for a font named base. Courier and
// fixed-pitch fonts use Go Mono; everything else uses the proportional
// Go faces.
func substituteFace(base string, flags int) *sfnt.Font {
	set := fallbackFaces()
	if set == nil {
		return nil
	}
	name := strings.ToLower(stripSubset(base))
	mono := strings.Contains(name, "courier") || strings.Contains(name, "mono") || flags&FlagFixedPitch != 0
	bold := strings.Contains(name, "bold") || strings.Contains(name, "black") ||
		strings.Contains(name, "heavy") || flags&FlagForceBold != 0
	italic := strings.Contains(name, "italic") || strings.Contains(name, "oblique") || flags&FlagItalic != 0

	face := faceRegular
	if mono {
		face = faceMono
	}
	if bold {
		face++
	}
	if italic {
		face += 2
	}
	return set[face]
}
