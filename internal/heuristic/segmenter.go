// internal/heuristic/segmenter.go
package heuristic

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Corphon/ContinuityGuard/internal/models"
)

const (
	// FallbackHeader names the single scene synthesized for a header-less script.
	FallbackHeader = "INT. UNKNOWN SCENE - DAY"
	// NoScenesHeader names the sentinel scene of a near-empty script.
	NoScenesHeader = "NO SCENES DETECTED"

	noScenesID      = "0"
	noScenesSummary = "Please check script format."
	unknownLocation = "UNKNOWN"
	unknownHeader   = "UNKNOWN"
)

// StubKind distinguishes real sluglines from synthesized scenes.
type StubKind int

const (
	StubSlugline StubKind = iota
	StubFallback
	StubNoScenes
)

// SceneStub is a segmented scene before costing.
type SceneStub struct {
	Ordinal  int
	Header   string
	Location string
	Time     models.TimeOfDay
	// Window is the uppercased text the estimator classifies.
	Window string
	Kind   StubKind
}

// ID is the wire identity of the scene.
func (s SceneStub) ID() string {
	if s.Kind == StubNoScenes {
		return noScenesID
	}
	return strconv.Itoa(s.Ordinal)
}

var (
	sluglinePattern = regexp.MustCompile(`^\s*(?i:int|ext)[.\s]`)
	markerPrefix    = regexp.MustCompile(`^(?:(?:INT|EXT)(?:[.\s/]+|$))+`)
)

// Segmenter splits a document into scene stubs.
type Segmenter struct {
	fallbackThreshold int
	windowSize        int
}

// NewSegmenter builds a Segmenter from the rule tables.
func NewSegmenter(rules Rules) *Segmenter {
	return &Segmenter{
		fallbackThreshold: rules.FallbackThreshold,
		windowSize:        rules.WindowSize,
	}
}

type sluglineHit struct {
	header string
	offset int
}

// Segment always returns at least one stub.
func (s *Segmenter) Segment(doc string) []SceneStub {
	hits := findSluglines(doc)

	if len(hits) == 0 {
		if utf8.RuneCountInString(doc) > s.fallbackThreshold {
			return []SceneStub{{
				Ordinal:  1,
				Header:   FallbackHeader,
				Location: deriveLocation(FallbackHeader),
				Time:     deriveTime(FallbackHeader),
				Window:   strings.ToUpper(doc),
				Kind:     StubFallback,
			}}
		}
		return []SceneStub{{
			Header:   NoScenesHeader,
			Location: unknownLocation,
			Time:     models.TimeUnknown,
			Kind:     StubNoScenes,
		}}
	}

	stubs := make([]SceneStub, 0, len(hits))
	for i, hit := range hits {
		end := len(doc)
		if i+1 < len(hits) {
			end = hits[i+1].offset
		}
		stubs = append(stubs, SceneStub{
			Ordinal:  i + 1,
			Header:   hit.header,
			Location: deriveLocation(hit.header),
			Time:     deriveTime(hit.header),
			Window:   s.window(doc, hit, end),
			Kind:     StubSlugline,
		})
	}
	return stubs
}

func findSluglines(doc string) []sluglineHit {
	var hits []sluglineHit
	offset := 0
	for _, line := range strings.SplitAfter(doc, "\n") {
		text := strings.TrimRight(line, "\r\n")
		if sluglinePattern.MatchString(text) {
			hits = append(hits, sluglineHit{header: text, offset: offset})
		}
		offset += len(line)
	}
	return hits
}

// window returns the uppercased text from the header up to the next slugline,
// capped at windowSize characters.
func (s *Segmenter) window(doc string, hit sluglineHit, end int) string {
	start := hit.offset
	if start < 0 || start > len(doc) || !strings.HasPrefix(doc[start:], hit.header) {
		start = strings.Index(doc, hit.header)
		if start < 0 {
			return ""
		}
		end = len(doc)
	}
	if end < start {
		end = len(doc)
	}
	return strings.ToUpper(truncateRunes(doc[start:end], s.windowSize))
}

func deriveTime(header string) models.TimeOfDay {
	upper := strings.ToUpper(header)
	switch {
	case strings.Contains(upper, "DAY"):
		return models.TimeDay
	case strings.Contains(upper, "NIGHT"):
		return models.TimeNight
	default:
		return models.TimeUnknown
	}
}

func deriveLocation(header string) string {
	upper := strings.ToUpper(strings.TrimSpace(header))
	upper = markerPrefix.ReplaceAllString(upper, "")
	upper = strings.ReplaceAll(upper, ".", "")
	if i := strings.Index(upper, "-"); i >= 0 {
		upper = upper[:i]
	}
	return strings.TrimSpace(upper)
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}
