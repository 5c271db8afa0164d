package core

import (
	"encoding/binary"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is derived from content so that identical content produces identical IDs.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Source identifies where a raw item was fetched from.
type Source int

const (
	// SourceHackerNews is the Hacker News Firebase API.
	SourceHackerNews Source = iota + 1
	// SourceReddit is a subreddit .rss feed.
	SourceReddit
	// SourceRSS is a plain RSS/Atom feed.
	SourceRSS
)

// String returns the display name of the source.
func (s Source) String() string {
	switch s {
	case SourceHackerNews:
		return "HackerNews"
	case SourceReddit:
		return "Reddit"
	case SourceRSS:
		return "RSS"
	default:
		return "Unknown"
	}
}

// PersonaID names an interest profile.
type PersonaID string

// RawItem is a content item as produced by a source fetcher.
// Immutable once created.
type RawItem struct {
	Source      Source
	ExternalID  string
	Title       string
	URL         string
	Content     string // may be empty
	Author      string
	SourceScore int // source popularity, e.g. upvotes
	PublishedAt time.Time
	FetchedAt   time.Time
}

// CandidateItem is a RawItem enriched for selection: deterministic ID,
// normalized title hash, embedding vector, and the personas whose
// pre-evaluation gate it cleared (with the similarity that cleared it).
// Read-only after creation.
type CandidateItem struct {
	RawItem
	Id         ID
	TitleHash  ID
	Vector     []float32
	Prefilter  map[PersonaID]float32
	InsertedAt time.Time
}

// PassedFor reports whether the item cleared the pre-evaluation gate
// for the given persona.
func (c *CandidateItem) PassedFor(persona PersonaID) bool {
	_, ok := c.Prefilter[persona]
	return ok
}

// PersonaProfile is the per-persona configuration for one pipeline run.
// Loaded once per run; never mutated mid-run.
type PersonaProfile struct {
	Id            PersonaID
	Title         string // display heading in the digest
	Brief         string // evaluator role and selection guidelines, verbatim in the prompt
	AnchorText    string // embedded once per run into AnchorVector
	AnchorVector  []float32
	MinRelevance  float32 // ingestion-time gate
	EvalThreshold float32 // pre-evaluation gate
	MinScore      int     // decision cutoff: verdicts must score strictly above
	TopK          int     // digest section cap
	Enabled       bool
}

// Decision is the evaluator's keep/drop call for one (item, persona) pair.
type Decision int

const (
	// DecisionDrop discards the item for the persona.
	DecisionDrop Decision = iota
	// DecisionKeep marks the item as digest-worthy for the persona.
	DecisionKeep
)

// String returns the wire form of the decision.
func (d Decision) String() string {
	if d == DecisionKeep {
		return "KEEP"
	}
	return "DROP"
}

// EvaluationVerdict is a persona's judgement of one item.
// Produced by the evaluator, one per (item, persona) pair that passed
// the persona's pre-evaluation gate and yielded a parseable response line.
type EvaluationVerdict struct {
	ItemId   ID
	Persona  PersonaID
	Score    int // 0-10
	Decision Decision
	Insight  string
}

// Assignment allocates an item to at most one persona.
// A zero Persona means the item is unassigned and excluded from the digest.
type Assignment struct {
	ItemId  ID
	Persona PersonaID
	Score   int
}

// Assigned reports whether the item won a persona.
func (a Assignment) Assigned() bool {
	return a.Persona != ""
}

// DigestEntry pairs a selected item with the winning persona's verdict.
type DigestEntry struct {
	Item    *CandidateItem
	Verdict EvaluationVerdict
}

// DigestSection is the compiled output for one persona: ranked entries,
// capped at the persona's TopK, plus a synthesized summary.
type DigestSection struct {
	Persona PersonaID
	Title   string
	Entries []DigestEntry
	Summary string
}

// Digest is the final multi-section document for one run.
type Digest struct {
	Date             time.Time
	Sections         []DigestSection
	ExecutiveSummary string
	Markdown         string
}

// NormalizeTitle lowercases a title and strips everything that is not a
// letter or digit, so that trivial reformattings hash identically.
func NormalizeTitle(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// TitleHashOf returns the ID of the normalized title.
func TitleHashOf(title string) ID {
	return IDFromContent(NormalizeTitle(title))
}

// NormalizeURL canonicalizes a URL for duplicate detection: scheme and
// host are lowercased, default ports, fragments, and trailing slashes
// are dropped. Unparseable URLs are returned trimmed as-is.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)
	switch {
	case u.Scheme == "http" && strings.HasSuffix(host, ":80"):
		host = strings.TrimSuffix(host, ":80")
	case u.Scheme == "https" && strings.HasSuffix(host, ":443"):
		host = strings.TrimSuffix(host, ":443")
	}
	u.Host = host
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}
