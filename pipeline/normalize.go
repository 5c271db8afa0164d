package pipeline

import (
	"strings"
	"time"

	"github.com/poiesic/recall/core"
)

// embedTextLimit caps the text fed to the embedder. Titles carry most
// of the signal; long article bodies add latency, not accuracy.
const embedTextLimit = 512

// Normalize turns a raw source item into a candidate: deterministic
// URL-derived ID plus the normalized title hash. The embedding vector
// is attached separately by the ingestion phase.
func Normalize(item core.RawItem) (*core.CandidateItem, error) {
	if err := core.ValidateRawItem(&item); err != nil {
		return nil, err
	}

	return &core.CandidateItem{
		RawItem:    item,
		Id:         core.IDFromContent(core.NormalizeURL(item.URL)),
		TitleHash:  core.TitleHashOf(item.Title),
		InsertedAt: time.Now().UTC(),
	}, nil
}

// EmbedText builds the text embedded for an item: title plus content,
// truncated.
func EmbedText(item *core.CandidateItem) string {
	text := item.Title + " " + item.Content
	if len(text) > embedTextLimit {
		text = text[:embedTextLimit]
		// Avoid splitting a multi-byte rune at the cut point
		text = strings.ToValidUTF8(text, "")
	}
	return text
}
