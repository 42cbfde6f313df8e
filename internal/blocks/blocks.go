// Package blocks defines the structured content-block body of a post and
// validates it before persistence. A post body is an ordered list of typed
// segments (title, paragraph, image, subtitle, list, quote), each carrying
// type-specific metadata.
package blocks

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Type identifies the kind of a content block.
type Type string

const (
	TypeTitle     Type = "title"
	TypeParagraph Type = "paragraph"
	TypeImage     Type = "image"
	TypeSubtitle  Type = "subtitle"
	TypeList      Type = "list"
	TypeQuote     Type = "quote"
)

// List kinds accepted in Metadata.ListType.
const (
	ListOrdered   = "ordered"
	ListUnordered = "unordered"
)

// DefaultImageAlt is the alt text applied to image blocks that don't set one.
const DefaultImageAlt = "Post image"

// Heading level bounds for title and subtitle blocks.
const (
	minHeadingLevel = 1
	maxHeadingLevel = 6
)

// Metadata carries the type-specific optional fields of a block. Which
// fields are meaningful depends on the block type; Validate enforces the
// per-type rules.
type Metadata struct {
	Level        *int   `json:"level,omitempty"`        // title, subtitle
	Alignment    string `json:"alignment,omitempty"`    // any
	ImageAlt     string `json:"imageAlt,omitempty"`     // image
	ImageCaption string `json:"imageCaption,omitempty"` // image
	ListType     string `json:"listType,omitempty"`     // list
	QuoteAuthor  string `json:"quoteAuthor,omitempty"`  // quote
}

// Block is one typed segment of a post body. Blocks are stored as a JSONB
// array on the post row, sorted by Order.
type Block struct {
	ID       string   `json:"id"`
	Type     Type     `json:"type"`
	Content  string   `json:"content"`
	Order    int      `json:"order"`
	Metadata Metadata `json:"metadata,omitempty"`
}

// ValidationError reports the first invalid block found, positioned
// 1-indexed in order-sorted sequence.
type ValidationError struct {
	Position int    // 0 when the error is about the list itself
	Reason   string
}

func (e *ValidationError) Error() string {
	if e.Position == 0 {
		return e.Reason
	}
	return fmt.Sprintf("block %d: %s", e.Position, e.Reason)
}

// Validate checks an ordered list of content blocks and returns a sorted
// copy ready for persistence. The input is sorted by Order ascending with a
// stable sort, so blocks sharing an Order value keep their relative input
// position. Missing block IDs are generated; image blocks without alt text
// get DefaultImageAlt. The first offending block in sorted order is
// reported in the returned *ValidationError.
func Validate(in []Block) ([]Block, error) {
	if len(in) == 0 {
		return nil, &ValidationError{Reason: "content blocks are required"}
	}

	out := make([]Block, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })

	for i := range out {
		b := &out[i]
		pos := i + 1

		if b.Type == "" {
			return nil, &ValidationError{Position: pos, Reason: "type is required"}
		}
		if b.Content == "" {
			return nil, &ValidationError{Position: pos, Reason: "content is required"}
		}
		if b.ID == "" {
			b.ID = uuid.NewString()
		}

		switch b.Type {
		case TypeTitle, TypeSubtitle:
			if b.Metadata.Level != nil {
				if l := *b.Metadata.Level; l < minHeadingLevel || l > maxHeadingLevel {
					return nil, &ValidationError{
						Position: pos,
						Reason:   fmt.Sprintf("heading level must be between %d and %d", minHeadingLevel, maxHeadingLevel),
					}
				}
			}
		case TypeImage:
			if b.Metadata.ImageAlt == "" {
				b.Metadata.ImageAlt = DefaultImageAlt
			}
		case TypeList:
			if lt := b.Metadata.ListType; lt != "" && lt != ListOrdered && lt != ListUnordered {
				return nil, &ValidationError{
					Position: pos,
					Reason:   "list type must be ordered or unordered",
				}
			}
		case TypeParagraph, TypeQuote:
			// No extra metadata rules.
		default:
			return nil, &ValidationError{Position: pos, Reason: fmt.Sprintf("unknown block type %q", b.Type)}
		}
	}

	return out, nil
}
