package feed

import (
	"bytes"
	"fmt"

	"github.com/mmcdole/gofeed"
)

// Parser extracts channel metadata from raw feed content for the database
// and the status API. The rewriting engine operates on the raw XML tree and
// never consumes this parse.
type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

func (p *Parser) Run(data []byte) (*Metadata, error) {
	parsed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	metadata := &Metadata{
		Title:       parsed.Title,
		Link:        parsed.Link,
		Description: parsed.Description,
		Language:    parsed.Language,
	}

	if parsed.PublishedParsed != nil {
		metadata.PublishedAt = parsed.PublishedParsed
	}

	return metadata, nil
}
