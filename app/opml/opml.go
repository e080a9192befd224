package opml

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/beevik/etree"
	"github.com/google/uuid"
)

// FeedRef pairs a feed's source URL with the published filename it maps to
// under the target directory. The list is persisted to the feeds JSON file
// so filenames stay stable across runs.
type FeedRef struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// Dom is a parsed OPML document plus the feed references collected while
// patching it.
type Dom struct {
	doc      *etree.Document
	filename string
	feeds    []FeedRef
}

var sanitizeRegex = regexp.MustCompile(`[^a-zA-Z0-9]+`)

func convertURLToFilename(url string) string {
	return sanitizeRegex.ReplaceAllString(url, "_") + ".rss"
}

// uniqueFilename prefixes the sanitized URL with a random UUID so that two
// distinct subscriptions to cosmetically equal URLs never collide on disk.
func uniqueFilename(url string) string {
	return uuid.NewString() + convertURLToFilename(url)
}

func Open(filename string) (*Dom, error) {
	slog.Debug("Reading OPML file", "path", filename)

	doc := etree.NewDocument()
	if err := doc.ReadFromFile(filename); err != nil {
		return nil, fmt.Errorf("OPML file %s cannot be parsed: %w", filename, err)
	}

	return &Dom{
		doc:      doc,
		filename: filename,
	}, nil
}

// Modify patches every outline in place: titles get a "DD_" prefix marking
// them as deduplicated subscriptions, and each xmlUrl is rewritten to
// urlPrefix plus a unique target filename. Outlines already carrying the
// prefix keep their existing filename, resolved through previous (a map
// from filename to original source URL). Must not be called twice on the
// same Dom.
func (d *Dom) Modify(urlPrefix string, previous map[string]string) {
	if len(d.feeds) > 0 {
		panic("opml: Modify called twice on the same document")
	}

	slog.Info("Patching OPML file", "path", d.filename, "url_prefix", urlPrefix)
	d.modifyElement(d.doc.Root(), urlPrefix, previous)
}

func (d *Dom) modifyElement(el *etree.Element, urlPrefix string, previous map[string]string) {
	if el == nil {
		return
	}

	if el.Tag == "outline" {
		d.modifyOutline(el, urlPrefix, previous)
	}

	for _, child := range el.ChildElements() {
		d.modifyElement(child, urlPrefix, previous)
	}
}

func (d *Dom) modifyOutline(el *etree.Element, urlPrefix string, previous map[string]string) {
	title := el.SelectAttrValue("title", "")
	patched := strings.HasPrefix(title, "DD_")

	if !patched {
		if title != "" {
			el.CreateAttr("title", "DD_"+title)
		}
		if text := el.SelectAttrValue("text", ""); text != "" {
			el.CreateAttr("text", "DD_"+text)
		}
	}

	xmlURL := el.SelectAttrValue("xmlUrl", "")
	if xmlURL == "" {
		return
	}

	if !patched {
		filename := uniqueFilename(xmlURL)
		el.CreateAttr("xmlUrl", urlPrefix+filename)
		slog.Info("Added new feed", "url", xmlURL, "filename", filename)
		d.feeds = append(d.feeds, FeedRef{URL: xmlURL, Filename: filename})
		return
	}

	// Already patched: recover the filename from the rewritten URL and the
	// source URL from the previous feed list.
	filename := strings.TrimPrefix(xmlURL, urlPrefix)
	if sourceURL, ok := previous[filename]; ok {
		d.feeds = append(d.feeds, FeedRef{URL: sourceURL, Filename: filename})
	} else {
		slog.Error("Cannot find existing feed", "xml_url", xmlURL)
	}
}

// Feeds returns the references collected by Modify.
func (d *Dom) Feeds() []FeedRef {
	return d.feeds
}

// Write emits the patched OPML with the same fixed indentation as the
// published feeds.
func (d *Dom) Write(filename string) error {
	slog.Info("Writing OPML file", "path", filename)

	d.doc.Indent(4)
	if err := d.doc.WriteToFile(filename); err != nil {
		return fmt.Errorf("OPML file %s cannot be written: %w", filename, err)
	}
	return nil
}

// SaveFeeds persists the collected feed references as JSON.
func (d *Dom) SaveFeeds(filename string) error {
	slog.Info("Writing feeds file", "path", filename, "feeds", len(d.feeds))

	data, err := json.MarshalIndent(d.feeds, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot serialize feeds: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("cannot write feeds file %s: %w", filename, err)
	}
	return nil
}

// ReadFeeds loads the persisted feed references.
func ReadFeeds(filename string) ([]FeedRef, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot read feeds file %s: %w", filename, err)
	}

	var feeds []FeedRef
	if err := json.Unmarshal(data, &feeds); err != nil {
		return nil, fmt.Errorf("cannot deserialize feeds file %s: %w", filename, err)
	}
	return feeds, nil
}
