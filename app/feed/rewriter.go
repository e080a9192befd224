package feed

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/beevik/etree"
)

// Stats summarizes the item-level decisions of one rewriting pass.
type Stats struct {
	Kept              int
	Canonicalized     int
	DuplicatesRemoved int
	ExpiredRemoved    int
}

// Rewriter prunes and rewrites the items of a parsed feed document against
// the shared registry. Everything that is not an item (titles, descriptions,
// channel metadata) passes through untouched, so diffs between input and
// output only ever show item-level changes.
type Rewriter struct {
	registry *Registry
	maxAge   int // hours, 0 = unlimited
}

func NewRewriter(registry *Registry, maxAge int) *Rewriter {
	return &Rewriter{
		registry: registry,
		maxAge:   maxAge,
	}
}

// Run parses content, applies retention and dedup resolution to every item
// in document order, and re-serializes the tree with fixed indentation so
// that identical input and registry state always yield identical bytes.
func (rw *Rewriter) Run(content []byte, feedURL string) ([]byte, Stats, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(content); err != nil {
		return nil, Stats{}, newFeedError(feedURL, StageParse, err)
	}

	root := doc.Root()
	if root == nil {
		return nil, Stats{}, newFeedError(feedURL, StageParse, errors.New("document has no root element"))
	}

	var stats Stats
	now := time.Now().UTC()
	if err := rw.rewrite(root, "", feedURL, now, &stats); err != nil {
		return nil, Stats{}, err
	}

	doc.Indent(4)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, Stats{}, newFeedError(feedURL, StageParse, err)
	}

	return out, stats, nil
}

// rewrite descends the tree depth-first. The current channel identity is
// threaded through as a parameter so that nested channel blocks are scoped
// independently of their siblings.
func (rw *Rewriter) rewrite(el *etree.Element, channel, feedURL string, now time.Time, stats *Stats) error {
	switch el.Tag {
	case "channel":
		link, err := channelLink(el)
		if err != nil {
			return newFeedError(feedURL, StageStructure, err)
		}
		channel = link
	case "item":
		rw.resolveItem(el, channel, now, stats)
	}

	// ChildElements returns a snapshot, so removals below do not disturb
	// the iteration. Items are filtered before the recursion reaches them:
	// a dropped item never registers an identity.
	for _, child := range el.ChildElements() {
		if child.Tag == "item" && !rw.keepItem(child, channel, now, stats) {
			el.RemoveChild(child)
		}
	}

	for _, child := range el.ChildElements() {
		if err := rw.rewrite(child, channel, feedURL, now, stats); err != nil {
			return err
		}
	}

	return nil
}

// keepItem decides whether an item survives the pass: expired items go
// first, then items whose identity is owned by a different channel. Runs
// before the item itself is visited, so an expired or foreign item never
// touches the registry.
func (rw *Rewriter) keepItem(item *etree.Element, channel string, now time.Time, stats *Stats) bool {
	linkEl := childByLocalTag(item, "link")
	if linkEl == nil {
		stats.Kept++
		return true
	}
	link := strings.TrimSpace(linkEl.Text())

	if pd := childByLocalTag(item, "pubDate"); pd != nil {
		if !withinMaxAge(pd.Text(), rw.maxAge, now) {
			slog.Info("Removing expired item", "link", link, "pub_date", strings.TrimSpace(pd.Text()))
			stats.ExpiredRemoved++
			return false
		}
	}

	id, ok := ExtractIdentity(link)
	if !ok {
		// A link that is not a URL carries no identity; keep the item
		// rather than letting all such items collide on one key.
		stats.Kept++
		return true
	}

	if entry, exists := rw.registry.Lookup(id); exists && entry.Channel != channel {
		slog.Info("Removing duplicate item", "link", link, "owning_channel", entry.Channel, "channel", channel)
		stats.DuplicatesRemoved++
		return false
	}

	stats.Kept++
	return true
}

// resolveItem registers first sightings and canonicalizes repeats. An item
// reaching this point has already survived keepItem, so an existing entry
// can only belong to the current channel: its content is replaced with the
// canonical payload captured at first sight, converging repeated in-channel
// mentions to one rendering.
func (rw *Rewriter) resolveItem(item *etree.Element, channel string, now time.Time, stats *Stats) {
	linkEl := childByLocalTag(item, "link")
	if linkEl == nil {
		return
	}
	link := strings.TrimSpace(linkEl.Text())

	id, ok := ExtractIdentity(link)
	if !ok {
		return
	}

	entry, exists := rw.registry.Lookup(id)
	if !exists {
		rw.registry.RegisterIfAbsent(id, channel, item, now)
		return
	}

	if entry.Channel == channel {
		slog.Info("Replacing duplicate item in same channel", "link", link, "channel", channel)
		replaceChildren(item, entry.Item)
		stats.Canonicalized++
	}
}

// replaceChildren swaps the child sequence of dst for a deep copy of the
// canonical element's children.
func replaceChildren(dst, canonical *etree.Element) {
	for len(dst.Child) > 0 {
		dst.RemoveChildAt(0)
	}

	clone := canonical.Copy()
	tokens := append([]etree.Token(nil), clone.Child...)
	for _, t := range tokens {
		dst.AddChild(t)
	}
}

// channelLink locates the channel identity used to scope dedup ownership.
// Plain RSS carries it as <link> text; some feeds only provide the Atom
// self-link form, where the URL lives in the href attribute.
func channelLink(channel *etree.Element) (string, error) {
	link := childByLocalTag(channel, "link")
	if link == nil {
		return "", errors.New("channel link is missing")
	}
	if text := strings.TrimSpace(link.Text()); text != "" {
		return text, nil
	}
	if href := link.SelectAttrValue("href", ""); href != "" {
		return href, nil
	}
	return "", errors.New("channel link has no text and no href attribute")
}

// childByLocalTag returns the first child element whose local tag matches,
// ignoring any namespace prefix.
func childByLocalTag(el *etree.Element, tag string) *etree.Element {
	for _, child := range el.ChildElements() {
		if child.Tag == tag {
			return child
		}
	}
	return nil
}
