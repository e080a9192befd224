package opml

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// CheckAndInit returns the current feed list, regenerating it from the
// source OPML when necessary. Regeneration happens when the feeds file does
// not exist yet or when the source OPML has been modified since the feeds
// file was written; it patches the OPML, persists both outputs, and removes
// published files no longer referenced by any subscription. A missing
// source OPML is an error the caller treats as fatal at startup.
func CheckAndInit(sourceOPML, feedsFile, urlPrefix, targetOPML, targetDir string) ([]FeedRef, error) {
	regenerate, err := needsRegeneration(feedsFile, sourceOPML)
	if err != nil {
		return nil, err
	}

	if regenerate {
		// Filenames from the previous list survive for outlines that were
		// already patched, so subscribers keep their URLs.
		previous := make(map[string]string)
		if refs, err := ReadFeeds(feedsFile); err == nil {
			for _, ref := range refs {
				previous[ref.Filename] = ref.URL
			}
		}

		dom, err := Open(sourceOPML)
		if err != nil {
			return nil, err
		}
		dom.Modify(urlPrefix, previous)

		if err := dom.Write(targetOPML); err != nil {
			return nil, err
		}
		if err := dom.SaveFeeds(feedsFile); err != nil {
			return nil, err
		}

		slog.Warn("Feed list regenerated; import the new OPML file into your newsreader", "opml", targetOPML)

		if err := removeStaleFiles(targetDir, dom.Feeds()); err != nil {
			return nil, err
		}
	}

	return ReadFeeds(feedsFile)
}

// needsRegeneration reports whether the feeds file must be rebuilt from the
// OPML: true when it is missing or older than the OPML.
func needsRegeneration(feedsFile, opmlFile string) (bool, error) {
	opmlInfo, err := os.Stat(opmlFile)
	if err != nil {
		return false, fmt.Errorf("OPML source file %s not found: %w", opmlFile, err)
	}

	feedsInfo, err := os.Stat(feedsFile)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("cannot stat feeds file %s: %w", feedsFile, err)
	}

	return feedsInfo.ModTime().Before(opmlInfo.ModTime()), nil
}

// removeStaleFiles deletes published .rss files in dir that no current feed
// references.
func removeStaleFiles(dir string, feeds []FeedRef) error {
	referenced := make(map[string]bool, len(feeds))
	for _, ref := range feeds {
		referenced[ref.Filename] = true
	}

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot read target directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".rss" || referenced[entry.Name()] {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("cannot remove stale feed file %s: %w", path, err)
		}
		slog.Info("Removed stale feed file", "path", path)
	}

	return nil
}
