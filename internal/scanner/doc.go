// Package scanner finds song/artist mentions in HTML documents and attaches an add action to each one.
//
// # Heuristics
//
// [Scan] runs two independent heuristics on every pass and merges their results:
//
//   - Tables whose header cells name a song (or title) column and an artist column.
//     Each data row with both cells non-empty becomes a candidate.
//   - Title-bearing elements ([data-song-title], [data-track-title], .song-title,
//     .track-title) paired with the artist exposed by their nearest container
//     ([data-artist-name], .playlist-item, li, article, div).
//
// Merged candidates are deduplicated by a case-folded "title|artist" key.
//
// # Attachment
//
// A [Tracker] marks each new container with [AttachedAttr] and appends an action
// button. The marker is never removed, so a container is attached at most once however
// often the document is rescanned.
//
// # Rescanning
//
// A [Watcher] ties a [Document], a [Tracker] and a [Scheduler] together. Changes made
// through [Document.Replace] or [Document.Mutate] notify the scheduler, which debounces
// them:
//
//	change ─┐ change ─┐ change ─┐
//	        └─ re-arm └─ re-arm └─ re-arm ── window ──► scan
//
// # Sources
//
// [Load] reads a document from a file or an http(s) URL. [ReloadOnChange] keeps a file-backed
// document in sync with the disk; each reload is a [Document.Replace].
package scanner
