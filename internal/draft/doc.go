// Package draft implements the message draft engine: an editable text buffer
// that keeps user mentions, channel references and links attached to the
// right characters while the text is edited, and that resolves mention
// suggestions asynchronously as the user types.
//
// A MessageDraft is owned by a single writer. Mutations are synchronous and
// atomic: they either apply completely or return an error and leave the draft
// untouched. Embeddings with several writers must serialize access themselves
// (see chathub.Session). Suggestion lookups are the only asynchronous part;
// every mutation supersedes the previous lookup.
//
// All offsets and lengths are UTF-16 code units.
package draft
