// Package logtail reads the tail of statdeck's own log file and renders its
// JSON lines for the Status tab.
//
// Read keeps a fixed ring of the last N lines so large files are scanned
// once with bounded memory. Parse and Format turn zerolog JSON lines into
// compact "time LEVEL message key=value" text; anything that is not JSON is
// shown verbatim.
package logtail
