// Package statsapi is the HTTP client for the statistics backend and the
// document types it returns. Field names in the JSON tags follow the
// backend's wire format verbatim.
package statsapi
