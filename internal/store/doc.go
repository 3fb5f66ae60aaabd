// Package store keeps the dataset of the current session in memory.
//
// A session works on exactly one dataset at a time. Uploading a new file
// replaces it wholesale; there is no merge with previous uploads and nothing
// is persisted. Readers get the immutable snapshot that was current when they
// asked, so a replacement never changes records under a running request.
package store
