// Package source opens the PCM streams a session plays.
//
// A FileSource reads a WAV file from the media directory with a forward-only
// cursor. A RemoteSource is produced by searching an HTTP index, downloading
// the best match into a cache and decoding it fully; its frames are served as
// a FIFO of pre-cut chunks. Both satisfy Source, so sessions treat them alike.
package source
