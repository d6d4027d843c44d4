// Package decode turns whole encoded tracks into interleaved PCM.
//
// Supported containers are chosen by file extension: MP3, FLAC, Ogg Vorbis
// and WAV. Output keeps the track's native rate and channel count; MP3 and
// Vorbis are delivered as 16-bit samples, FLAC and WAV at their stored width.
//
//	track, err := decode.File("/tmp/song.flac")
//	frames := track.Frames()
package decode
