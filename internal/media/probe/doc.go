// Package probe reads descriptive properties straight from media container
// headers: RIFF (WAV, AVI), ISO-BMFF (MP4, MOV, M4A, HEIC), FLAC and MPEG
// audio. Parsers read only the boxes and chunks they need through an
// io.ReaderAt and never load payload data.
//
// Errors wrap ErrMalformed when the bytes do not describe the expected
// structure and ErrNoStream when a valid container lacks the requested track.
package probe
