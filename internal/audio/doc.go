// Package audio enumerates output devices and plays sound files on them.
// Decoding uses beep (WAV, OGG Vorbis, MP3); output goes through a Host,
// which in production is a PulseAudio connection.
package audio
