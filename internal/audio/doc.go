// Package audio plays the optional chime that accompanies a reminder.
// It uses the beep library to decode WAV, OGG and MP3 files and applies
// the configured volume.
package audio
