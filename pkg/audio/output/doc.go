// Package output plays PCM through the system audio device.
//
// The oto backend accepts any supported sample width and plays it as
// 16-bit audio.
//
//	out := output.NewOto()
//	err := out.Open(audio.Format{SampleRate: 44100, Channels: 2, SampleWidth: 2})
//	err = out.Write(pcm)
package output
