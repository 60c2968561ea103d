//go:build !whisper

package langid

// WhisperAvailable reports that no whisper backend is compiled in.
func WhisperAvailable() bool { return false }

// NewWhisper returns ErrNativeUnavailable when built without the whisper tag.
func NewWhisper(string) (Detector, error) {
	return nil, ErrNativeUnavailable
}
