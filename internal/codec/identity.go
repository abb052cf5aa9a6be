package codec

// identityCodec copies blocks through unchanged. It exists so the
// scheduler and writer can be exercised in tests without a real
// compression format; its output is not a valid container for any
// decompressor.
type identityCodec struct{}

func (identityCodec) Compress(data []byte) ([]byte, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (identityCodec) Type() Type        { return Identity }
func (identityCodec) Extension() string { return "" }
