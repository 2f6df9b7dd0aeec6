package caps

// FourCCString converts a packed V4L2 pixel format code to its four
// character form, e.g. 0x56595559 -> "YUYV". Non-printable bytes are
// replaced so that vendor-specific codes still round into a usable label.
func FourCCString(code uint32) string {
	b := [4]byte{
		byte(code),
		byte(code >> 8),
		byte(code >> 16),
		byte(code >> 24),
	}
	for i, c := range b {
		if c < 0x20 || c > 0x7e {
			b[i] = '?'
		}
	}
	return string(b[:])
}

// FourCCCode packs a four character code into its V4L2 form. Short strings
// are space padded; longer strings are truncated.
func FourCCCode(s string) uint32 {
	b := [4]byte{' ', ' ', ' ', ' '}
	copy(b[:], s)
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
