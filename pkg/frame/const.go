package frame

// Format identifies a raw pixel layout by its conventional fourcc name.
type Format string

const (
	// YUV formats

	// FormatI420 https://www.fourcc.org/pixel-format/yuv-i420/
	FormatI420 Format = "I420"
	// FormatNV21 https://www.fourcc.org/pixel-format/yuv-nv21/
	FormatNV21 Format = "NV21"
	// FormatYUY2 https://www.fourcc.org/pixel-format/yuv-yuy2/
	FormatYUY2 Format = "YUY2"
	// FormatUYVY https://www.fourcc.org/pixel-format/yuv-uyvy/
	FormatUYVY Format = "UYVY"

	// RGB formats

	// FormatRGBA is 8-bit RGB with alpha, the layout produced by screen
	// capture and consumed by the overlay stage.
	FormatRGBA Format = "RGBA"

	// Compressed formats

	// FormatMJPEG https://www.fourcc.org/mjpg/
	FormatMJPEG Format = "MJPEG"
)

// FormatYUYV is an alias of FormatYUY2.
const FormatYUYV = FormatYUY2
