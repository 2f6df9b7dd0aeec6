package mjpeg

import (
	"bytes"
	"image"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidpipe/vidpipe/pkg/codec"
)

func TestNewEncoderValidatesSettings(t *testing.T) {
	_, err := NewEncoder(codec.Settings{Width: 0, Height: 480, BitRate: 1_000_000})
	assert.Error(t, err)

	_, err = NewEncoder(codec.Settings{Width: 640, Height: 480})
	assert.Error(t, err)
}

func TestQualityScalesWithBitrate(t *testing.T) {
	base := codec.Settings{Width: 640, Height: 480, FrameRate: 30}

	low := base
	low.BitRate = 100_000
	high := base
	high.BitRate = 50_000_000

	assert.Equal(t, 30, qualityFor(low), "starved bitrate clamps low")
	assert.Equal(t, 95, qualityFor(high), "generous bitrate clamps high")

	mid := base
	mid.BitRate = 20_000_000
	q := qualityFor(mid)
	assert.Greater(t, q, 30)
	assert.Less(t, q, 95)
}

func TestEncodeProducesDecodableJPEG(t *testing.T) {
	enc, err := NewEncoder(codec.Settings{Width: 32, Height: 24, BitRate: 2_000_000, FrameRate: 30})
	require.NoError(t, err)
	defer enc.Close()

	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}

	data, err := enc.Encode(img)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte{0xff, 0xd8}), "missing JPEG SOI marker")

	decoded, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 32, 24), decoded.Bounds())
}

func TestEncodeAfterClose(t *testing.T) {
	enc, err := NewEncoder(codec.Settings{Width: 8, Height: 8, BitRate: 1_000_000})
	require.NoError(t, err)
	require.NoError(t, enc.Close())

	_, err = enc.Encode(image.NewRGBA(image.Rect(0, 0, 8, 8)))
	assert.Error(t, err)
}

func TestRegisteredWithBuilder(t *testing.T) {
	enc, err := codec.Build("mjpeg", codec.Settings{Width: 8, Height: 8, BitRate: 1_000_000})
	require.NoError(t, err)
	assert.NoError(t, enc.Close())

	_, err = codec.Build("av9000", codec.Settings{Width: 8, Height: 8, BitRate: 1})
	assert.Error(t, err)
	assert.Contains(t, codec.Names(), "mjpeg")
}
