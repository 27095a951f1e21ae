package codecdetect

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/Eyevinn/mp4ff/mp4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/vadecode/pkg/mocks"
	"github.com/user/vadecode/pkg/ports"
)

func fixture(t *testing.T) []byte {
	t.Helper()
	data, err := mocks.H264MP4(2)
	require.NoError(t, err)
	return data
}

func TestDetectFromBytes(t *testing.T) {
	info, err := DetectFromBytes(fixture(t))
	require.NoError(t, err)

	assert.True(t, info.Known())
	assert.Equal(t, ports.CodecH264, info.Codec)
	assert.Equal(t, "avc1", info.SampleEntry)
	assert.Equal(t, 128, info.Width)
	assert.Equal(t, 96, info.Height)
	assert.Equal(t, uint32(mocks.H264Timescale), info.Timescale)
	assert.True(t, info.Fragmented)
}

func TestDetectFromReaderRewinds(t *testing.T) {
	reader := bytes.NewReader(fixture(t))
	_, err := DetectFromReader(reader)
	require.NoError(t, err)

	pos, err := reader.Seek(0, 1)
	require.NoError(t, err)
	assert.Zero(t, pos)
}

func TestDetectFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, fixture(t), 0o644))

	info, err := DetectFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, ports.CodecH264, info.Codec)

	_, err = DetectFromFile(filepath.Join(t.TempDir(), "missing.mp4"))
	assert.Error(t, err)
}

func TestDetectWithoutVideoTrack(t *testing.T) {
	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(48000, "audio", "und")

	var buf bytes.Buffer
	require.NoError(t, mp4.NewFtyp("isom", 0x200, []string{"isom"}).Encode(&buf))
	require.NoError(t, init.Moov.Encode(&buf))

	_, err := DetectFromBytes(buf.Bytes())
	assert.ErrorIs(t, err, ErrNoVideoTrack)
}

func TestVideoTrack(t *testing.T) {
	f, err := mp4.DecodeFile(bytes.NewReader(fixture(t)))
	require.NoError(t, err)

	trak, entry := VideoTrack(f.Init.Moov)
	require.NotNil(t, trak)
	require.NotNil(t, entry)
	assert.Equal(t, "avc1", entry.Type())
	require.NotNil(t, entry.AvcC)
	assert.Equal(t, mocks.H264SPS, entry.AvcC.SPSnalus[0])

	trak, entry = VideoTrack(nil)
	assert.Nil(t, trak)
	assert.Nil(t, entry)
}

func TestSampleEntryTable(t *testing.T) {
	tests := map[string]ports.Codec{
		"avc1": ports.CodecH264,
		"hev1": ports.CodecH265,
		"vvc1": ports.CodecVVC,
		"vp09": ports.CodecVP9,
		"av01": ports.CodecAV1,
		"mp4a": "",
	}
	for entry, want := range tests {
		assert.Equal(t, want, sampleEntries[entry], entry)
	}
}
