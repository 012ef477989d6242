package wire

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, contentType string, body []byte) []Part {
	t.Helper()

	mediaType, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)
	require.Equal(t, "multipart/form-data", mediaType)

	var parts []Part
	mr := multipart.NewReader(bytes.NewReader(body), params["boundary"])
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		require.Equal(t, "files", p.FormName())
		require.Equal(t, "application/pdf", p.Header.Get("Content-Type"))

		data, err := io.ReadAll(p)
		require.NoError(t, err)
		parts = append(parts, Part{Name: p.FileName(), Data: data})
	}
	return parts
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		parts []Part
	}{
		{
			name:  "single part",
			parts: []Part{{Name: "scan.pdf", Data: []byte("%PDF-1.4 fake")}},
		},
		{
			name: "three parts in order",
			parts: []Part{
				{Name: "scan_1.pdf", Data: []byte("first")},
				{Name: "scan_2.pdf", Data: []byte("second")},
				{Name: "scan_3.pdf", Data: bytes.Repeat([]byte{0x00, 0xff, '\r', '\n'}, 1024)},
			},
		},
		{
			name:  "binary content with boundary-like bytes",
			parts: []Part{{Name: "scan.pdf", Data: []byte("--\r\n--scanbridge\r\n")}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := NewEncoder(tt.parts)
			require.NoError(t, err)

			var body bytes.Buffer
			written, err := enc.WriteTo(&body)
			require.NoError(t, err)

			assert.Equal(t, enc.ContentLength(), written)
			assert.Equal(t, int64(body.Len()), written)

			decoded := decode(t, enc.ContentType(), body.Bytes())
			require.Len(t, decoded, len(tt.parts))
			for i, p := range tt.parts {
				assert.Equal(t, p.Name, decoded[i].Name)
				assert.Equal(t, p.Data, decoded[i].Data)
			}
		})
	}
}

func TestBoundaryIsFreshPerEncoder(t *testing.T) {
	parts := []Part{{Name: "scan.pdf", Data: []byte("x")}}

	a, err := NewEncoder(parts)
	require.NoError(t, err)
	b, err := NewEncoder(parts)
	require.NoError(t, err)

	assert.NotEqual(t, a.Boundary(), b.Boundary())
}

func TestZeroPartsRejected(t *testing.T) {
	_, err := NewEncoder(nil)
	assert.ErrorIs(t, err, ErrNoParts)
}

func TestUniqueNames(t *testing.T) {
	assert.True(t, UniqueNames([]Part{{Name: "a.pdf"}, {Name: "b.pdf"}}))
	assert.False(t, UniqueNames([]Part{{Name: "a.pdf"}, {Name: "A.pdf"}}))
}
