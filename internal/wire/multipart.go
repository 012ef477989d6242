// Package wire encodes finished PDF files into a single
// multipart/form-data HTTP response body. The encoder knows its exact
// byte length before the first byte is written, so the response can carry
// a Content-Length header instead of falling back to chunked encoding.
package wire

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

const partContentType = "application/pdf"

// Part is one file to place in the response body.
type Part struct {
	Name string
	Data []byte
}

// ErrNoParts is returned when an encoder is requested for an empty part
// list. Callers are expected to answer 204 before reaching the encoder.
var ErrNoParts = errors.New("multipart encoding requires at least one part")

// Encoder streams an ordered list of parts as one multipart body.
type Encoder struct {
	boundary string
	parts    []Part
	headers  []string
}

// NewEncoder builds an encoder with a fresh boundary token. The token is
// random per response so it cannot collide with part content.
func NewEncoder(parts []Part) (*Encoder, error) {
	if len(parts) == 0 {
		return nil, ErrNoParts
	}

	e := &Encoder{
		boundary: "scanbridge-" + uuid.NewString(),
		parts:    parts,
	}

	// Pre-render every part header so ContentLength and WriteTo cannot
	// disagree about the bytes on the wire.
	e.headers = make([]string, len(parts))
	for i, p := range parts {
		e.headers[i] = fmt.Sprintf(
			"--%s\r\nContent-Disposition: form-data; name=\"files\"; filename=%q\r\nContent-Type: %s\r\n\r\n",
			e.boundary, p.Name, partContentType)
	}
	return e, nil
}

func (e *Encoder) Boundary() string { return e.boundary }

// ContentType returns the value for the response Content-Type header.
func (e *Encoder) ContentType() string {
	return "multipart/form-data; boundary=" + e.boundary
}

// ContentLength returns the exact number of bytes WriteTo will produce.
func (e *Encoder) ContentLength() int64 {
	var n int64
	for i, p := range e.parts {
		n += int64(len(e.headers[i])) + int64(len(p.Data)) + 2 // trailing CRLF
	}
	n += int64(len(e.boundary)) + 6 // closing "--boundary--\r\n"
	return n
}

// WriteTo streams the body in part order. The number of bytes written
// always equals ContentLength unless the writer fails mid-stream.
func (e *Encoder) WriteTo(w io.Writer) (int64, error) {
	var written int64

	emit := func(p []byte) error {
		n, err := w.Write(p)
		written += int64(n)
		return err
	}

	for i, p := range e.parts {
		if err := emit([]byte(e.headers[i])); err != nil {
			return written, err
		}
		if err := emit(p.Data); err != nil {
			return written, err
		}
		if err := emit([]byte("\r\n")); err != nil {
			return written, err
		}
	}
	if err := emit([]byte("--" + e.boundary + "--\r\n")); err != nil {
		return written, err
	}
	return written, nil
}

// UniqueNames reports whether every part carries a distinct file name.
func UniqueNames(parts []Part) bool {
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		key := strings.ToLower(p.Name)
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
	}
	return true
}
