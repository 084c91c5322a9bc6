package mnist

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/YuminosukeSato/denseflow/pkg/errors"
	"github.com/YuminosukeSato/denseflow/tensor"
)

// IDX magic numbers: 0x00000803 for unsigned-byte rank-3 data (images) and
// 0x00000801 for unsigned-byte rank-1 data (labels).
const (
	ImageMagic = 2051
	LabelMagic = 2049
)

// Header limits; a corrupt header must not trigger a huge allocation.
const (
	maxIDXItems = 1 << 24
	maxIDXBytes = 1 << 30
)

// decompress returns a reader over r's payload, transparently inflating it
// when it starts with the gzip magic bytes 1f 8b.
func decompress(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "mnist: peek header")
	}
	if len(head) == 2 && head[0] == 0x1f && head[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, errors.Wrap(err, "mnist: open gzip stream")
		}
		return zr, nil
	}
	return br, nil
}

func readHeader(r io.Reader, op string, magic uint32, dims int) ([]int, error) {
	var got uint32
	if err := binary.Read(r, binary.BigEndian, &got); err != nil {
		return nil, errors.Wrapf(err, "mnist: %s: read magic", op)
	}
	if got != magic {
		return nil, errors.NewValueError(op, fmt.Sprintf("invalid magic number: got %d, want %d", got, magic))
	}
	out := make([]int, dims)
	for i := range out {
		var d uint32
		if err := binary.Read(r, binary.BigEndian, &d); err != nil {
			return nil, errors.Wrapf(err, "mnist: %s: read dimension %d", op, i)
		}
		if d > maxIDXItems {
			return nil, errors.NewValidationError("dimension", "exceeds IDX limit", d)
		}
		out[i] = int(d)
	}
	return out, nil
}

// ReadImages decodes an IDX3 image file into an (n, rows, cols) array of
// raw pixel intensities in [0, 255]. Gzip-compressed input is accepted.
func ReadImages(r io.Reader) (*tensor.Array, error) {
	r, err := decompress(r)
	if err != nil {
		return nil, err
	}
	dims, err := readHeader(r, "ReadImages", ImageMagic, 3)
	if err != nil {
		return nil, err
	}
	n, rows, cols := dims[0], dims[1], dims[2]
	if rows*cols > 0 && n > maxIDXBytes/(rows*cols) {
		return nil, errors.NewValidationError("images",
			fmt.Sprintf("%dx%dx%d exceeds IDX limit", n, rows, cols), n)
	}

	raw := make([]byte, n*rows*cols)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, errors.Wrapf(err, "mnist: ReadImages: read %d pixels", len(raw))
	}
	data := make([]float64, len(raw))
	for i, b := range raw {
		data[i] = float64(b)
	}
	return tensor.NewArray(tensor.Shape{n, rows, cols}, data)
}

// ReadLabels decodes an IDX1 label file. Gzip-compressed input is accepted.
func ReadLabels(r io.Reader) ([]int, error) {
	r, err := decompress(r)
	if err != nil {
		return nil, err
	}
	dims, err := readHeader(r, "ReadLabels", LabelMagic, 1)
	if err != nil {
		return nil, err
	}
	raw := make([]byte, dims[0])
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, errors.Wrapf(err, "mnist: ReadLabels: read %d labels", len(raw))
	}
	labels := make([]int, len(raw))
	for i, b := range raw {
		labels[i] = int(b)
	}
	return labels, nil
}

// WriteImages encodes an (n, rows, cols) array as an uncompressed IDX3
// stream. Values are rounded and clamped into [0, 255].
func WriteImages(w io.Writer, images *tensor.Array) error {
	shape := images.Shape()
	if shape.Ndim() != 3 {
		return errors.NewValueError("WriteImages", "expected an (n, rows, cols) array, got shape "+shape.String())
	}
	header := []uint32{ImageMagic, uint32(shape[0]), uint32(shape[1]), uint32(shape[2])}
	if err := binary.Write(w, binary.BigEndian, header); err != nil {
		return errors.Wrap(err, "mnist: WriteImages: header")
	}
	raw := make([]byte, images.Size())
	for i, v := range images.Data() {
		raw[i] = byte(errors.ClipValue(v+0.5, 0, 255))
	}
	_, err := w.Write(raw)
	return errors.Wrap(err, "mnist: WriteImages: pixels")
}

// WriteLabels encodes labels as an uncompressed IDX1 stream.
func WriteLabels(w io.Writer, labels []int) error {
	header := []uint32{LabelMagic, uint32(len(labels))}
	if err := binary.Write(w, binary.BigEndian, header); err != nil {
		return errors.Wrap(err, "mnist: WriteLabels: header")
	}
	raw := make([]byte, len(labels))
	for i, l := range labels {
		if l < 0 || l > 255 {
			return errors.NewValidationError("label", "does not fit in a byte", l)
		}
		raw[i] = byte(l)
	}
	_, err := w.Write(raw)
	return errors.Wrap(err, "mnist: WriteLabels: labels")
}
