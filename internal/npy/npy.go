package npy

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/hipdnn-ep/convgen/internal/fsutil"
	"github.com/hipdnn-ep/convgen/internal/tensor"
)

// Magic is the prefix of every .npy file.
const Magic = "\x93NUMPY"

// HeaderAlignment is the boundary the data section starts on.
const HeaderAlignment = 64

// Array is a decoded .npy file.
type Array struct {
	Shape  tensor.Shape
	DType  tensor.DataType
	Values []float32
}

// Write encodes values with the given shape to w and returns the number of bytes written.
func Write(w io.Writer, shape tensor.Shape, values []float32) (int64, error) {
	if err := shape.Validate(); err != nil {
		return 0, errors.Wrap(err, "npy: invalid shape")
	}
	count, err := shape.NumElementsChecked()
	if err != nil {
		return 0, errors.Wrap(ErrShapeMismatch, err.Error())
	}
	if count != len(values) {
		return 0, errors.Wrapf(ErrShapeMismatch, "shape %s holds %d values, got %d", shape, count, len(values))
	}

	size := tensor.Float32.Size()
	var buf bytes.Buffer
	buf.Grow(HeaderAlignment + size*len(values))
	buf.Write(encodeHeader(shape))

	data := make([]byte, size*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(data[size*i:], math.Float32bits(v))
	}
	buf.Write(data)

	n, err := w.Write(buf.Bytes())
	if err != nil {
		return int64(n), errors.Wrap(err, "npy: write failed")
	}
	return int64(n), nil
}

// WriteFile writes the array to path atomically and returns the file size.
func WriteFile(path string, shape tensor.Shape, values []float32) (int64, error) {
	return fsutil.WriteFileAtomic(path, func(w io.Writer) error {
		_, err := Write(w, shape, values)
		return err
	})
}

// encodeHeader returns magic, version, length and the padded dict.
func encodeHeader(shape tensor.Shape) []byte {
	dict := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': %s, }",
		tensor.Float32.NumpyDescr(), shapeTuple(shape))

	major, lenBytes := byte(1), 2
	if pad(len(Magic)+2+2, len(dict)) > math.MaxUint16 {
		major, lenBytes = 2, 4
	}
	preamble := len(Magic) + 2 + lenBytes
	headerLen := pad(preamble, len(dict))

	out := make([]byte, 0, preamble+headerLen)
	out = append(out, Magic...)
	out = append(out, major, 0)
	if lenBytes == 2 {
		out = binary.LittleEndian.AppendUint16(out, uint16(headerLen)) //nolint:gosec // bounded above
	} else {
		out = binary.LittleEndian.AppendUint32(out, uint32(headerLen)) //nolint:gosec // header is tiny
	}
	out = append(out, dict...)
	out = append(out, strings.Repeat(" ", headerLen-len(dict)-1)...)
	return append(out, '\n')
}

// pad returns the header length (dict, spaces and newline) that aligns the data section.
func pad(preamble, dictLen int) int {
	total := preamble + dictLen + 1
	return dictLen + 1 + (HeaderAlignment-total%HeaderAlignment)%HeaderAlignment
}

func shapeTuple(shape tensor.Shape) string {
	switch len(shape) {
	case 0:
		return "()"
	case 1:
		return fmt.Sprintf("(%d,)", shape[0])
	}
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = strconv.Itoa(d)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

var (
	descrRe   = regexp.MustCompile(`'descr'\s*:\s*'([^']*)'`)
	fortranRe = regexp.MustCompile(`'fortran_order'\s*:\s*(True|False)`)
	shapeRe   = regexp.MustCompile(`'shape'\s*:\s*\(([^)]*)\)`)
)

// Read decodes a float32 .npy stream.
func Read(r io.Reader) (*Array, error) {
	pre := make([]byte, len(Magic)+2)
	if _, err := io.ReadFull(r, pre); err != nil {
		return nil, errors.Wrap(ErrInvalidMagic, "file too short")
	}
	if string(pre[:len(Magic)]) != Magic {
		return nil, errors.Wrapf(ErrInvalidMagic, "got %q", pre[:len(Magic)])
	}

	var headerLen int
	switch major := pre[len(Magic)]; major {
	case 1:
		var n uint16
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, errors.Wrap(ErrMalformedHeader, "missing header length")
		}
		headerLen = int(n)
	case 2, 3:
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, errors.Wrap(ErrMalformedHeader, "missing header length")
		}
		headerLen = int(n)
	default:
		return nil, errors.Wrapf(ErrUnsupportedVersion, "version %d.%d", major, pre[len(Magic)+1])
	}

	header := make([]byte, headerLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, errors.Wrapf(ErrMalformedHeader, "header truncated (want %d bytes)", headerLen)
	}
	shape, err := parseHeader(string(header))
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "npy: failed to read data")
	}
	n, err := shape.NumElementsChecked()
	if err != nil {
		return nil, errors.Wrap(ErrMalformedHeader, err.Error())
	}
	size := tensor.Float32.Size()
	if len(data)%size != 0 || len(data)/size != n {
		return nil, errors.Wrapf(ErrShapeMismatch, "shape %s holds %d values, payload is %d bytes", shape, n, len(data))
	}
	values := make([]float32, n)
	for i := range values {
		values[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[size*i:]))
	}
	return &Array{Shape: shape, DType: tensor.Float32, Values: values}, nil
}

// ReadFile reads a float32 .npy file.
func ReadFile(path string) (*Array, error) {
	//nolint:gosec // G304: reading a user-supplied path is the point
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "npy: failed to open %s", path)
	}
	defer func() { _ = f.Close() }()
	arr, err := Read(f)
	if err != nil {
		return nil, errors.WithMessage(err, path)
	}
	return arr, nil
}

func parseHeader(h string) (tensor.Shape, error) {
	h = strings.TrimSpace(h)
	if !strings.HasPrefix(h, "{") || !strings.HasSuffix(h, "}") {
		return nil, errors.Wrapf(ErrMalformedHeader, "not a dict: %q", h)
	}

	m := descrRe.FindStringSubmatch(h)
	if m == nil {
		return nil, errors.Wrap(ErrMalformedHeader, "missing descr")
	}
	if m[1] != tensor.Float32.NumpyDescr() {
		return nil, errors.Wrapf(ErrUnsupportedDType, "descr %q, only %s (%q) is supported",
			m[1], tensor.Float32, tensor.Float32.NumpyDescr())
	}

	m = fortranRe.FindStringSubmatch(h)
	if m == nil {
		return nil, errors.Wrap(ErrMalformedHeader, "missing fortran_order")
	}
	if m[1] == "True" {
		return nil, errors.Wrap(ErrUnsupportedDType, "fortran order arrays are not supported")
	}

	m = shapeRe.FindStringSubmatch(h)
	if m == nil {
		return nil, errors.Wrap(ErrMalformedHeader, "missing shape")
	}
	shape := tensor.Shape{}
	for _, part := range strings.Split(m[1], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := strconv.Atoi(part)
		if err != nil || d < 0 {
			return nil, errors.Wrapf(ErrMalformedHeader, "bad shape entry %q", part)
		}
		shape = append(shape, d)
	}
	return shape, nil
}
