package io

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/klauspost/compress/zstd"
	"github.com/sirupsen/logrus"

	"cosine-zoom/internal/core"
)

const coeffMagic = "DCT2\n"

var ErrCoefficients = errors.New("invalid coefficient file")

// WriteCoefficients stores c as a zstd frame: magic, width and height as big-endian
// uint32, then every coefficient as a little-endian float64.
func WriteCoefficients(w io.Writer, c *core.Coefficients) error {
	if err := core.ValidateCoefficients(c); err != nil {
		return err
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderConcurrency(runtime.NumCPU()))
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(enc)

	if _, err := bw.WriteString(coeffMagic); err != nil {
		enc.Close()
		return err
	}
	if err := binary.Write(bw, binary.BigEndian, [2]uint32{uint32(c.Width), uint32(c.Height)}); err != nil {
		enc.Close()
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, c.Data); err != nil {
		enc.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// ReadCoefficients decodes data produced by WriteCoefficients.
func ReadCoefficients(r io.Reader) (*core.Coefficients, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	magic := make([]byte, len(coeffMagic))
	if _, err := io.ReadFull(dec, magic); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCoefficients, err)
	}
	if string(magic) != coeffMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrCoefficients)
	}

	var dims [2]uint32
	if err := binary.Read(dec, binary.BigEndian, &dims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCoefficients, err)
	}
	width, height := int(dims[0]), int(dims[1])
	if err := core.ValidateDimensions(width, height); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCoefficients, err)
	}

	c := &core.Coefficients{
		Width:  width,
		Height: height,
		Data:   make([]float64, width*height*core.Channels),
	}
	if err := binary.Read(dec, binary.LittleEndian, c.Data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCoefficients, err)
	}
	return c, nil
}

// SaveCoefficients writes a coefficient file atomically.
func SaveCoefficients(c *core.Coefficients, path string) error {
	return WriteFileAtomic(path, func(w io.Writer) error {
		return WriteCoefficients(w, c)
	})
}

// LoadCoefficients reads a coefficient file, or standard input when path is "-".
// Failures are reported as decode errors.
func (il *ImageLoader) LoadCoefficients(path string) (*core.Coefficients, error) {
	var r io.Reader
	if path == StreamPath {
		r = il.stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		defer f.Close()
		r = f
	}

	c, err := ReadCoefficients(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	il.logger.WithFields(logrus.Fields{
		"path":   path,
		"width":  c.Width,
		"height": c.Height,
	}).Info("Coefficients loaded successfully")
	return c, nil
}
