// Image loading and saving through pluggable codecs
package io

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"cosine-zoom/internal/core"
)

var (
	ErrDecode       = errors.New("decode failed")
	ErrEncode       = errors.New("encode failed")
	ErrUnknownCodec = errors.New("unknown codec")
	ErrFormat       = errors.New("unsupported image format")
)

// StreamPath names the standard input or output stream in place of a file path.
const StreamPath = "-"

// Codec decodes images into floating RGB and encodes 8-bit RGB rasters.
type Codec interface {
	Decode(r io.Reader) (*core.Image, error)
	// Encode writes ras in the format named by ext (".png", ".jpg", ...).
	Encode(w io.Writer, ras *core.Raster, ext string) error
	Name() string
	Extensions() []string
}

var codecs = make(map[string]Codec)

func RegisterCodec(codec Codec) {
	codecs[codec.Name()] = codec
}

func GetCodec(name string) (Codec, error) {
	codec, exists := codecs[name]
	if !exists {
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownCodec, name, strings.Join(CodecNames(), ", "))
	}
	return codec, nil
}

func CodecNames() []string {
	names := lo.Keys(codecs)
	sort.Strings(names)
	return names
}

// ImageLoader handles image file operations
type ImageLoader struct {
	logger logrus.FieldLogger
	codec  Codec
	stdin  io.Reader
	stdout io.Writer

	// StreamFormat is the extension used when writing to standard output.
	StreamFormat string
}

func NewImageLoader(logger logrus.FieldLogger, codec Codec) *ImageLoader {
	return &ImageLoader{
		logger:       logger,
		codec:        codec,
		stdin:        os.Stdin,
		stdout:       os.Stdout,
		StreamFormat: ".png",
	}
}

// WithStreams replaces the standard streams used for the "-" path.
func (il *ImageLoader) WithStreams(stdin io.Reader, stdout io.Writer) *ImageLoader {
	il.stdin = stdin
	il.stdout = stdout
	return il
}

// LoadImage decodes path, or standard input when path is "-".
func (il *ImageLoader) LoadImage(path string) (*core.Image, error) {
	il.logger.WithField("path", path).Debug("Loading image")

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

	img, err := il.codec.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	if err := core.ValidateImage(img); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}

	il.logger.WithFields(logrus.Fields{
		"path":   path,
		"codec":  il.codec.Name(),
		"width":  img.Width,
		"height": img.Height,
	}).Info("Image loaded successfully")

	return img, nil
}

// SaveImage encodes ras to path, or standard output when path is "-". Files are
// written to a temporary sibling and renamed into place, so a failed encode never
// leaves a partial file behind.
func (il *ImageLoader) SaveImage(ras *core.Raster, path string) error {
	il.logger.WithField("path", path).Debug("Saving image")

	if ras == nil || len(ras.Pix) == 0 {
		return fmt.Errorf("%w: cannot save empty image", ErrEncode)
	}

	if path == StreamPath {
		if err := il.codec.Encode(il.stdout, ras, il.StreamFormat); err != nil {
			return fmt.Errorf("%w: stdout: %v", ErrEncode, err)
		}
		return nil
	}

	ext, err := il.formatFor(path)
	if err != nil {
		return err
	}

	err = WriteFileAtomic(path, func(w io.Writer) error {
		return il.codec.Encode(w, ras, ext)
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrEncode, path, err)
	}

	il.logger.WithFields(logrus.Fields{
		"path":   path,
		"codec":  il.codec.Name(),
		"width":  ras.Width,
		"height": ras.Height,
	}).Info("Image saved successfully")

	return nil
}

// CheckOutputPath reports an unsupported output extension before any work is done.
func (il *ImageLoader) CheckOutputPath(path string) error {
	if path == StreamPath {
		return nil
	}
	_, err := il.formatFor(path)
	return err
}

func (il *ImageLoader) formatFor(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !lo.Contains(il.codec.Extensions(), ext) {
		return "", fmt.Errorf("%w: %q for codec %s", ErrFormat, path, il.codec.Name())
	}
	return ext, nil
}

// OutputMode is the permission given to newly written files.
const OutputMode os.FileMode = 0o644

// WriteFileAtomic streams write into a temporary file next to path and renames it
// over path only when write and close both succeed. A replaced file keeps its
// permissions; a new one gets OutputMode.
func WriteFileAtomic(path string, write func(w io.Writer) error) (err error) {
	mode := OutputMode
	if fi, statErr := os.Stat(path); statErr == nil {
		mode = fi.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = write(tmp); err != nil {
		return err
	}
	if err = tmp.Chmod(mode); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
