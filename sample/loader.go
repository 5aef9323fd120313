package sample

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/wav"
)

// ErrUnsupportedFormat is returned for sample files beep cannot decode
var ErrUnsupportedFormat = errors.New("unsupported sample format")

// Loader fetches and decodes one sample into a buffer at the given format.
type Loader interface {
	Load(ctx context.Context, name Name, format beep.Format) (*beep.Buffer, error)
}

// FileLoader reads samples/<name>.<ext> from a filesystem.
// Use os.DirFS for a directory on disk or an embed.FS for bundled samples.
type FileLoader struct {
	FS  fs.FS
	Ext string // "wav" or "mp3"
}

// Load decodes one sample and resamples it to the target rate if needed.
func (l FileLoader) Load(ctx context.Context, name Name, format beep.Format) (*beep.Buffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := l.FS.Open(name.Path(l.Ext))
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	streamer, srcFormat, err := decode(f, l.Ext)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	defer streamer.Close()

	var s beep.Streamer = streamer
	if srcFormat.SampleRate != format.SampleRate {
		s = beep.Resample(4, srcFormat.SampleRate, format.SampleRate, s)
	}

	buf := beep.NewBuffer(format)
	buf.Append(s)
	if err := streamer.Err(); err != nil {
		return nil, fmt.Errorf("stream: %w", err)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("decode: %s is empty", name)
	}
	return buf, nil
}

func decode(f io.ReadCloser, ext string) (beep.StreamSeekCloser, beep.Format, error) {
	switch strings.ToLower(ext) {
	case "wav":
		return wav.Decode(f)
	case "mp3":
		return mp3.Decode(f)
	default:
		return nil, beep.Format{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}
