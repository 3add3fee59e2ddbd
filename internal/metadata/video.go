package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/abema/go-mp4"
)

// seconds between the QuickTime epoch (1904-01-01) and the Unix epoch
const mp4EpochOffset = 2082844800

type probe struct {
	Format struct {
		Tags map[string]string `json:"tags"`
	} `json:"format"`
	Streams []struct {
		Tags map[string]string `json:"tags"`
	} `json:"streams"`
}

// FFprobe returns a ReadFunc that runs the ffprobe binary and reads creation_time
// from the container tags, falling back to the tags of the first stream that has it.
func FFprobe(binary string) ReadFunc {
	return func(ctx context.Context, path string) (time.Time, error) {
		cmd := exec.CommandContext(ctx, binary, "-v", "quiet", "-print_format", "json", "-show_format", "-show_streams", path)
		out, err := cmd.Output()
		if err != nil {
			return time.Time{}, fmt.Errorf("ffprobe failed: %w", err)
		}

		return parseProbe(out)
	}
}

func parseProbe(out []byte) (time.Time, error) {
	var p probe
	if err := json.Unmarshal(out, &p); err != nil {
		return time.Time{}, fmt.Errorf("cannot decode ffprobe output: %w", err)
	}

	value := p.Format.Tags["creation_time"]
	if value == "" {
		for _, s := range p.Streams {
			if ct := s.Tags["creation_time"]; ct != "" {
				value = ct
				break
			}
		}
	}

	if value == "" {
		return time.Time{}, ErrNoDate
	}

	return parseCreationTime(value, time.Local)
}

// ReadMP4 reads the creation time of the movie header box, falling back to the
// media header of the first track that has one.
func ReadMP4(_ context.Context, path string) (time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, err
	}
	defer f.Close()

	boxes, err := mp4.ExtractBoxWithPayload(f, nil, mp4.BoxPath{mp4.BoxTypeMoov(), mp4.BoxTypeMvhd()})
	if err != nil {
		return time.Time{}, err
	}
	for _, b := range boxes {
		if mvhd, ok := b.Payload.(*mp4.Mvhd); ok {
			if t, ok := fromMP4Epoch(mvhd.GetVersion(), uint64(mvhd.CreationTimeV0), mvhd.CreationTimeV1); ok {
				return t, nil
			}
		}
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return time.Time{}, err
	}

	boxes, err = mp4.ExtractBoxWithPayload(f, nil, mp4.BoxPath{mp4.BoxTypeMoov(), mp4.BoxTypeTrak(), mp4.BoxTypeMdia(), mp4.BoxTypeMdhd()})
	if err != nil {
		return time.Time{}, err
	}
	for _, b := range boxes {
		if mdhd, ok := b.Payload.(*mp4.Mdhd); ok {
			if t, ok := fromMP4Epoch(mdhd.GetVersion(), uint64(mdhd.CreationTimeV0), mdhd.CreationTimeV1); ok {
				return t, nil
			}
		}
	}

	return time.Time{}, ErrNoDate
}

// zero means the muxer did not set the field
func fromMP4Epoch(version uint8, v0, v1 uint64) (time.Time, bool) {
	seconds := v0
	if version == 1 {
		seconds = v1
	}
	if seconds == 0 {
		return time.Time{}, false
	}

	return time.Unix(int64(seconds)-mp4EpochOffset, 0).UTC(), true
}
