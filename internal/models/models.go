package models

import (
	"fmt"
	"time"
)

type Kind int

const (
	Ignored Kind = iota
	Image
	Video
)

func (k Kind) String() string {
	switch k {
	case Image:
		return "image"
	case Video:
		return "video"
	default:
		return "ignored"
	}
}

// Media is a file found while walking the source tree.
type Media struct {
	Path    string
	Kind    Kind
	Size    int64
	ModTime time.Time
	Err     error
}

type Provenance int

const (
	Metadata Provenance = iota
	ModificationTimeFallback
)

func (p Provenance) String() string {
	if p == ModificationTimeFallback {
		return "mtime-fallback"
	}
	return "metadata"
}

// CaptureTimestamp is the moment a media file is considered to have been taken.
// Source names the extraction strategy, and is empty for the fallback.
type CaptureTimestamp struct {
	Time       time.Time
	Provenance Provenance
	Source     string
}

type Resolution int

const (
	UseAsPlanned Resolution = iota
	SkipIdenticalExists
	Renamed
)

func (r Resolution) String() string {
	switch r {
	case SkipIdenticalExists:
		return "skip"
	case Renamed:
		return "renamed"
	default:
		return "as-planned"
	}
}

type Plan struct {
	Path       string
	Resolution Resolution
	// Suffix is the numeric suffix used when Resolution is Renamed.
	Suffix int
}

func (p Plan) String() string {
	if p.Resolution == Renamed {
		return fmt.Sprintf("%s(%d) %s", p.Resolution, p.Suffix, p.Path)
	}
	return fmt.Sprintf("%s %s", p.Resolution, p.Path)
}

type Outcome int

const (
	Processed Outcome = iota
	Skipped
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return "processed"
	}
}

type Report struct {
	Processed int64
	Skipped   int64
	Failed    int64
	Ignored   int64
}

func (r *Report) Add(o Outcome) {
	switch o {
	case Processed:
		r.Processed++
	case Skipped:
		r.Skipped++
	case Failed:
		r.Failed++
	}
}

// Success reports whether at least one file was processed and none failed.
func (r Report) Success() bool {
	return r.Processed > 0 && r.Failed == 0
}
