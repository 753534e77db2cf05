package subtitle

import (
	"math"
	"time"
	"unicode/utf8"
)

// Segment is one subtitle produced by the segmenter and refined by the
// optimizer. Start and End are seconds from the beginning of the media.
type Segment struct {
	ID         string  `json:"id"`
	Text       string  `json:"text"`
	Start      float64 `json:"start_seconds"`
	End        float64 `json:"end_seconds"`
	Confidence float64 `json:"confidence"`
	Language   string  `json:"language"`
	VideoID    string  `json:"video_id"`
}

func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// text length in characters
func (s Segment) Length() int {
	return utf8.RuneCountInString(s.Text)
}

// represents single subtitle entry
type Entry struct {
	Index     int
	StartTime time.Duration
	EndTime   time.Duration
	Text      string
}

// represents complete subtitle track
type Subtitle struct {
	Entries  []Entry
	Segments []Segment
	Language string
	Format   string
}

// represents supported subtitle formats
type Format string

const (
	FormatSRT  Format = "srt"
	FormatVTT  Format = "vtt"
	FormatASS  Format = "ass"
	FormatJSON Format = "json"
)

// interface for writing subtitles to files
type Writer interface {
	Write(subtitle *Subtitle, path string) error
}

func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}
