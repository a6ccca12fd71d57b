package entity

import "time"

const (
	FrameFormatJPEG = "jpeg"
	FrameFormatPNG  = "png"
	FrameFormatRGBA = "rgba"
)

// Frame is one captured video frame. Data is shared between the source and
// the sampler and must not be modified after the frame is published.
type Frame struct {
	Seq       uint64    `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Format    string    `json:"format"`
	Data      []byte    `json:"-"`
}

func (f *Frame) HasValidDimensions() bool {
	return f != nil && f.Width > 0 && f.Height > 0
}

type Snapshot struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	MimeType string `json:"mime_type"`
	DataURL  string `json:"data_url"`
	Location string `json:"location,omitempty"`
	Data     []byte `json:"-"`
}
