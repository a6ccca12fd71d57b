package face

import (
	"FaceSignal/pkg/response"
	"net/http"
)

var (
	ErrInternalServerError = response.NewError(http.StatusInternalServerError, "internal server error")
	ErrBadRequest          = response.NewError(http.StatusBadRequest, "bad request")
	ErrInvalidFrame        = response.NewError(http.StatusConflict, "cannot capture frame: video dimensions are invalid")
	ErrCaptureUnavailable  = response.NewError(http.StatusServiceUnavailable, "video capture unavailable")
	ErrCaptureInactive     = response.NewError(http.StatusConflict, "video capture is not active")
	ErrIngestUnsupported   = response.NewError(http.StatusBadRequest, "frame source does not accept streamed frames")
	ErrUnsupportedFrame    = response.NewError(http.StatusBadRequest, "frame is not a supported image")
	ErrSnapshotStorage     = response.NewError(http.StatusServiceUnavailable, "snapshot storage is not configured")
)
