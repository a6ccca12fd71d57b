package facemetric

import (
	"errors"
	"fmt"
	"math"

	"FaceSignal/internal/entity"
)

var (
	ErrMalformedContour = errors.New("malformed landmark contour")
	// ErrDegenerateContour marks a zero corner span. The ratio would be
	// Inf or NaN, which reads as an open eye or mouth, so the signal
	// reports no face instead.
	ErrDegenerateContour = errors.New("degenerate landmark contour")
)

func Distance(p1, p2 entity.Point) float64 {
	dx := p1.X - p2.X
	dy := p1.Y - p2.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// EyeAspectRatio is (|p1-p5| + |p2-p4|) / (2 * |p0-p3|) over a 6-point eye contour.
func EyeAspectRatio(eye []entity.Point) (float64, error) {
	if len(eye) != entity.EyePoints {
		return 0, fmt.Errorf("%w: eye has %d points, want %d", ErrMalformedContour, len(eye), entity.EyePoints)
	}

	horizontal := Distance(eye[0], eye[3])
	if horizontal == 0 {
		return 0, fmt.Errorf("%w: eye corners coincide", ErrDegenerateContour)
	}

	vertical := Distance(eye[1], eye[5]) + Distance(eye[2], eye[4])
	return vertical / (2 * horizontal), nil
}

// MouthOpenness is the inner-lip gap |p13-p19| over the corner span |p12-p16|
// of a 20-point mouth contour.
func MouthOpenness(mouth []entity.Point) (float64, error) {
	if len(mouth) != entity.MouthPoints {
		return 0, fmt.Errorf("%w: mouth has %d points, want %d", ErrMalformedContour, len(mouth), entity.MouthPoints)
	}

	horizontal := Distance(mouth[12], mouth[16])
	if horizontal == 0 {
		return 0, fmt.Errorf("%w: mouth corners coincide", ErrDegenerateContour)
	}

	return Distance(mouth[13], mouth[19]) / horizontal, nil
}

// HeadPoseDelta returns nose[0] - nose[3] on both axes.
func HeadPoseDelta(nose []entity.Point) (dx, dy float64, err error) {
	if len(nose) < entity.MinNosePoints {
		return 0, 0, fmt.Errorf("%w: nose has %d points, want at least %d", ErrMalformedContour, len(nose), entity.MinNosePoints)
	}

	return nose[0].X - nose[3].X, nose[0].Y - nose[3].Y, nil
}
