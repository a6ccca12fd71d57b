// Package facemetric derives facial-state signals from a single detection.
//
// Every computation is a pure function of the detection it is given: the
// engine keeps no state between calls, so evaluating the same detection
// twice yields the same SignalSet.
//
// Landmark coordinates are consumed in the detector's native pixel space.
// The ratios (eye aspect, mouth openness) are scale free, but the head-pose
// delta is an absolute distance: if landmarks are ever normalized to [0,1]
// or produced at another resolution, Thresholds.HeadPoseDelta must be
// rescaled with them.
package facemetric
