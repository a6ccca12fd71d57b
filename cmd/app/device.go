//go:build gocv

package main

// The OpenCV camera source needs cgo; build with -tags gocv to link it.
import _ "FaceSignal/pkg/camera/device"
