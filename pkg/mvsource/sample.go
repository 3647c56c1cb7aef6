package mvsource

// Frames before this are always analyzed, so that the pipeline has settled before sampling starts
const SampleWarmup = 10

// Sample reports whether a frame should be analyzed, when only every Nth frame is wanted.
// every <= 1 keeps all frames.
func Sample(frameNumber, every int) bool {
	if every <= 1 || frameNumber < SampleWarmup {
		return true
	}
	return frameNumber%every == 0
}
