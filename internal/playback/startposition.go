package playback

import "dlnabridge/internal/catalog"

const bytesPerSecondEstimate = 8_000_000 / 8 // 8 Mbps assumed bitrate, per byte

// ComputeSeekTicks derives a start position from an inbound Range header
// offset, clamped to [0, total_ticks]. rangeStart is the "N" in
// "Range: bytes=N-"; durationSeconds and totalTicks come from the item's
// primary media source.
func ComputeSeekTicks(rangeStart int64, durationSeconds float64, totalTicks int64) int64 {
	if rangeStart <= 0 || durationSeconds <= 0 || totalTicks <= 0 {
		return 0
	}
	estimatedTotalBytes := durationSeconds * bytesPerSecondEstimate
	if estimatedTotalBytes <= 0 {
		return 0
	}
	fraction := float64(rangeStart) / estimatedTotalBytes
	if fraction > 1 {
		fraction = 1
	}
	ticks := int64(fraction * float64(totalTicks))
	if ticks < 0 {
		ticks = 0
	}
	if ticks > totalTicks {
		ticks = totalTicks
	}
	return ticks
}

// ResolveStartTicks reconciles a range-derived seek estimate against the
// upstream resume position, per the §4.5 Start position rule: prefer the
// upstream resume position when it's meaningful (>2min, item unplayed)
// unless the two disagree by more than a minute.
func ResolveStartTicks(rangeSeekTicks int64, userData *catalog.UserData) int64 {
	if userData == nil || userData.Played {
		return rangeSeekTicks
	}
	resume := userData.PlaybackPositionTicks
	if resume <= int64(resumePreferMinimum.Seconds())*catalog.TicksPerSecond {
		return rangeSeekTicks
	}
	disagreement := absDiff64(rangeSeekTicks, resume)
	if disagreement > int64(resumeDisagreement.Seconds())*catalog.TicksPerSecond {
		return rangeSeekTicks
	}
	return resume
}
