package service

const (
	// HR validation thresholds; readings outside are strap dropouts
	MinValidHeartrate = 30
	MaxValidHeartrate = 240

	// Heart rate exports are logged once per second
	HeartRateSampleSeconds = 1.0

	// Seconds per minute for TRIMP durations
	SecondsPerMinute = 60

	// Runs listed by the viewer
	RecentRunsLimit = 20

	// Samples kept when downsampling a trace for the terminal chart
	TraceWidth = 72
)
