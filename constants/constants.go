package constants

import "os"

// 120 BPM
const DefaultTempo = 500000

const (
	DefaultChordWindow = 0.5
	DefaultQuantize    = 0.125
	DefaultRhythmTopK  = 5
)

// NoKey is reported when no key profile correlates positively.
const NoKey = "no detectable key"

// written when exporting aligned timelines back to midi
const (
	ExportTicksPerBeat = 480
	ExportBPM          = 120.0
)

func GetConfigPath() string {
	return os.Getenv("MIDISCAN_CONFIG")
}

func GetListenAddr() string {
	addr := os.Getenv("MIDISCAN_ADDR")
	if addr != "" {
		return addr
	}
	return ":8080"
}

// GetDynamoTable returns "" when results should only be kept in memory.
func GetDynamoTable() string {
	return os.Getenv("MIDISCAN_DYNAMO_TABLE")
}

func GetDynamoEndpoint() string {
	return os.Getenv("MIDISCAN_DYNAMO_ENDPOINT")
}

func GetAWSRegion() string {
	region := os.Getenv("AWS_REGION")
	if region != "" {
		return region
	}
	return "us-east-1"
}
