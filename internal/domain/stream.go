package domain

// StreamID is the caller-supplied opaque identifier of an in-flight download.
type StreamID string

type StreamStatus string

const (
	StreamPending     StreamStatus = "pending"
	StreamDownloading StreamStatus = "downloading"
	StreamConverting  StreamStatus = "converting"
	StreamComplete    StreamStatus = "complete"
	StreamError       StreamStatus = "error"
)

// NormalizeStatus maps a raw registry value to a known status.
// Unknown or empty values fall back to pending, since a stream the
// worker has not reported on yet is indistinguishable from a fresh one.
func NormalizeStatus(raw string) StreamStatus {
	switch StreamStatus(raw) {
	case StreamDownloading:
		return StreamDownloading
	case StreamConverting:
		return StreamConverting
	case StreamComplete:
		return StreamComplete
	case StreamError:
		return StreamError
	default:
		return StreamPending
	}
}

// StreamState is the poll-visible snapshot of one stream session.
type StreamState struct {
	ID       StreamID     `json:"id"`
	Progress int          `json:"progress"`
	Status   StreamStatus `json:"status"`
}
