package telephony

// Frame is the JSON envelope of the telephony media stream. The event field
// discriminates: "start" carries stream metadata and the custom parameters
// set by the call-setup webhook, "media" carries one base64 audio chunk,
// "stop" signals the end of the stream.
type Frame struct {
	Event     string `json:"event"`
	StreamSID string `json:"streamSid,omitempty"`
	Start     *Start `json:"start,omitempty"`
	Media     *Media `json:"media,omitempty"`
	Stop      *Stop  `json:"stop,omitempty"`
}

// Start describes the opening frame of a media stream.
type Start struct {
	StreamSID        string            `json:"streamSid"`
	CallSID          string            `json:"callSid"`
	CustomParameters map[string]string `json:"customParameters,omitempty"`
}

// Media carries one audio chunk, payload base64-encoded.
type Media struct {
	Payload string `json:"payload"`
}

// Stop describes the closing frame of a media stream.
type Stop struct {
	CallSID string `json:"callSid"`
}

// Custom parameter names set by the call-setup webhook and read back from
// the start event.
const (
	ParamFirstMessage = "firstMessage"
	ParamCallerNumber = "callerNumber"
)

// Event names.
const (
	EventStart = "start"
	EventMedia = "media"
	EventStop  = "stop"
)

// OutboundMedia is the frame shape for audio sent back to the caller,
// addressed by the stream identifier captured from the start event.
type OutboundMedia struct {
	Event     string `json:"event"`
	StreamSID string `json:"streamSid"`
	Media     Media  `json:"media"`
}

// NewOutboundMedia wraps one base64 audio payload for the given stream.
func NewOutboundMedia(streamSID, payload string) OutboundMedia {
	return OutboundMedia{
		Event:     EventMedia,
		StreamSID: streamSID,
		Media:     Media{Payload: payload},
	}
}
