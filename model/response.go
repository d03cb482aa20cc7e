package model

// Meta carries host-supplied context stored alongside a response
// (source URL, user agent class, custom tags).
type Meta map[string]string

// ResponsePayload is the outbound response document handed to the
// storage layer once a session finalizes.
type ResponsePayload struct {
	Data     ResponseData `json:"data"`
	TTC      TTC          `json:"ttc"`
	Finished bool         `json:"finished"`
	Language string       `json:"language"`
	Failed   bool         `json:"failed,omitempty"`
	Meta     Meta         `json:"meta,omitempty"`
}
