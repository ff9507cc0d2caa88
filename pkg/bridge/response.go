package bridge

import "encoding/json"

type Status string

const (
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusError      Status = "error"
)

// Response is the synchronous answer to a dispatch. It is advisory: it says
// the command was handed over, never what the instance did with it.
type Response struct {
	Status  Status
	Payload map[string]any
}

// MarshalJSON flattens the payload next to the status field.
func (r Response) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Payload)+1)
	for k, v := range r.Payload {
		out[k] = v
	}
	out["status"] = r.Status
	return json.Marshal(out)
}
