package plugin

import (
	"encoding/json"
	"fmt"
	"io"
)

// ActionFunc handles one Request inside a plugin executable. A non-nil
// result is encoded as Response.Data.
type ActionFunc func(req *Request) (any, error)

// Serve is the plugin side of the protocol: it decodes one Request from r,
// runs the matching action and writes one Response to w. Action failures
// are reported in the Response; the returned error is only for I/O.
func Serve(r io.Reader, w io.Writer, actions map[string]ActionFunc) error {
	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return writeResponse(w, Response{Error: fmt.Sprintf("decode request: %v", err)})
	}

	fn, ok := actions[req.Action]
	if !ok {
		return writeResponse(w, Response{Error: fmt.Sprintf("unknown action: %s", req.Action)})
	}

	result, err := fn(&req)
	if err != nil {
		return writeResponse(w, Response{Error: fmt.Sprintf("action %s failed: %v", req.Action, err)})
	}

	resp := Response{Success: true}
	if result != nil {
		data, err := json.Marshal(result)
		if err != nil {
			return writeResponse(w, Response{Error: fmt.Sprintf("encode result: %v", err)})
		}
		resp.Data = data
	}
	return writeResponse(w, resp)
}

// DecodeParams unmarshals req.Params into v. Empty params leave v
// unchanged.
func (req *Request) DecodeParams(v any) error {
	if len(req.Params) == 0 {
		return nil
	}
	if err := json.Unmarshal(req.Params, v); err != nil {
		return fmt.Errorf("parse params: %w", err)
	}
	return nil
}

func writeResponse(w io.Writer, resp Response) error {
	return json.NewEncoder(w).Encode(resp)
}
