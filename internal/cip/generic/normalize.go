package generic

import (
	"github.com/google/uuid"

	cipErrors "github.com/tturner/cipmsg/internal/errors"
)

// Result is the caller-facing outcome of one request.
type Result struct {
	ID    uuid.UUID
	Label string
	Value any
	Error error
}

// Normalize maps a device reply to a Result. The value is the whole
// response when RawResponse is set, the decoded value when a decoder is
// set, and the raw reply data otherwise. The device status becomes the
// error regardless of the value shape. A decoder is only applied to
// successful replies; a decoding error leaves the raw data as the value.
func Normalize(req Request, resp *DeviceResponse) Result {
	res := Result{Label: req.Label, Error: resp.Status.Err()}
	switch {
	case req.RawResponse:
		res.Value = resp
	case req.Decoder == nil:
		res.Value = resp.Raw
	case !resp.Status.OK():
		res.Value = nil
	default:
		v, err := req.Decoder.Decode(resp.Raw)
		if err != nil {
			res.Value = resp.Raw
			res.Error = cipErrors.DecodeFailure(req.Decoder.Name(), err)
			break
		}
		res.Value = v
	}
	return res
}
