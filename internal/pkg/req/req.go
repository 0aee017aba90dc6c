/*
Package req provides strict JSON decoding for client payloads.

Decoding errors are mapped onto errs codes so they can be acknowledged back to the
sender like any other rejected request.
*/
package req

import (
	"bytes"
	"encoding/json"

	"chatrelay/internal/pkg/errs"
)

// DecodeJSON decodes raw into dst, rejecting unknown fields and trailing content.
// An empty payload is reported as ErrInvalidParams.
func DecodeJSON(raw []byte, dst any) *errs.CustomError {
	if len(bytes.TrimSpace(raw)) == 0 {
		return errs.NewError(errs.ErrInvalidParams)
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}
