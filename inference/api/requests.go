package api

import "errors"

var errMissingImage = errors.New("missing image")

type predictReq struct {
	image []byte
}

func (req predictReq) validate() error {
	if len(req.image) == 0 {
		return errMissingImage
	}

	return nil
}
