package codec

import (
	"fmt"

	"github.com/absmach/flock/pkg/fl"
	"github.com/fxamacker/cbor/v2"
)

const ContentType = "application/cbor"

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("cbor encoder: %v", err))
	}
	decMode, err = cbor.DecOptions{
		MaxArrayElements: 1 << 27,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("cbor decoder: %v", err))
	}
}

// Marshal encodes v as canonical CBOR.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

func MarshalParameters(ps fl.ParameterSet) ([]byte, error) {
	return Marshal(ps)
}

func UnmarshalParameters(data []byte) (fl.ParameterSet, error) {
	var ps fl.ParameterSet
	if err := Unmarshal(data, &ps); err != nil {
		return fl.ParameterSet{}, err
	}
	if err := ps.Validate(); err != nil {
		return fl.ParameterSet{}, err
	}

	return ps, nil
}
