package types

import (
	"math/big"
	"reflect"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"

	"github.com/xuperchain/eeproxy/kernel/ee/codec"
)

// Keys of the invoke info dictionary.
const (
	InfoBlockTimestamp = "B.timestamp"
	InfoBlockHeight    = "B.height"
	InfoTxHash         = "T.hash"
	InfoTxIndex        = "T.index"
	InfoTxFrom         = "T.from"
	InfoTxTimestamp    = "T.timestamp"
	InfoTxNonce        = "T.nonce"
	InfoStepCosts      = "StepCosts"
	InfoContractOwner  = "C.owner"
	InfoRevision       = "Revision"
)

// Info is the typed view of the invoke info dictionary.
type Info struct {
	BlockTimestamp int64               `mapstructure:"B.timestamp"`
	BlockHeight    int64               `mapstructure:"B.height"`
	TxHash         []byte              `mapstructure:"T.hash"`
	TxIndex        int                 `mapstructure:"T.index"`
	TxFrom         *Address            `mapstructure:"T.from"`
	TxTimestamp    int64               `mapstructure:"T.timestamp"`
	TxNonce        *big.Int            `mapstructure:"T.nonce"`
	StepCosts      map[string]*big.Int `mapstructure:"StepCosts"`
	ContractOwner  *Address            `mapstructure:"C.owner"`
	Revision       int                 `mapstructure:"Revision"`
}

var bigIntType = reflect.TypeOf((*big.Int)(nil))

// infoHook narrows decoded big integers and ordered maps to the field types.
func infoHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	switch v := data.(type) {
	case *big.Int:
		if to == bigIntType {
			return v, nil
		}
		switch to.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if !v.IsInt64() {
				return nil, errors.Errorf("integer %s overflows %s", v, to)
			}
			return v.Int64(), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			if !v.IsUint64() {
				return nil, errors.Errorf("integer %s overflows %s", v, to)
			}
			return v.Uint64(), nil
		}
	case *codec.OrderedMap:
		return v.StringMap(), nil
	}
	return data, nil
}

// DecodeInfo converts the decoded info dictionary into Info. Unknown keys are
// ignored.
func DecodeInfo(m map[string]interface{}) (*Info, error) {
	info := new(Info)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.DecodeHookFuncType(infoHook),
		Result:     info,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(m); err != nil {
		return nil, errors.Wrap(err, "decode invoke info")
	}
	return info, nil
}
