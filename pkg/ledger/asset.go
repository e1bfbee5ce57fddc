package ledger

import (
	"github.com/fxamacker/cbor/v2"
	"github.com/holiman/uint256"

	"github.com/wavesplatform/etoken/pkg/proto"
)

// Asset is the full record of an issued asset.
type Asset struct {
	Symbol      proto.Symbol
	Owner       proto.Address
	Name        string
	Description string
	BaseUnit    uint8
	TotalSupply *uint256.Int
	Reissuable  bool
	Locked      bool
	Proxy       proto.Address
}

type assetRecord struct {
	Owner       proto.Address `cbor:"1,keyasint"`
	Name        string        `cbor:"2,keyasint"`
	Description string        `cbor:"3,keyasint"`
	BaseUnit    uint8         `cbor:"4,keyasint"`
	TotalSupply []byte        `cbor:"5,keyasint"`
	Reissuable  bool          `cbor:"6,keyasint"`
	Locked      bool          `cbor:"7,keyasint"`
	Proxy       proto.Address `cbor:"8,keyasint"`
}

func (a *Asset) marshalBinary() ([]byte, error) {
	return cbor.Marshal(assetRecord{
		Owner:       a.Owner,
		Name:        a.Name,
		Description: a.Description,
		BaseUnit:    a.BaseUnit,
		TotalSupply: proto.AmountBytes(a.TotalSupply),
		Reissuable:  a.Reissuable,
		Locked:      a.Locked,
		Proxy:       a.Proxy,
	})
}

func (a *Asset) unmarshalBinary(symbol proto.Symbol, data []byte) error {
	var r assetRecord
	if err := cbor.Unmarshal(data, &r); err != nil {
		return err
	}
	supply, err := proto.AmountFromBytes(r.TotalSupply)
	if err != nil {
		return err
	}
	*a = Asset{
		Symbol:      symbol,
		Owner:       r.Owner,
		Name:        r.Name,
		Description: r.Description,
		BaseUnit:    r.BaseUnit,
		TotalSupply: supply,
		Reissuable:  r.Reissuable,
		Locked:      r.Locked,
		Proxy:       r.Proxy,
	}
	return nil
}
