package gateway

import (
	"github.com/wavesplatform/etoken/pkg/proto"
)

const (
	stateKeyPrefix byte = iota
	pinKeyPrefix
)

var stateKey = []byte{stateKeyPrefix}

type pinKey struct {
	holder proto.Address
}

func (k *pinKey) bytes() []byte {
	buf := make([]byte, 1+proto.AddressSize)
	buf[0] = pinKeyPrefix
	copy(buf[1:], k.holder[:])
	return buf
}
