package keyvalue

import (
	"github.com/cespare/xxhash/v2"
	"github.com/steakknife/bloomfilter"
)

type BloomFilterParams struct {
	// N is how many items will be added to the filter.
	N int
	// FalsePositiveProbability is acceptable false positive rate {0..1}.
	FalsePositiveProbability float64
}

// DefaultBloomFilterParams fits a ledger with about a million balance records.
var DefaultBloomFilterParams = BloomFilterParams{N: 1_000_000, FalsePositiveProbability: 0.01}

type bloomFilter struct {
	filter *bloomfilter.Filter
	params BloomFilterParams
}

func newBloomFilter(params BloomFilterParams) (*bloomFilter, error) {
	bf, err := bloomfilter.NewOptimal(uint64(params.N), params.FalsePositiveProbability)
	if err != nil {
		return nil, err
	}
	return &bloomFilter{filter: bf, params: params}, nil
}

func (bf *bloomFilter) add(data []byte) {
	f := xxhash.New()
	_, _ = f.Write(data) // never fails
	bf.filter.Add(f)
}

func (bf *bloomFilter) notInTheSet(data []byte) bool {
	f := xxhash.New()
	_, _ = f.Write(data)
	return !bf.filter.Contains(f)
}
