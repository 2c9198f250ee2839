package dataset

import (
	"fmt"
	"math/rand/v2"
)

// Split partitions the frame into train/test/validation by the given
// fractions (validation gets the remainder) after a seeded shuffle. The same
// seed and input produce the same partitions.
func Split(f *Frame, seed uint64, trainFrac, testFrac float64) (train, test, validation *Frame, err error) {
	if trainFrac <= 0 || testFrac < 0 || trainFrac+testFrac >= 1 {
		return nil, nil, nil, fmt.Errorf("invalid split fractions: train=%v test=%v", trainFrac, testFrac)
	}

	n := f.Len()
	if n < 3 {
		return nil, nil, nil, fmt.Errorf("need at least 3 rows to split, got %d", n)
	}

	r := rand.New(rand.NewPCG(seed, seed))
	perm := r.Perm(n)

	nTrain := int(float64(n) * trainFrac)
	nTest := int(float64(n) * testFrac)
	if nTrain == 0 || n-nTrain-nTest == 0 {
		return nil, nil, nil, fmt.Errorf("split fractions leave an empty partition for %d rows", n)
	}

	train, err = f.TakeRows(perm[:nTrain])
	if err != nil {
		return nil, nil, nil, err
	}
	test, err = f.TakeRows(perm[nTrain : nTrain+nTest])
	if err != nil {
		return nil, nil, nil, err
	}
	validation, err = f.TakeRows(perm[nTrain+nTest:])
	if err != nil {
		return nil, nil, nil, err
	}
	return train, test, validation, nil
}
