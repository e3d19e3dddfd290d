// Package dctstore is a write-through persistent record of dwarf-creation
// transactions and winning Hive draws, backed by bbolt.
package dctstore

import (
	"fmt"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/sudo696/ring/internal/types"
)

var (
	bucketDCTs      = []byte("dcts")
	bucketSolutions = []byte("solutions")
)

// Store is a write-through persistent index of dwarf-creation
// transactions, plus a recoverable journal of Hive solutions this node
// has submitted. All reads come from in-memory maps; writes go to both
// memory and disk.
type Store struct {
	mu sync.RWMutex
	db *bbolt.DB

	dcts      map[[32]byte]*types.DwarfCreationTransaction
	solutions []*types.HiveSolution

	logger *zap.Logger
}

// Open opens (or creates) a bbolt database at path, loads every known DCT
// and solution into memory, and returns the store.
func Open(path string, logger *zap.Logger) (*Store, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("dctstore: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketDCTs); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketSolutions)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("dctstore: create buckets: %w", err)
	}

	s := &Store{
		db:     db,
		dcts:   make(map[[32]byte]*types.DwarfCreationTransaction),
		logger: logger,
	}

	err = db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketDCTs)
		return b.ForEach(func(k, v []byte) error {
			dct, err := decodeDCT(v)
			if err != nil {
				return fmt.Errorf("decode DCT %x: %w", k, err)
			}
			var txid [32]byte
			copy(txid[:], k)
			s.dcts[txid] = dct
			return nil
		})
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("dctstore: load DCTs: %w", err)
	}

	err = db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketSolutions)
		return b.ForEach(func(k, v []byte) error {
			sol, err := decodeSolution(v)
			if err != nil {
				return fmt.Errorf("decode solution %x: %w", k, err)
			}
			s.solutions = append(s.solutions, sol)
			return nil
		})
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("dctstore: load solutions: %w", err)
	}

	logger.Info("dctstore loaded from disk",
		zap.Int("dcts_loaded", len(s.dcts)),
		zap.Int("solutions_loaded", len(s.solutions)),
	)

	return s, nil
}

// PutDCT records a dwarf-creation transaction, overwriting any existing
// record for the same txid (used to correct a community-flag or
// reward-script observation as the transaction is reconfirmed deeper).
func (s *Store) PutDCT(dct *types.DwarfCreationTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := encodeDCT(dct)
	if err != nil {
		return fmt.Errorf("dctstore: encode DCT: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDCTs).Put(dct.Txid[:], data)
	})
	if err != nil {
		return fmt.Errorf("dctstore: persist DCT: %w", err)
	}

	s.dcts[dct.Txid] = dct
	return nil
}

// DCT looks up a previously recorded dwarf-creation transaction by txid.
func (s *Store) DCT(txid [32]byte) (*types.DwarfCreationTransaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dct, ok := s.dcts[txid]
	return dct, ok
}

// AllDCTs returns every recorded DCT, in no particular order; HiveStatus
// uses it to count the dwarf population.
func (s *Store) AllDCTs() []*types.DwarfCreationTransaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*types.DwarfCreationTransaction, 0, len(s.dcts))
	for _, d := range s.dcts {
		out = append(out, d)
	}
	return out
}

// RecordSolution appends a winning Hive draw to the on-disk journal, which
// Solutions lists again after a restart. The Hive engine does not consult
// the journal before submitting.
func (s *Store) RecordSolution(sol *types.HiveSolution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := encodeSolution(sol)
	if err != nil {
		return fmt.Errorf("dctstore: encode solution: %w", err)
	}

	key := solutionKey(sol)
	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSolutions).Put(key, data)
	})
	if err != nil {
		return fmt.Errorf("dctstore: persist solution: %w", err)
	}

	s.solutions = append(s.solutions, sol)
	return nil
}

// Solutions returns every recorded Hive solution: those loaded at Open in
// on-disk key order (DCT txid, then dwarf nonce), followed by those
// recorded since, in recording order.
func (s *Store) Solutions() []*types.HiveSolution {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*types.HiveSolution, len(s.solutions))
	copy(out, s.solutions)
	return out
}

func (s *Store) Close() error {
	return s.db.Close()
}

func solutionKey(sol *types.HiveSolution) []byte {
	key := make([]byte, 36)
	copy(key, sol.DCT.Txid[:])
	key[32] = byte(sol.DwarfNonce)
	key[33] = byte(sol.DwarfNonce >> 8)
	key[34] = byte(sol.DwarfNonce >> 16)
	key[35] = byte(sol.DwarfNonce >> 24)
	return key
}

// cborDCT is the on-disk shadow of DwarfCreationTransaction. int64 and
// int32 fields round-trip through CBOR without the shadowing gob needs for
// *big.Int, but the shadow struct is kept anyway so the wire form is
// decoupled from the in-memory type and can evolve independently.
type cborDCT struct {
	Txid              [32]byte
	Vout              uint32
	Value             int64
	Height            int32
	RewardScript      []byte
	CommunityContrib  bool
	CommunityDonation int64
	CommunityScript   []byte
}

func encodeDCT(d *types.DwarfCreationTransaction) ([]byte, error) {
	return cbor.Marshal(cborDCT{
		Txid:              d.Txid,
		Vout:              d.Vout,
		Value:             d.Value,
		Height:            d.Height,
		RewardScript:      d.RewardScript,
		CommunityContrib:  d.CommunityContrib,
		CommunityDonation: d.CommunityDonation,
		CommunityScript:   d.CommunityScript,
	})
}

func decodeDCT(data []byte) (*types.DwarfCreationTransaction, error) {
	var cd cborDCT
	if err := cbor.Unmarshal(data, &cd); err != nil {
		return nil, err
	}
	return &types.DwarfCreationTransaction{
		Txid:              cd.Txid,
		Vout:              cd.Vout,
		Value:             cd.Value,
		Height:            cd.Height,
		RewardScript:      cd.RewardScript,
		CommunityContrib:  cd.CommunityContrib,
		CommunityDonation: cd.CommunityDonation,
		CommunityScript:   cd.CommunityScript,
	}, nil
}

type cborSolution struct {
	DCT           cborDCT
	DwarfNonce    uint32
	ClaimedHeight int32
	DetRandString string
	Signature     []byte
	Community     bool
}

func encodeSolution(sol *types.HiveSolution) ([]byte, error) {
	return cbor.Marshal(cborSolution{
		DCT: cborDCT{
			Txid:              sol.DCT.Txid,
			Vout:              sol.DCT.Vout,
			Value:             sol.DCT.Value,
			Height:            sol.DCT.Height,
			RewardScript:      sol.DCT.RewardScript,
			CommunityContrib:  sol.DCT.CommunityContrib,
			CommunityDonation: sol.DCT.CommunityDonation,
			CommunityScript:   sol.DCT.CommunityScript,
		},
		DwarfNonce:    sol.DwarfNonce,
		ClaimedHeight: sol.ClaimedHeight,
		DetRandString: sol.DetRandString,
		Signature:     sol.Signature,
		Community:     sol.Community,
	})
}

func decodeSolution(data []byte) (*types.HiveSolution, error) {
	var cs cborSolution
	if err := cbor.Unmarshal(data, &cs); err != nil {
		return nil, err
	}
	return &types.HiveSolution{
		DCT: &types.DwarfCreationTransaction{
			Txid:              cs.DCT.Txid,
			Vout:              cs.DCT.Vout,
			Value:             cs.DCT.Value,
			Height:            cs.DCT.Height,
			RewardScript:      cs.DCT.RewardScript,
			CommunityContrib:  cs.DCT.CommunityContrib,
			CommunityDonation: cs.DCT.CommunityDonation,
			CommunityScript:   cs.DCT.CommunityScript,
		},
		DwarfNonce:    cs.DwarfNonce,
		ClaimedHeight: cs.ClaimedHeight,
		DetRandString: cs.DetRandString,
		Signature:     cs.Signature,
		Community:     cs.Community,
	}, nil
}
