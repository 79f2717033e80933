// Package badger provides an embedded key-value implementation of the
// storage.Store interface on top of BadgerDB.
//
// Records are JSON values under prefixed keys:
//
//	calc/<id>                    basic calculation
//	expert/<id>                  expert calculation
//	link/code/<code>             short link
//	link/calc/<type>/<id>        short code of a calculation
//	seq/link                     short link sequence
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v2"
	"github.com/google/uuid"

	"github.com/mmynk/nekolators/internal/models"
	"github.com/mmynk/nekolators/internal/shortlink"
	"github.com/mmynk/nekolators/internal/storage"
)

const (
	calcPrefix       = "calc/"
	expertPrefix     = "expert/"
	linkCodePrefix   = "link/code/"
	linkCalcPrefix   = "link/calc/"
	linkSequenceKey  = "seq/link"
	sequenceLeaseLen = 16
)

var _ storage.Store = (*BadgerStore)(nil)

// BadgerStore implements storage.Store using BadgerDB.
type BadgerStore struct {
	db  *badger.DB
	seq *badger.Sequence
}

// New opens (or creates) a Badger database in dir.
func New(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	return open(opts)
}

// NewInMemory opens a Badger database that lives only in memory.
func NewInMemory() (*BadgerStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	return open(opts)
}

func open(opts badger.Options) (*BadgerStore, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	seq, err := db.GetSequence([]byte(linkSequenceKey), sequenceLeaseLen)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open link sequence: %w", err)
	}
	return &BadgerStore{db: db, seq: seq}, nil
}

// Close releases the unused part of the sequence lease and closes the database.
func (s *BadgerStore) Close() error {
	if err := s.seq.Release(); err != nil {
		s.db.Close()
		return fmt.Errorf("failed to release link sequence: %w", err)
	}
	return s.db.Close()
}

// CreateCalculation stores a new basic calculation.
func (s *BadgerStore) CreateCalculation(ctx context.Context, calc *models.Calculation) error {
	if calc.ID == "" {
		calc.ID = uuid.New().String()
	}
	storage.PrepareCalculation(calc, time.Now())
	return s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, calcPrefix+calc.ID, calc)
	})
}

// GetCalculation loads a basic calculation.
func (s *BadgerStore) GetCalculation(ctx context.Context, id string) (*models.Calculation, error) {
	calc := &models.Calculation{}
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, calcPrefix+id, calc)
	})
	if err != nil {
		return nil, fmt.Errorf("calculation %s: %w", id, err)
	}
	return calc, nil
}

// UpdateCalculation replaces a basic calculation, keeping its creation time.
func (s *BadgerStore) UpdateCalculation(ctx context.Context, calc *models.Calculation) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		var existing models.Calculation
		if err := getJSON(txn, calcPrefix+calc.ID, &existing); err != nil {
			return err
		}
		calc.CreatedAt = existing.CreatedAt
		calc.UpdatedAt = time.Now().Unix()
		return setJSON(txn, calcPrefix+calc.ID, calc)
	})
	if err != nil {
		return fmt.Errorf("calculation %s: %w", calc.ID, err)
	}
	return nil
}

// CreateExpertCalculation stores a new expert calculation.
func (s *BadgerStore) CreateExpertCalculation(ctx context.Context, calc *models.ExpertCalculation) error {
	if calc.ID == "" {
		calc.ID = uuid.New().String()
	}
	storage.PrepareExpertCalculation(calc, time.Now())
	return s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, expertPrefix+calc.ID, calc)
	})
}

// GetExpertCalculation loads an expert calculation.
func (s *BadgerStore) GetExpertCalculation(ctx context.Context, id string) (*models.ExpertCalculation, error) {
	calc := &models.ExpertCalculation{}
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, expertPrefix+id, calc)
	})
	if err != nil {
		return nil, fmt.Errorf("expert calculation %s: %w", id, err)
	}
	return calc, nil
}

// UpdateExpertCalculation replaces an expert calculation.
func (s *BadgerStore) UpdateExpertCalculation(ctx context.Context, calc *models.ExpertCalculation) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		var existing models.ExpertCalculation
		if err := getJSON(txn, expertPrefix+calc.ID, &existing); err != nil {
			return err
		}
		calc.CreatedAt = existing.CreatedAt
		calc.UpdatedAt = time.Now().Unix()
		return setJSON(txn, expertPrefix+calc.ID, calc)
	})
	if err != nil {
		return fmt.Errorf("expert calculation %s: %w", calc.ID, err)
	}
	return nil
}

// CreateShortLink takes the next number from the link sequence. Badger
// sequences start at zero, so codes are derived from next+1.
func (s *BadgerStore) CreateShortLink(ctx context.Context, link *models.ShortLink) error {
	next, err := s.seq.Next()
	if err != nil {
		return fmt.Errorf("failed to allocate short link sequence: %w", err)
	}
	link.Seq = int64(next) + 1
	link.Code = shortlink.Encode(link.Seq)
	link.CreatedAt = time.Now().Unix()

	byCalc := linkCalcKey(link.CalculationType, link.CalculationID)
	err = s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(byCalc)); err == nil {
			return fmt.Errorf("short link for %s %s: %w", link.CalculationType, link.CalculationID, storage.ErrConflict)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := setJSON(txn, linkCodePrefix+link.Code, link); err != nil {
			return err
		}
		return txn.Set([]byte(byCalc), []byte(link.Code))
	})
	// A concurrent create that committed the same index key first makes
	// this transaction fail with badger.ErrConflict.
	if errors.Is(err, badger.ErrConflict) {
		return fmt.Errorf("short link for %s %s: %w", link.CalculationType, link.CalculationID, storage.ErrConflict)
	}
	return err
}

// ResolveShortLink loads a short link by code.
func (s *BadgerStore) ResolveShortLink(ctx context.Context, code string) (*models.ShortLink, error) {
	link := &models.ShortLink{}
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, linkCodePrefix+code, link)
	})
	if err != nil {
		return nil, fmt.Errorf("short link %s: %w", code, err)
	}
	return link, nil
}

// GetShortLinkByCalculation follows the calculation index to its link.
func (s *BadgerStore) GetShortLinkByCalculation(ctx context.Context, calcType models.CalculationType, calcID string) (*models.ShortLink, error) {
	link := &models.ShortLink{}
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(linkCalcKey(calcType, calcID)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		code, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return getJSON(txn, linkCodePrefix+string(code), link)
	})
	if err != nil {
		return nil, fmt.Errorf("short link: %w", err)
	}
	return link, nil
}

func linkCalcKey(calcType models.CalculationType, calcID string) string {
	return linkCalcPrefix + string(calcType) + "/" + calcID
}

func setJSON(txn *badger.Txn, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set([]byte(key), b)
}

// getJSON decodes the value at key into v, mapping a missing key to
// storage.ErrNotFound.
func getJSON(txn *badger.Txn, key string, v any) error {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return storage.ErrNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}
