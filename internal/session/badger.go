package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"linkvault/internal/domain"
)

// pendingTTL bounds how long an unanswered MCQ stays alive. A sender who
// never replies should not hold state forever.
const pendingTTL = time.Hour

// BadgerStore implements PendingStore on BadgerDB. Badger transactions give
// the per-sender atomicity the pipeline needs: Resolve is a single
// read-then-delete transaction, so a duplicate reply races to a clean
// ErrNotPending instead of a double save.
type BadgerStore struct {
	db  *badger.DB
	log logrus.FieldLogger
}

// NewBadgerStore opens the pending-link store. An empty path runs fully
// in-memory, which matches the ephemeral contract and is the default.
func NewBadgerStore(path string, logger logrus.FieldLogger) (*BadgerStore, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(path)
	}
	opts.Logger = &badgerLogger{logger.WithField("component", "badgerdb")}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open pending store: %w", err)
	}

	return &BadgerStore{
		db:  db,
		log: logger.WithField("component", "pending_store"),
	}, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func pendingKey(senderKey string) []byte {
	return []byte("pending:" + senderKey)
}

func (s *BadgerStore) Get(ctx context.Context, senderKey string) (*domain.PendingLink, error) {
	var pending *domain.PendingLink
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(pendingKey(senderKey))
		if err == badger.ErrKeyNotFound {
			return ErrNotPending
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var p domain.PendingLink
			if err := json.Unmarshal(val, &p); err != nil {
				return fmt.Errorf("failed to unmarshal pending link: %w", err)
			}
			pending = &p
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return pending, nil
}

func (s *BadgerStore) Put(ctx context.Context, senderKey string, pending *domain.PendingLink) error {
	value, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("failed to marshal pending link: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(pendingKey(senderKey), value).WithTTL(pendingTTL)
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("failed to store pending link: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"sender":   senderKey,
		"platform": pending.Platform,
	}).Info("Pending link stored")
	return nil
}

func (s *BadgerStore) Resolve(ctx context.Context, senderKey string) (*domain.PendingLink, error) {
	var pending *domain.PendingLink
	err := s.db.Update(func(txn *badger.Txn) error {
		key := pendingKey(senderKey)
		item, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			return ErrNotPending
		}
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			var p domain.PendingLink
			if err := json.Unmarshal(val, &p); err != nil {
				return fmt.Errorf("failed to unmarshal pending link: %w", err)
			}
			pending = &p
			return nil
		}); err != nil {
			return err
		}
		return txn.Delete(key)
	})
	if err != nil {
		return nil, err
	}
	return pending, nil
}

func (s *BadgerStore) IncrementRetry(ctx context.Context, senderKey string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		key := pendingKey(senderKey)
		item, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			return ErrNotPending
		}
		if err != nil {
			return err
		}
		var p domain.PendingLink
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &p)
		}); err != nil {
			return err
		}
		p.Retries++
		value, err := json.Marshal(&p)
		if err != nil {
			return fmt.Errorf("failed to marshal pending link: %w", err)
		}
		e := badger.NewEntry(key, value).WithTTL(pendingTTL)
		return txn.SetEntry(e)
	})
}

func (s *BadgerStore) Delete(ctx context.Context, senderKey string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(pendingKey(senderKey))
	})
}

// badgerLogger adapts logrus to Badger's internal logger interface.
type badgerLogger struct {
	logger logrus.FieldLogger
}

func (l *badgerLogger) Errorf(f string, v ...interface{})   { l.logger.Errorf(f, v...) }
func (l *badgerLogger) Warningf(f string, v ...interface{}) { l.logger.Warningf(f, v...) }
func (l *badgerLogger) Infof(f string, v ...interface{})    { l.logger.Debugf(f, v...) }
func (l *badgerLogger) Debugf(f string, v ...interface{})   { l.logger.Debugf(f, v...) }
