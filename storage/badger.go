package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	// sequenceBandwidth is how many sequence numbers are leased from disk at once.
	sequenceBandwidth = 100
	// idValueKey holds the document ID inside the encoded struct.
	idValueKey = "_id"
	// newestSeqKey sorts after any 20-digit sequence.
	newestSeqKey = "99999999999999999999"
)

// BadgerStore keeps documents in BadgerDB.
// Keys are laid out as:
//
//	doc:{collection}:{seq padded to 20 digits} -> document encoded as a protobuf Struct
//	idx:{collection}:{id}                      -> doc key
//	uniq:{collection}:{field}:{value}          -> doc key, for declared Unique fields
//
// The padded sequence keeps the prefix scan in insertion order.
// A uniq key is read before it is written, so two transactions claiming the
// same value conflict and only the first commit wins.
type BadgerStore struct {
	db      *badger.DB
	log     *slog.Logger
	uniques []Unique

	mu        sync.Mutex
	sequences map[string]*badger.Sequence
}

func NewBadgerStore(db *badger.DB, log *slog.Logger, uniques ...Unique) *BadgerStore {
	return &BadgerStore{db: db, log: log, uniques: uniques, sequences: make(map[string]*badger.Sequence)}
}

func (s *BadgerStore) Insert(ctx context.Context, collection string, fields Fields) (Document, error) {
	var doc Document
	err := s.Transact(ctx, func(ops Operations) error {
		var err error
		doc, err = ops.Insert(ctx, collection, fields)
		return err
	})
	return doc, err
}

func (s *BadgerStore) FindOne(ctx context.Context, collection string, filter Filter) (Document, error) {
	var doc Document
	err := s.view(ctx, func(ops badgerOps) error {
		var err error
		doc, err = ops.FindOne(ctx, collection, filter)
		return err
	})
	return doc, err
}

func (s *BadgerStore) FindMany(ctx context.Context, collection string, filter Filter, opts FindOptions) ([]Document, error) {
	var docs []Document
	err := s.view(ctx, func(ops badgerOps) error {
		var err error
		docs, err = ops.FindMany(ctx, collection, filter, opts)
		return err
	})
	return docs, err
}

func (s *BadgerStore) UpdateOne(ctx context.Context, collection string, filter Filter, patch Fields) error {
	return s.Transact(ctx, func(ops Operations) error {
		return ops.UpdateOne(ctx, collection, filter, patch)
	})
}

func (s *BadgerStore) DeleteOne(ctx context.Context, collection string, filter Filter) error {
	return s.Transact(ctx, func(ops Operations) error {
		return ops.DeleteOne(ctx, collection, filter)
	})
}

// Transact runs fn inside a read-write Badger transaction.
// When a concurrent commit wrote a key fn read, Badger rejects the commit with
// badger.ErrConflict and fn is replayed on a fresh snapshot.
func (s *BadgerStore) Transact(ctx context.Context, fn func(ops Operations) error) error {
	var err error
	for attempt := 0; attempt <= conflictRetries; attempt++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		err = s.db.Update(func(txn *badger.Txn) error {
			return fn(badgerOps{store: s, txn: txn})
		})
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		s.log.Debug("Transaction conflict, replaying", "attempt", attempt+1)
	}
	return err
}

func (s *BadgerStore) Ping(ctx context.Context) error {
	if s.db.IsClosed() {
		return badger.ErrDBClosed
	}
	return s.view(ctx, func(badgerOps) error { return nil })
}

// Close releases the leased sequences and closes the database.
func (s *BadgerStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for collection, seq := range s.sequences {
		if err := seq.Release(); err != nil {
			s.log.Warn("Failed to release sequence", "collection", collection, "error", err)
		}
	}
	s.sequences = make(map[string]*badger.Sequence)
	return s.db.Close()
}

func (s *BadgerStore) view(ctx context.Context, fn func(ops badgerOps) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(txn *badger.Txn) error {
		return fn(badgerOps{store: s, txn: txn})
	})
}

func (s *BadgerStore) nextSeq(collection string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq, ok := s.sequences[collection]
	if !ok {
		var err error
		seq, err = s.db.GetSequence([]byte("seq:"+collection), sequenceBandwidth)
		if err != nil {
			return 0, err
		}
		s.sequences[collection] = seq
	}
	return seq.Next()
}

// badgerOps implements Operations on top of a single transaction.
type badgerOps struct {
	store *BadgerStore
	txn   *badger.Txn
}

func (o badgerOps) Insert(_ context.Context, collection string, fields Fields) (Document, error) {
	seq, err := o.store.nextSeq(collection)
	if err != nil {
		return Document{}, fmt.Errorf("sequence: %w", err)
	}
	doc := Document{ID: uuid.NewString(), Seq: seq, Fields: fields}
	for _, field := range o.uniqueFields(collection) {
		if err = o.claim(collection, field, fields.String(field), seq); err != nil {
			return Document{}, err
		}
	}
	if err = o.put(collection, doc); err != nil {
		return Document{}, err
	}
	if err = o.txn.Set(indexKey(collection, doc.ID), docKey(collection, seq)); err != nil {
		return Document{}, err
	}
	return doc, nil
}

func (o badgerOps) FindOne(ctx context.Context, collection string, filter Filter) (Document, error) {
	if id, ok := filter.idLookup(); ok {
		doc, err := o.get(collection, id)
		if err != nil {
			return Document{}, err
		}
		if !filter.Matches(doc) {
			return Document{}, ErrNoDocument
		}
		return doc, nil
	}
	docs, err := o.FindMany(ctx, collection, filter, FindOptions{Limit: 1})
	if err != nil {
		return Document{}, err
	}
	if len(docs) == 0 {
		return Document{}, ErrNoDocument
	}
	return docs[0], nil
}

// FindMany scans the collection prefix, forward or backward, and keeps matching documents.
func (o badgerOps) FindMany(ctx context.Context, collection string, filter Filter, opts FindOptions) ([]Document, error) {
	prefix := []byte(fmt.Sprintf("doc:%s:", collection))
	options := badger.DefaultIteratorOptions
	options.Prefix = prefix
	options.Reverse = opts.NewestFirst
	it := o.txn.NewIterator(options)
	defer it.Close()

	seekKey := prefix
	if opts.NewestFirst {
		seekKey = append(append([]byte{}, prefix...), newestSeqKey...)
	}

	var docs []Document
	for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		item := it.Item()
		doc, err := decodeItem(item, len(prefix))
		if err != nil {
			return nil, err
		}
		if !filter.Matches(doc) {
			continue
		}
		docs = append(docs, doc)
		if opts.Limit > 0 && len(docs) == opts.Limit {
			break
		}
	}
	return docs, nil
}

func (o badgerOps) UpdateOne(ctx context.Context, collection string, filter Filter, patch Fields) error {
	doc, err := o.FindOne(ctx, collection, filter)
	if err != nil {
		return err
	}
	merged := make(Fields, len(doc.Fields)+len(patch))
	for k, v := range doc.Fields {
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = v
	}
	for _, field := range o.uniqueFields(collection) {
		before, after := doc.Fields.String(field), merged.String(field)
		if before == after {
			continue
		}
		if err = o.claim(collection, field, after, doc.Seq); err != nil {
			return err
		}
		if err = o.txn.Delete(uniqueKey(collection, field, before)); err != nil {
			return err
		}
	}
	doc.Fields = merged
	return o.put(collection, doc)
}

func (o badgerOps) DeleteOne(ctx context.Context, collection string, filter Filter) error {
	doc, err := o.FindOne(ctx, collection, filter)
	if err != nil {
		return err
	}
	if err = o.txn.Delete(docKey(collection, doc.Seq)); err != nil {
		return err
	}
	for _, field := range o.uniqueFields(collection) {
		if err = o.txn.Delete(uniqueKey(collection, field, doc.Fields.String(field))); err != nil {
			return err
		}
	}
	return o.txn.Delete(indexKey(collection, doc.ID))
}

func (o badgerOps) uniqueFields(collection string) []string {
	return lo.FilterMap(o.store.uniques, func(u Unique, _ int) (string, bool) {
		return u.Field, u.Collection == collection
	})
}

// claim reserves value for the document at seq. The read registers the key in
// the transaction, so a racing claim fails at commit.
func (o badgerOps) claim(collection, field, value string, seq uint64) error {
	key := uniqueKey(collection, field, value)
	_, err := o.txn.Get(key)
	switch {
	case err == nil:
		return fmt.Errorf("%w: %s %s=%q", ErrDuplicate, collection, field, value)
	case !errors.Is(err, badger.ErrKeyNotFound):
		return err
	}
	return o.txn.Set(key, docKey(collection, seq))
}

func (o badgerOps) put(collection string, doc Document) error {
	data, err := encodeDocument(doc)
	if err != nil {
		return err
	}
	return o.txn.Set(docKey(collection, doc.Seq), data)
}

func (o badgerOps) get(collection, id string) (Document, error) {
	item, err := o.txn.Get(indexKey(collection, id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Document{}, ErrNoDocument
	}
	if err != nil {
		return Document{}, err
	}
	key, err := item.ValueCopy(nil)
	if err != nil {
		return Document{}, err
	}
	item, err = o.txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Document{}, ErrNoDocument
	}
	if err != nil {
		return Document{}, err
	}
	return decodeItem(item, len(key)-20)
}

func docKey(collection string, seq uint64) []byte {
	return []byte(fmt.Sprintf("doc:%s:%020d", collection, seq))
}

func indexKey(collection, id string) []byte {
	return []byte(fmt.Sprintf("idx:%s:%s", collection, id))
}

func uniqueKey(collection, field, value string) []byte {
	return []byte(fmt.Sprintf("uniq:%s:%s:%s", collection, field, value))
}

// decodeItem reads a doc entry; prefixLen is the length of the key before the sequence.
func decodeItem(item *badger.Item, prefixLen int) (Document, error) {
	var doc Document
	err := item.Value(func(val []byte) error {
		var err error
		doc, err = decodeDocument(val)
		return err
	})
	if err != nil {
		return Document{}, err
	}
	seq, err := strconv.ParseUint(string(item.Key()[prefixLen:]), 10, 64)
	if err != nil {
		return Document{}, fmt.Errorf("malformed key %q: %w", item.Key(), err)
	}
	doc.Seq = seq
	return doc, nil
}

func encodeDocument(doc Document) ([]byte, error) {
	values := make(map[string]any, len(doc.Fields)+1)
	for k, v := range doc.Fields {
		values[k] = v
	}
	values[idValueKey] = doc.ID
	s, err := structpb.NewStruct(values)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return proto.Marshal(s)
}

func decodeDocument(val []byte) (Document, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(val, &s); err != nil {
		return Document{}, fmt.Errorf("decode document: %w", err)
	}
	fields := s.AsMap()
	id, _ := fields[idValueKey].(string)
	delete(fields, idValueKey)
	return Document{ID: id, Fields: fields}, nil
}
