package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// testStoreContract exercises a Store backend. Both backends must pass it.
func testStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("Insert assigns id and increasing seq", func(t *testing.T) {
		req := require.New(t)
		ctx := context.Background()
		store := newStore(t)

		first, err := store.Insert(ctx, "messages", Fields{"from": "Ana", "text": "hi"})
		req.NoError(err)
		second, err := store.Insert(ctx, "messages", Fields{"from": "Bruno", "text": "hello"})
		req.NoError(err)

		req.NotEmpty(first.ID)
		req.NotEqual(first.ID, second.ID)
		req.Greater(second.Seq, first.Seq)
	})

	t.Run("FindOne by id and by field", func(t *testing.T) {
		req := require.New(t)
		ctx := context.Background()
		store := newStore(t)

		inserted, err := store.Insert(ctx, "participants", Fields{"name": "Ana", "lastStatus": int64(1700000000123)})
		req.NoError(err)

		byID, err := store.FindOne(ctx, "participants", ByID(inserted.ID))
		req.NoError(err)
		req.Equal("Ana", byID.Fields.String("name"))
		req.Equal(int64(1700000000123), byID.Fields.Int64("lastStatus"))
		req.Equal(inserted.Seq, byID.Seq)

		byName, err := store.FindOne(ctx, "participants", Where(Eq("name", "Ana")))
		req.NoError(err)
		req.Equal(inserted.ID, byName.ID)

		_, err = store.FindOne(ctx, "participants", Where(Eq("name", "Bruno")))
		req.ErrorIs(err, ErrNoDocument)

		_, err = store.FindOne(ctx, "participants", ByID("missing"))
		req.ErrorIs(err, ErrNoDocument)
	})

	t.Run("FindMany filters orders and limits", func(t *testing.T) {
		req := require.New(t)
		ctx := context.Background()
		store := newStore(t)

		for i := 0; i < 5; i++ {
			to := "Todos"
			if i%2 == 1 {
				to = "Carla"
			}
			_, err := store.Insert(ctx, "messages", Fields{"text": fmt.Sprintf("m%d", i), "to": to})
			req.NoError(err)
		}
		_, err := store.Insert(ctx, "other", Fields{"text": "elsewhere", "to": "Todos"})
		req.NoError(err)

		all, err := store.FindMany(ctx, "messages", Filter{}, FindOptions{})
		req.NoError(err)
		req.Equal([]string{"m0", "m1", "m2", "m3", "m4"}, texts(all))

		newest, err := store.FindMany(ctx, "messages", Filter{}, FindOptions{NewestFirst: true, Limit: 2})
		req.NoError(err)
		req.Equal([]string{"m4", "m3"}, texts(newest))

		toCarla, err := store.FindMany(ctx, "messages", Where(Eq("to", "Carla")), FindOptions{NewestFirst: true})
		req.NoError(err)
		req.Equal([]string{"m3", "m1"}, texts(toCarla))

		either, err := store.FindMany(ctx, "messages", AnyOf(Eq("text", "m0"), Eq("text", "m4")), FindOptions{})
		req.NoError(err)
		req.Equal([]string{"m0", "m4"}, texts(either))

		both, err := store.FindMany(ctx, "messages",
			Filter{All: []Match{Eq("to", "Todos")}, Any: []Match{Eq("text", "m1"), Eq("text", "m2")}},
			FindOptions{})
		req.NoError(err)
		req.Equal([]string{"m2"}, texts(both))
	})

	t.Run("UpdateOne merges the patch and keeps identity", func(t *testing.T) {
		req := require.New(t)
		ctx := context.Background()
		store := newStore(t)

		inserted, err := store.Insert(ctx, "messages", Fields{"from": "Ana", "text": "hi", "type": "message"})
		req.NoError(err)

		err = store.UpdateOne(ctx, "messages", ByID(inserted.ID), Fields{"text": "hello", "type": "private_message"})
		req.NoError(err)

		updated, err := store.FindOne(ctx, "messages", ByID(inserted.ID))
		req.NoError(err)
		req.Equal(inserted.Seq, updated.Seq)
		req.Equal("Ana", updated.Fields.String("from"))
		req.Equal("hello", updated.Fields.String("text"))
		req.Equal("private_message", updated.Fields.String("type"))

		err = store.UpdateOne(ctx, "messages", ByID("missing"), Fields{"text": "x"})
		req.ErrorIs(err, ErrNoDocument)
	})

	t.Run("DeleteOne removes a single document", func(t *testing.T) {
		req := require.New(t)
		ctx := context.Background()
		store := newStore(t)

		ana, err := store.Insert(ctx, "participants", Fields{"name": "Ana"})
		req.NoError(err)
		_, err = store.Insert(ctx, "participants", Fields{"name": "Bruno"})
		req.NoError(err)

		req.NoError(store.DeleteOne(ctx, "participants", Where(Eq("name", "Ana"))))

		_, err = store.FindOne(ctx, "participants", ByID(ana.ID))
		req.ErrorIs(err, ErrNoDocument)
		left, err := store.FindMany(ctx, "participants", Filter{}, FindOptions{})
		req.NoError(err)
		req.Len(left, 1)

		req.ErrorIs(store.DeleteOne(ctx, "participants", Where(Eq("name", "Ana"))), ErrNoDocument)
	})

	t.Run("Transact rolls back every write on error", func(t *testing.T) {
		req := require.New(t)
		ctx := context.Background()
		store := newStore(t)
		boom := fmt.Errorf("boom")

		err := store.Transact(ctx, func(ops Operations) error {
			if _, err := ops.Insert(ctx, "messages", Fields{"text": "entered"}); err != nil {
				return err
			}
			if _, err := ops.Insert(ctx, "participants", Fields{"name": "Ana"}); err != nil {
				return err
			}
			return boom
		})
		req.ErrorIs(err, boom)

		messages, err := store.FindMany(ctx, "messages", Filter{}, FindOptions{})
		req.NoError(err)
		req.Empty(messages)
		participants, err := store.FindMany(ctx, "participants", Filter{}, FindOptions{})
		req.NoError(err)
		req.Empty(participants)
	})

	t.Run("Transact sees its own writes and commits", func(t *testing.T) {
		req := require.New(t)
		ctx := context.Background()
		store := newStore(t)

		err := store.Transact(ctx, func(ops Operations) error {
			if _, err := ops.Insert(ctx, "participants", Fields{"name": "Ana"}); err != nil {
				return err
			}
			_, err := ops.FindOne(ctx, "participants", Where(Eq("name", "Ana")))
			return err
		})
		req.NoError(err)

		_, err = store.FindOne(ctx, "participants", Where(Eq("name", "Ana")))
		req.NoError(err)
	})
}

func texts(docs []Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Fields.String("text"))
	}
	return out
}
