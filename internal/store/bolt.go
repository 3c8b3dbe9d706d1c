package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	v1alpha1 "github.com/klubi/reagent/pkg/apis/v1alpha1"
	bolt "go.etcd.io/bbolt"
)

var bucketName = []byte("journal")

// ErrLocked is returned when another process holds the journal open.
var ErrLocked = fmt.Errorf("journal is locked by another reagent process")

// lockTimeout bounds how long Open waits for the file lock.
const lockTimeout = time.Second

// BoltStore persists journal tasks to a BoltDB file on disk.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) a BoltDB database at path.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: lockTimeout})
	if err != nil {
		if errors.Is(err, bolt.ErrTimeout) {
			return nil, fmt.Errorf("%w: %s", ErrLocked, path)
		}
		return nil, err
	}

	// Ensure the bucket exists.
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (b *BoltStore) Create(task *v1alpha1.Task) error {
	raw, err := json.Marshal(task)
	if err != nil {
		return err
	}

	key := []byte(TaskKey(task.Metadata.Name))
	return b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(bucketName)
		if bkt.Get(key) != nil {
			return ErrAlreadyExists
		}
		return bkt.Put(key, raw)
	})
}

func (b *BoltStore) Get(name string) (*v1alpha1.Task, error) {
	var task *v1alpha1.Task
	err := b.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketName).Get([]byte(TaskKey(name)))
		if raw == nil {
			return ErrNotFound
		}
		var err error
		task, err = decodeTask(raw)
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (b *BoltStore) Update(task *v1alpha1.Task) error {
	raw, err := json.Marshal(task)
	if err != nil {
		return err
	}

	key := []byte(TaskKey(task.Metadata.Name))
	return b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(bucketName)
		if bkt.Get(key) == nil {
			return ErrNotFound
		}
		return bkt.Put(key, raw)
	})
}

func (b *BoltStore) Delete(name string) error {
	key := []byte(TaskKey(name))
	return b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(bucketName)
		if bkt.Get(key) == nil {
			return ErrNotFound
		}
		return bkt.Delete(key)
	})
}

// List walks the bucket with a cursor; keys are already chronological.
func (b *BoltStore) List(session string) ([]*v1alpha1.Task, error) {
	var results []*v1alpha1.Task
	prefix := TaskKey("")

	err := b.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketName).Cursor()

		for k, v := c.Seek([]byte(prefix)); k != nil && strings.HasPrefix(string(k), prefix); k, v = c.Next() {
			task, err := decodeTask(v)
			if err != nil {
				return fmt.Errorf("decoding %s: %w", k, err)
			}
			if inSession(task, session) {
				results = append(results, task)
			}
		}
		return nil
	})
	return results, err
}

func (b *BoltStore) Close() error {
	return b.db.Close()
}
