/*
Package bolt implements the record store on a bbolt file. Every record type
gets its own bucket which keeps Search scans short. The file can be backed up
while serving with Backup.
*/
package bolt

import (
	"os"

	"github.com/catalyst-network/catalyst-agent/agent/storage/api"
	"github.com/findy-network/findy-common-go/dto"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	bolt "go.etcd.io/bbolt"
)

type store struct {
	db       *bolt.DB
	filename string
}

// New opens the record store file and returns it. The file is created when it
// doesn't exist.
func New(filename string) (s api.Storage, err error) {
	defer err2.Handle(&err, "bolt storage open")

	glog.V(1).Infoln("opening record storage:", filename)
	db := try.To1(bolt.Open(filename, 0600, nil))
	return &store{db: db, filename: filename}, nil
}

func (s *store) Close() (err error) {
	return s.db.Close()
}

func (s *store) Add(r api.Record) (err error) {
	defer err2.Handle(&err, "bolt storage add")

	return s.db.Update(func(tx *bolt.Tx) (err error) {
		defer err2.Handle(&err, "tx")

		b := try.To1(tx.CreateBucketIfNotExists([]byte(r.Type)))
		try.To(b.Put([]byte(r.ID), dto.ToJSONBytes(&r)))
		return nil
	})
}

func (s *store) Get(typ, id string) (r *api.Record, err error) {
	defer err2.Handle(&err, "bolt storage get")

	err = s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(typ))
		if b == nil {
			return api.ErrNotFound
		}
		d := b.Get([]byte(id))
		if d == nil {
			return api.ErrNotFound
		}
		r = &api.Record{}
		dto.FromJSON(d, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *store) Update(r api.Record) (err error) {
	defer err2.Handle(&err, "bolt storage update")

	return s.db.Update(func(tx *bolt.Tx) (err error) {
		defer err2.Handle(&err, "tx")

		b := tx.Bucket([]byte(r.Type))
		if b == nil || b.Get([]byte(r.ID)) == nil {
			return api.ErrNotFound
		}
		try.To(b.Put([]byte(r.ID), dto.ToJSONBytes(&r)))
		return nil
	})
}

func (s *store) Delete(typ, id string) (err error) {
	defer err2.Handle(&err, "bolt storage delete")

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(typ))
		if b == nil || b.Get([]byte(id)) == nil {
			return api.ErrNotFound
		}
		return b.Delete([]byte(id))
	})
}

func (s *store) Search(typ string, tags map[string]string) (rs []api.Record, err error) {
	defer err2.Handle(&err, "bolt storage search")

	rs = make([]api.Record, 0)
	err = s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(typ))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var r api.Record
			dto.FromJSON(v, &r)
			if api.TagsMatch(r.Tags, tags) {
				rs = append(rs, r)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return rs, nil
}

// Backup writes a hot copy of the storage file. It is scheduled from the
// service startup and can be called while serving.
func (s *store) Backup(name string) (err error) {
	defer err2.Handle(&err, "bolt storage backup")

	glog.V(1).Infoln("backing up record storage to:", name)
	return s.db.View(func(tx *bolt.Tx) (err error) {
		defer err2.Handle(&err, "tx")

		f := try.To1(os.Create(name))
		defer func() {
			if closeErr := f.Close(); closeErr != nil {
				glog.Warningln("backup file close:", closeErr)
			}
		}()
		try.To1(tx.WriteTo(f))
		return nil
	})
}

// Backupper is implemented by storages which support hot backups.
type Backupper interface {
	Backup(name string) error
}
