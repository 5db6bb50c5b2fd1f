package services

import (
	"context"

	"plastikhb/pkg/metrics"
	"plastikhb/pkg/storage"

	"gorm.io/gorm"
)

// FileRemover deletes stored upload files. Implementations never fail loudly.
type FileRemover interface {
	Remove(reason string, names ...string)
}

// TxFunc performs the database work of one write and returns the stored file names it made
// obsolete. Those files are removed only after the transaction commits.
type TxFunc func(tx *gorm.DB) (superseded []string, err error)

// TxRunner runs catalog writes in a single transaction and keeps the upload directory
// consistent with the outcome.
type TxRunner struct {
	db    *gorm.DB
	files FileRemover
}

// NewTxRunner creates a TxRunner.
func NewTxRunner(db *gorm.DB, files FileRemover) *TxRunner {
	return &TxRunner{db: db, files: files}
}

// Run executes fn in a transaction. When fn fails the transaction is rolled back, the files
// uploaded for this request are removed and fn's error is returned as is. When it succeeds
// the transaction is committed and the superseded files are removed.
func (r *TxRunner) Run(ctx context.Context, operation string, uploaded []string, fn TxFunc) (err error) {
	var superseded []string

	defer func() {
		if p := recover(); p != nil {
			metrics.CatalogWrites.WithLabelValues(operation, "rolled_back").Inc()
			r.files.Remove(storage.ReasonRollback, uploaded...)
			panic(p)
		}
	}()

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		files, txErr := fn(tx)
		if txErr != nil {
			return txErr
		}
		superseded = files
		return nil
	})
	if err != nil {
		metrics.CatalogWrites.WithLabelValues(operation, "rolled_back").Inc()
		r.files.Remove(storage.ReasonRollback, uploaded...)
		return err
	}

	metrics.CatalogWrites.WithLabelValues(operation, "committed").Inc()
	r.files.Remove(storage.ReasonSuperseded, superseded...)
	return nil
}
