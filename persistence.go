package vectordb

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	idx "github.com/Kshitij-Bakliwal/vector-db-api/index"
	"github.com/Kshitij-Bakliwal/vector-db-api/model"
	"github.com/Kshitij-Bakliwal/vector-db-api/snapshot"
)

// Save writes every library, document, and chunk to the configured
// snapshot path (see WithSnapshotPath). Index internal state is never
// persisted.
func (db *DB) Save(ctx context.Context) error {
	if db.opts.snapshotPath == "" {
		return NewInternalError("no snapshot path configured")
	}
	libs := db.libs.List()
	if err := snapshot.SaveToFile(db.opts.snapshotPath, libs, db.allDocuments(libs), db.allChunks(libs)); err != nil {
		return NewInternalError(err.Error())
	}
	db.opts.logger.LogMutation(ctx, "save_snapshot", "database", db.opts.snapshotPath, nil)
	return nil
}

// Load adds every library, document, and chunk stored at the configured
// snapshot path to the database, overwriting entities with the same id
// (entities absent from the snapshot are not removed), then rebuilds every library's index from its
// chunks, one write-lock hold per library, so no concurrent search or
// mutation on an already-loaded library ever sees a half-rebuilt index.
// Intended to run once, before serving any traffic.
func (db *DB) Load(ctx context.Context) error {
	if db.opts.snapshotPath == "" {
		return NewInternalError("no snapshot path configured")
	}
	snap, err := snapshot.LoadFromFile(db.opts.snapshotPath)
	if err != nil {
		return NewInternalError(err.Error())
	}

	for _, l := range snap.Libraries {
		db.libs.Add(l)
	}
	for _, d := range snap.Documents {
		db.docs.Add(d)
	}
	for _, c := range snap.Chunks {
		db.chunks.Add(c)
	}

	// Each library's index is independent, so rebuilding them is embarrassingly
	// parallel; errgroup bounds it to the snapshot's libraries and surfaces the
	// first failure while letting the rest finish. Each rebuild still holds
	// its own library's write lock for its duration, so a concurrent caller
	// (Load is not required to run before traffic starts) never observes a
	// half-rebuilt index.
	g, gctx := errgroup.WithContext(ctx)
	for _, lib := range snap.Libraries {
		lib := lib
		g.Go(func() error {
			release, err := db.locks.WriteLock(gctx, lib.ID)
			if err != nil {
				return fmt.Errorf("acquiring write lock for library %s: %w", lib.ID, err)
			}
			defer release()

			chunks := db.chunks.ListByLibrary(lib.ID)
			items := make([]idx.Item, 0, len(chunks))
			for _, c := range chunks {
				if c.Embedding != nil {
					items = append(items, idx.Item{ChunkID: c.ID, Vector: c.Embedding})
				}
			}
			index, err := db.indexes.Ensure(lib.ID, lib.IndexConfig, lib.EmbeddingDim)
			if err != nil {
				return fmt.Errorf("rebuilding index for library %s: %w", lib.ID, err)
			}
			if err := index.Rebuild(items); err != nil {
				return fmt.Errorf("rebuilding index for library %s: %w", lib.ID, err)
			}
			db.opts.logger.LogRebuild(gctx, lib.ID.String(), len(items), nil)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return NewInternalError(err.Error())
	}

	db.opts.logger.LogMutation(ctx, "load_snapshot", "database", db.opts.snapshotPath, nil)
	return nil
}

func (db *DB) allDocuments(libs []*model.Library) []*model.Document {
	out := make([]*model.Document, 0)
	for _, l := range libs {
		out = append(out, db.docs.ListByLibrary(l.ID)...)
	}
	return out
}

func (db *DB) allChunks(libs []*model.Library) []*model.Chunk {
	out := make([]*model.Chunk, 0)
	for _, l := range libs {
		out = append(out, db.chunks.ListByLibrary(l.ID)...)
	}
	return out
}
