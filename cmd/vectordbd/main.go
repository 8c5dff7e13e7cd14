// Command vectordbd is a small demonstration of the vectordb package:
// it creates a library, adds a document with a few chunks, and runs a
// search against them.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	vectordb "github.com/Kshitij-Bakliwal/vector-db-api"
	"github.com/Kshitij-Bakliwal/vector-db-api/model"
)

func main() {
	logger := vectordb.NewTextLogger(0)
	db := vectordb.New(
		vectordb.WithLogger(logger),
		vectordb.WithDefaultIndexConfig(model.FlatIndexConfig()),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	lib, err := db.CreateLibrary(ctx, "demo", 4, nil, model.Metadata{"owner": "demo"})
	if err != nil {
		log.Fatalf("create library: %v", err)
	}
	fmt.Printf("created library %s\n", lib.ID)

	doc, chunks, err := db.CreateDocumentWithChunks(ctx, lib.ID, model.Metadata{"source": "readme"}, []vectordb.ChunkInput{
		{Text: "a red apple", Embedding: []float32{1, 0, 0, 0}},
		{Text: "a yellow banana", Embedding: []float32{0, 1, 0, 0}},
		{Text: "a green pear", Embedding: []float32{0, 0, 1, 0}},
	})
	if err != nil {
		log.Fatalf("create document: %v", err)
	}
	fmt.Printf("created document %s with %d chunks\n", doc.ID, len(chunks))

	results, err := db.Search(ctx, lib.ID, []float32{0.9, 0.1, 0, 0}, 2, vectordb.SearchOptions{})
	if err != nil {
		log.Fatalf("search: %v", err)
	}
	for i, r := range results {
		fmt.Printf("%d. %q (score %.4f)\n", i+1, r.Chunk.Text, r.Score)
	}
}
