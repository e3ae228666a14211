package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	mysqlrepo "dealer_reviews/internal/storage/mysql"
)

func TestOpenDB_UnreachableDatabaseOnlyWarns(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	db, err := openDB("u:p@tcp(127.0.0.1:1)/inventory?timeout=200ms")
	if err != nil {
		t.Fatalf("unreachable database must not be fatal: %v", err)
	}
	defer db.Close()
	if !strings.Contains(buf.String(), `"level":"warn"`) {
		t.Fatalf("expected a warning, got %s", buf.String())
	}
	if _, err := mysqlrepo.New(db).ListCarModels(context.Background()); err == nil {
		t.Fatalf("expected inventory query to fail")
	}

	if _, err := openDB("not a dsn"); err == nil {
		t.Fatalf("malformed DSN must fail")
	}
}
