//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/go-cmp/cmp"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"dealer_reviews/internal/domain"
	mysqlrepo "dealer_reviews/internal/storage/mysql"
)

func migrationsDir(t *testing.T) string {
	t.Helper()
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return v
	}
	// default to the repo's own migrations when run from this package
	return filepath.Join("..", "..", "..", "migrations")
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := migrationsDir(t)

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir %s: %v", dir, err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func TestRepo_MySQL_ListCarModels(t *testing.T) {
	// Start isolated MySQL; let Docker pick a free host port.
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("dockertest unavailable: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker not reachable: %v", err)
	}

	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=dealership",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "dealership")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)

	repo := mysqlrepo.New(db)
	ctx := context.Background()

	empty, err := repo.ListCarModels(ctx)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v, %v", empty, err)
	}

	// Arrange
	if _, err := db.ExecContext(ctx, `INSERT INTO car_makes (id, name, description) VALUES (1,'NISSAN','Great cars'),(2,'Audi','German')`); err != nil {
		t.Fatalf("seed makes: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO car_models (car_make_id, name, type, year) VALUES
		(1,'Pathfinder','SUV',2023),(1,'Qashqai','SUV',2023),(2,'A6','SEDAN',2023)`); err != nil {
		t.Fatalf("seed models: %v", err)
	}

	// Assert
	got, err := repo.ListCarModels(ctx)
	if err != nil {
		t.Fatalf("ListCarModels: %v", err)
	}
	want := []domain.CarModelView{
		{CarModel: "A6", CarMake: "Audi", Type: "SEDAN", Year: 2023},
		{CarModel: "Pathfinder", CarMake: "NISSAN", Type: "SUV", Year: 2023},
		{CarModel: "Qashqai", CarMake: "NISSAN", Type: "SUV", Year: 2023},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("cars (-want +got):\n%s", diff)
	}
}
