//go:build integration

package postgres

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"
)

var testPool *pgxpool.Pool

// TestMain connects to TEST_DATABASE_URL when set; otherwise it starts a
// throwaway postgres:14 container on a free host port.
func TestMain(m *testing.M) {
	ctx := context.Background()

	dsn := os.Getenv("TEST_DATABASE_URL")
	stop := func() {}
	if dsn == "" {
		var err error
		dsn, stop, err = startPostgres()
		if err != nil {
			log.Fatalf("postgres container: %v (is docker running?)", err)
		}
	}

	pool, err := waitForPool(ctx, dsn, 30*time.Second)
	if err != nil {
		stop()
		log.Fatalf("connect %s: %v", dsn, err)
	}
	nop := zerolog.Nop()
	if err := Migrate(ctx, pool, &nop); err != nil {
		pool.Close()
		stop()
		log.Fatalf("migrate: %v", err)
	}
	testPool = pool

	code := m.Run()

	testPool.Close()
	stop()
	os.Exit(code)
}

func startPostgres() (dsn string, stop func(), err error) {
	out, err := exec.Command("docker", "run", "-d", "--rm",
		"-p", "127.0.0.1::5432",
		"-e", "POSTGRES_DB=interview_test",
		"-e", "POSTGRES_USER=coach",
		"-e", "POSTGRES_PASSWORD=coach",
		"postgres:14",
	).Output()
	if err != nil {
		return "", nil, err
	}
	id := strings.TrimSpace(string(out))
	stop = func() { _ = exec.Command("docker", "stop", id).Run() }

	// "127.0.0.1:49153"
	port, err := exec.Command("docker", "port", id, "5432/tcp").Output()
	if err != nil {
		stop()
		return "", nil, fmt.Errorf("docker port: %w", err)
	}
	addr := strings.TrimSpace(strings.SplitN(string(port), "\n", 2)[0])
	return fmt.Sprintf("postgres://coach:coach@%s/interview_test?sslmode=disable", addr), stop, nil
}

func waitForPool(ctx context.Context, dsn string, budget time.Duration) (*pgxpool.Pool, error) {
	deadline := time.Now().Add(budget)
	for {
		pool, err := NewPgxPool(ctx, dsn, 5)
		if err == nil {
			return pool, nil
		}
		if time.Now().After(deadline) {
			return nil, err
		}
		time.Sleep(time.Second)
	}
}

func cleanup(t *testing.T) {
	t.Helper()
	if _, err := testPool.Exec(context.Background(),
		`TRUNCATE interview_sessions, interview_messages RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
}
