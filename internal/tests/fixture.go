// Package tests provides a shared postgres fixture for the integration tests of the repository
// packages.
//
// The database is taken from TEST_DB_DSN when set, otherwise a disposable postgres container is
// started on first use. Tests are skipped when neither is available.
package tests

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/adagearchive/moderation/internal/database"
	"github.com/adagearchive/moderation/pkg/log"
	"github.com/docker/docker/api/types/container"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	testInfo = "moderation-test"
	image    = "postgres:17-alpine"
)

var ErrContainer = errors.New("failed to bring up test container")

type Fixture struct {
	Database  database.Database
	DSN       string
	container testcontainers.Container
}

//nolint:gochecknoglobals
var (
	shared     *Fixture
	sharedErr  error
	sharedOnce sync.Once
)

// Shared returns the package wide fixture, creating it on first use. Each test package must call
// Close from its TestMain.
func Shared(t *testing.T) *Fixture {
	t.Helper()

	if os.Getenv("TEST_DB_DSN") == "" {
		testcontainers.SkipIfProviderIsNotHealthy(t)
	}

	sharedOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute*2)
		defer cancel()

		shared, sharedErr = newFixture(ctx)
	})

	if sharedErr != nil {
		t.Fatalf("failed to create test fixture: %v", sharedErr)
	}

	return shared
}

// Close tears down the shared fixture if one was created.
func Close() {
	if shared == nil {
		return
	}

	log.Closer(shared.Database)

	if shared.container == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	if errTerm := shared.container.Terminate(ctx); errTerm != nil {
		slog.Error("Failed to terminate test container", log.ErrAttr(errTerm))
	}
}

func newFixture(ctx context.Context) (*Fixture, error) {
	fixture := &Fixture{DSN: os.Getenv("TEST_DB_DSN")}

	if fixture.DSN == "" {
		cont, dsn, errContainer := newContainer(ctx)
		if errContainer != nil {
			return nil, errContainer
		}

		fixture.container = cont
		fixture.DSN = dsn
	}

	fixture.Database = database.New(fixture.DSN, true, false)
	if errConnect := fixture.Database.Connect(ctx); errConnect != nil {
		return nil, errConnect
	}

	return fixture, nil
}

func newContainer(ctx context.Context) (testcontainers.Container, string, error) {
	cont, errContainer := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{"5432/tcp"},
			HostConfigModifier: func(config *container.HostConfig) {
				config.AutoRemove = false
			},
			Env: map[string]string{
				"POSTGRES_DB":       testInfo,
				"POSTGRES_USER":     testInfo,
				"POSTGRES_PASSWORD": testInfo,
			},
			WaitingFor: wait.
				ForLog("database system is ready to accept connections").
				WithOccurrence(2),
		},
		Started: true,
	})
	if errContainer != nil {
		return nil, "", errors.Join(errContainer, ErrContainer)
	}

	host, errHost := cont.Host(ctx)
	if errHost != nil {
		return nil, "", errors.Join(errHost, ErrContainer)
	}

	port, errPort := cont.MappedPort(ctx, "5432")
	if errPort != nil {
		return nil, "", errors.Join(errPort, ErrContainer)
	}

	return cont, fmt.Sprintf("postgresql://%s:%s@%s:%s/%s", testInfo, testInfo, host, port.Port(), testInfo), nil
}
