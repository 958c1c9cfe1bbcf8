//go:build integration

package testutils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/klausondrag/meteosat-background-image-linux/pkg/meteosat"
)

// ArchiveEnv is a containerized static file server presenting a real HTTP
// archive for integration tests.
type ArchiveEnv struct {
	Container testcontainers.Container
	BaseURL   string
}

// Close terminates the container.
func (e *ArchiveEnv) Close(ctx context.Context) error {
	if e.Container != nil {
		return e.Container.Terminate(ctx)
	}
	return nil
}

// StartArchiveContainer builds an archive tree on the host from the given
// published slots and serves it from an nginx container.
func StartArchiveContainer(t *testing.T, ctx context.Context, published map[meteosat.Timestamp]meteosat.Variant) *ArchiveEnv {
	t.Helper()

	root := t.TempDir()
	for ts, v := range published {
		dayIndexPath, hourSegment, fileName := meteosat.RemoteLocation(ts, v)
		dir := filepath.Join(root, "MSG", filepath.FromSlash(dayIndexPath), hourSegment)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("create archive tree: %v", err)
		}
		if err := os.WriteFile(filepath.Join(dir, fileName), SampleJPEG(t, 64, 64, uint8(ts.Hour*10)), 0o644); err != nil {
			t.Fatalf("write archive image: %v", err)
		}
	}

	req := testcontainers.ContainerRequest{
		Image:        "nginx:alpine",
		ExposedPorts: []string{"80/tcp"},
		WaitingFor:   wait.ForListeningPort("80/tcp"),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start nginx container: %v", err)
	}

	if err := container.CopyDirToContainer(ctx, filepath.Join(root, "MSG"), "/usr/share/nginx/html", 0o755); err != nil {
		container.Terminate(ctx)
		t.Fatalf("copy archive tree: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "80")
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("get container port: %v", err)
	}

	return &ArchiveEnv{
		Container: container,
		BaseURL:   fmt.Sprintf("http://%s:%s/MSG", host, port.Port()),
	}
}
