package rabbitmq

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// SkipRabbitMQTestsEnv значение SKIP_RABBITMQ_TESTS, отключающее тесты с брокером.
const SkipRabbitMQTestsEnv = "true"

const amqpPort = nat.Port("5672/tcp")

func setupRabbitMQContainer(ctx context.Context, t *testing.T) (testcontainers.Container, func()) {
	req := testcontainers.ContainerRequest{
		Image:        "rabbitmq:3-management",
		ExposedPorts: []string{string(amqpPort)},
		Env: map[string]string{
			"RABBITMQ_DEFAULT_USER":  "guest",
			"RABBITMQ_DEFAULT_PASS":  "guest",
			"RABBITMQ_DEFAULT_VHOST": "/",
		},
		WaitingFor: wait.ForListeningPort(amqpPort).
			WithStartupTimeout(2 * time.Minute),
	}

	rmqContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	cleanup := func() {
		if err := rmqContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate rabbitmq container: %v", err)
		}
	}
	return rmqContainer, cleanup
}

func getAmqpURI(ctx context.Context, container testcontainers.Container) (string, error) {
	host, err := container.Host(ctx)
	if err != nil {
		return "", err
	}
	port, err := container.MappedPort(ctx, amqpPort)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("amqp://guest:guest@%s:%s/", host, port.Port()), nil
}

// rabbitURL возвращает адрес брокера: внешний из TEST_RABBITMQ_URL либо контейнер.
func rabbitURL(ctx context.Context, t *testing.T) string {
	t.Helper()
	if os.Getenv("SKIP_RABBITMQ_TESTS") == SkipRabbitMQTestsEnv || testing.Short() {
		t.Skip("skipping RabbitMQ tests")
	}
	if url := os.Getenv("TEST_RABBITMQ_URL"); url != "" {
		return url
	}

	container, cleanup := setupRabbitMQContainer(ctx, t)
	t.Cleanup(cleanup)

	uri, err := getAmqpURI(ctx, container)
	require.NoError(t, err)
	return uri
}
