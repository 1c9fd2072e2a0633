package sonarqube

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunScan_RequiresServerMode(t *testing.T) {
	client, err := NewClient("http://localhost:9000")
	require.NoError(t, err)

	result := client.RunScan(context.Background(), ScanRunnerFunc(func(context.Context) (ScanTask, error) {
		t.Fatal("runner must not be invoked while disabled")
		return ScanTask{}, nil
	}))

	assert.False(t, result.Success)
	assert.Contains(t, result.Err, "not available")
}

func TestRunScan_WrapsTaskHandle(t *testing.T) {
	client, _ := newTestClient(t, statusHandler("UP", "10.0"))
	require.True(t, client.Probe(context.Background()).Success)

	result := client.RunScan(context.Background(), ScanRunnerFunc(func(context.Context) (ScanTask, error) {
		return ScanTask{TaskID: "AYx42", DashboardURL: "http://sq/dashboard?id=p"}, nil
	}))

	assert.True(t, result.Success)
	assert.Equal(t, "AYx42", result.TaskID)
	assert.Equal(t, "http://sq/dashboard?id=p", result.DashboardURL)
	assert.Empty(t, result.Err)
	assert.GreaterOrEqual(t, result.ExecutionTime, time.Duration(0))
}

func TestRunScan_WrapsScannerError(t *testing.T) {
	client, _ := newTestClient(t, statusHandler("UP", "10.0"))
	require.True(t, client.Probe(context.Background()).Success)

	result := client.RunScan(context.Background(), ScanRunnerFunc(func(context.Context) (ScanTask, error) {
		return ScanTask{}, errors.New("sonar-scanner exited with code 2")
	}))

	assert.False(t, result.Success)
	assert.Contains(t, result.Err, "exited with code 2")
	assert.Empty(t, result.TaskID)
}
