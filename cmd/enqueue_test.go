package cmd

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	failOn string
	keys   []string
}

func (p *recordingPublisher) PublishBatch(_ context.Context, key string) error {
	if key == p.failOn {
		return errors.New("nats: timeout")
	}
	p.keys = append(p.keys, key)
	return nil
}

func TestEnqueueBatches(t *testing.T) {
	publisher := &recordingPublisher{}
	n, err := enqueueBatches(context.Background(), publisher, []string{"a.jsonl", "b/c.jsonl"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"a.jsonl", "b/c.jsonl"}, publisher.keys)

	publisher = &recordingPublisher{failOn: "b"}
	n, err = enqueueBatches(context.Background(), publisher, []string{"a", "b", "c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enqueue b")
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"a"}, publisher.keys, "stops at the first failure")
}

func TestEnqueueCommand_RequiresKeys(t *testing.T) {
	cmd := newEnqueueCmd()
	cmd.SetArgs([]string{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())
}

type fakePurger struct {
	deleted int64
	err     error
}

func (p fakePurger) Purge(context.Context) (int64, error) { return p.deleted, p.err }

func TestRunPurge(t *testing.T) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	require.NoError(t, runPurge(context.Background(), cmd, fakePurger{deleted: 42}, "documents"))
	assert.Equal(t, "deleted 42 documents from documents\n", out.String())

	err := runPurge(context.Background(), cmd, fakePurger{err: errors.New("relation does not exist")}, "documents")
	assert.ErrorContains(t, err, "purge documents")
}

func TestPurgeCommand_RequiresForce(t *testing.T) {
	cmd := newPurgeCmd()
	cmd.SetArgs([]string{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")
}
