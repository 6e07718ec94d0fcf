package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	"github.com/Arjun9756/Mini-S3-Bucket/internal/ports"
)

func TestRelayRoutesEventsByName(t *testing.T) {
	t.Parallel()

	queue := newMemQueue()
	relay := NewRelay(discardLogger(), nil, queue, 4)
	ctx := context.Background()

	scanPayload, _ := json.Marshal(ports.ScanRequested{
		Name:        ports.EventVirusScan,
		FileID:      uuid.New(),
		StoragePath: "uploads/x/report.pdf",
	})
	mailPayload, _ := json.Marshal(ports.MailRequested{
		Name:         ports.EventMailSend,
		Operation:    ports.MailShared,
		GranteeEmail: "friend@example.com",
	})

	relay.handle(ctx, scanPayload)
	relay.handle(ctx, mailPayload)

	jobs := queue.snapshot()
	if len(jobs) != 2 {
		t.Fatalf("enqueued %d jobs, want 2", len(jobs))
	}
	kinds := map[ports.JobKind]int{}
	for _, job := range jobs {
		kinds[job.Kind]++
		if job.MaxAttempts != 4 {
			t.Fatalf("job max attempts = %d, want 4", job.MaxAttempts)
		}
	}
	if kinds[ports.JobKindScan] != 1 || kinds[ports.JobKindMail] != 1 {
		t.Fatalf("job kinds = %v", kinds)
	}
}

func TestRelayDropsUnroutableMessages(t *testing.T) {
	t.Parallel()

	queue := newMemQueue()
	relay := NewRelay(discardLogger(), nil, queue, 4)
	ctx := context.Background()

	relay.handle(ctx, []byte("not json"))
	relay.handle(ctx, []byte(`{"name":"somethingElse"}`))
	relay.handle(ctx, []byte(`{}`))

	if jobs := queue.snapshot(); len(jobs) != 0 {
		t.Fatalf("enqueued %d jobs from unroutable messages", len(jobs))
	}
}

func TestRelayPreservesRawPayload(t *testing.T) {
	t.Parallel()

	queue := newMemQueue()
	relay := NewRelay(discardLogger(), nil, queue, 4)
	ctx := context.Background()

	raw := []byte(`{"name":"virusScan","file_id":"` + uuid.NewString() + `","storage_path":"uploads/a/b.txt","extra":"kept"}`)
	relay.handle(ctx, raw)

	jobs := queue.snapshot()
	if len(jobs) != 1 {
		t.Fatalf("enqueued %d jobs, want 1", len(jobs))
	}
	if string(jobs[0].Payload) != string(raw) {
		t.Fatal("payload was rewritten on the way to the queue")
	}
}
