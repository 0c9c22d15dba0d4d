package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// setupTestRedis creates a miniredis instance for testing Lua scripts
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return client, mr
}

func TestPutRecordsScript(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer client.Close()
	defer mr.Close()

	ctx := context.Background()
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tests := []struct {
		name         string
		keys         []string
		values       []interface{}
		wantRevision int64
	}{
		{
			name:         "write all records",
			keys:         []string{"hl:meta", "hl:record:habitTitle", "hl:record:sessionData", "hl:record:trackerState"},
			values:       []interface{}{now, "Title", "{}", `{"dailyGoal":4}`},
			wantRevision: 1,
		},
		{
			name:         "write single record",
			keys:         []string{"hl:meta", "hl:record:habitTitle"},
			values:       []interface{}{now, "Other"},
			wantRevision: 2,
		},
		{
			name:         "meta only",
			keys:         []string{"hl:meta"},
			values:       []interface{}{now},
			wantRevision: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			revision, err := client.Eval(ctx, putRecordsScript, tt.keys, tt.values...).Int64()
			if err != nil {
				t.Fatalf("Script execution failed: %v", err)
			}
			if revision != tt.wantRevision {
				t.Errorf("Expected revision %d, got %d", tt.wantRevision, revision)
			}

			for i := 1; i < len(tt.keys); i++ {
				got, err := mr.Get(tt.keys[i])
				if err != nil {
					t.Fatalf("Key %s not set: %v", tt.keys[i], err)
				}
				if got != tt.values[i] {
					t.Errorf("Key %s = %q, want %q", tt.keys[i], got, tt.values[i])
				}
			}

			if mr.HGet("hl:meta", "updated_at") != now {
				t.Errorf("updated_at not written")
			}
		})
	}
}

func TestDeleteRecordScript(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer client.Close()
	defer mr.Close()

	ctx := context.Background()
	now := time.Now().UTC().Format(time.RFC3339Nano)

	if err := mr.Set("hl:record:sessionData", "{}"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	removed, err := client.Eval(ctx, deleteRecordScript, []string{"hl:record:sessionData", "hl:meta"}, now).Int64()
	if err != nil {
		t.Fatalf("Script execution failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 removed, got %d", removed)
	}
	if mr.HGet("hl:meta", "revision") != "1" {
		t.Errorf("Expected revision 1, got %q", mr.HGet("hl:meta", "revision"))
	}

	removed, err = client.Eval(ctx, deleteRecordScript, []string{"hl:record:sessionData", "hl:meta"}, now).Int64()
	if err != nil {
		t.Fatalf("Second execution failed: %v", err)
	}
	if removed != 0 {
		t.Errorf("Expected 0 removed, got %d", removed)
	}
	if mr.HGet("hl:meta", "revision") != "1" {
		t.Error("Revision must not change when nothing was deleted")
	}
}
