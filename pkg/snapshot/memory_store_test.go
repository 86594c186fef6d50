package snapshot_test

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-flagstate/pkg/snapshot"
	"github.com/google/uuid"
)

func TestRefIdentifier(t *testing.T) {
	cases := []struct {
		name    string
		ref     snapshot.Ref
		want    string
		wantErr bool
	}{
		{"valid", snapshot.Ref{Project: "web", Environment: "prod"}, "web/prod", false},
		{"trims", snapshot.Ref{Project: " web ", Environment: " prod"}, "web/prod", false},
		{"missing project", snapshot.Ref{Environment: "prod"}, "", true},
		{"missing environment", snapshot.Ref{Project: "web"}, "", true},
		{"separator", snapshot.Ref{Project: "a/b", Environment: "prod"}, "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.ref.Identifier()
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil || got != tc.want {
				t.Fatalf("want %q got %q (%v)", tc.want, got, err)
			}
		})
	}
}

func TestMemoryStoreSaveAssignsMeta(t *testing.T) {
	store := snapshot.NewMemoryStore()
	ref := snapshot.Ref{Project: "web", Environment: "dev"}

	meta, err := store.Save(context.Background(), ref, devEnvironment(), snapshot.Meta{Extra: map[string]string{"source": "test"}})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := uuid.Parse(meta.SnapshotID); err != nil {
		t.Fatalf("expected uuid snapshot id, got %q", meta.SnapshotID)
	}
	if meta.ETag == "" || meta.UpdatedAt.IsZero() || meta.Extra["source"] != "test" {
		t.Fatalf("unexpected meta %+v", meta)
	}

	env, loaded, ok, err := store.Load(context.Background(), ref)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if loaded.SnapshotID != meta.SnapshotID || len(env.States) != 4 {
		t.Fatalf("unexpected loaded snapshot %+v %+v", loaded, env)
	}
}

func TestMemoryStoreIsolatesCallers(t *testing.T) {
	store := seededStore(t, devEnvironment())
	ref := snapshot.Ref{Project: "web", Environment: "dev"}

	env, _, _, _ := store.Load(context.Background(), ref)
	env.States[0].Enabled = false
	env.States[2].FeatureSegment.Priority = 9

	again, _, _, _ := store.Load(context.Background(), ref)
	if !again.States[0].Enabled || again.States[2].FeatureSegment.Priority != 0 {
		t.Fatalf("stored snapshot was mutated through a loaded copy")
	}
}

func TestMemoryStoreRejectsStaleETag(t *testing.T) {
	store := snapshot.NewMemoryStore()
	ref := snapshot.Ref{Project: "web", Environment: "dev"}
	first, err := store.Save(context.Background(), ref, devEnvironment(), snapshot.Meta{})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := store.Save(context.Background(), ref, devEnvironment(), snapshot.Meta{ETag: first.ETag}); err != nil {
		t.Fatalf("save with current etag: %v", err)
	}
	_, err = store.Save(context.Background(), ref, devEnvironment(), snapshot.Meta{ETag: first.ETag})
	if !errors.Is(err, snapshot.ErrETagMismatch) {
		t.Fatalf("expected ErrETagMismatch, got %v", err)
	}
}

func TestMemoryStoreLoadMissing(t *testing.T) {
	_, _, ok, err := snapshot.NewMemoryStore().Load(context.Background(), snapshot.Ref{Project: "web", Environment: "qa"})
	if err != nil || ok {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}
}
