package usersink_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-flagstate/pkg/activity"
	"github.com/goliatone/go-flagstate/pkg/activity/usersink"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return nil
}

func TestHookNotifyMapsComparisonEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}
	actorID := uuid.New()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	event := activity.BuildEnvironmentsComparedEvent(activity.ComparisonInput{
		Actor:            activity.Actor{ActorID: actorID.String(), TenantID: "not-a-uuid", Channel: "review"},
		Project:          "web",
		LeftEnvironment:  "dev",
		RightEnvironment: "prod",
		ChangedFlags:     []string{"flag_a"},
		OccurredAt:       at,
	})
	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actorID || record.TenantID != uuid.Nil {
		t.Fatalf("unexpected ids actor=%s tenant=%s", record.ActorID, record.TenantID)
	}
	if record.Verb != activity.VerbEnvironmentsCompared || record.ObjectID != "web/dev..prod" || record.Channel != "review" {
		t.Fatalf("unexpected record payload: %+v", record)
	}
	if !record.OccurredAt.Equal(at) || record.Data["changed_count"] != 1 {
		t.Fatalf("unexpected record data: %+v", record)
	}
}

func TestHookNotifySkipsInvalidEvents(t *testing.T) {
	sink := &recordingSink{}
	_ = usersink.Hook{Sink: sink}.Notify(context.Background(), activity.Event{})
	if len(sink.records) != 0 {
		t.Fatalf("expected no records for empty event, got %d", len(sink.records))
	}
	if err := (usersink.Hook{}).Notify(context.Background(), activity.Event{Verb: "x", ObjectType: "y", ObjectID: "z"}); err != nil {
		t.Fatalf("nil sink should be ignored, got %v", err)
	}
}
