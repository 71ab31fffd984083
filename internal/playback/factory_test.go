package playback

import (
	"context"
	"testing"
	"time"

	"github.com/darkden-lab/logplay/internal/catalog"
	"github.com/darkden-lab/logplay/internal/fabric"
	"github.com/darkden-lab/logplay/internal/store"
)

func inProcNodeFactory() NodeFactory {
	return func() (fabric.Node, error) {
		return fabric.NewInProcNode(), nil
	}
}

func TestFactoryEmptySelectionFinishesImmediately(t *testing.T) {
	st := store.NewMemStore()
	st.Append(catalog.Message{Topic: "/a", Type: "T1", TimeReceived: 0})
	st.Append(catalog.Message{Topic: "/b", Type: "T1", TimeReceived: 0})

	f := New(st, inProcNodeFactory())
	defer f.Close()

	ctx := context.Background()
	if ok := f.AddName(ctx, "/c"); ok {
		t.Fatal("expected AddName(\"/c\") to fail, topic is not in the catalog")
	}

	session, err := f.Start(ctx, 0)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if session == nil {
		t.Fatal("expected a non-nil session")
	}
	defer session.Close()

	session.WaitUntilFinished()
	if !session.Finished() {
		t.Fatal("expected session to finish with an empty resolved selection")
	}
}

func TestFactoryPatternMatchesAllTopics(t *testing.T) {
	st := store.NewMemStore()
	st.Append(catalog.Message{Topic: "/a", Type: "T1", TimeReceived: 0})
	st.Append(catalog.Message{Topic: "/b", Type: "T1", TimeReceived: int64(10 * time.Millisecond)})
	st.Append(catalog.Message{Topic: "/c", Type: "T1", TimeReceived: int64(20 * time.Millisecond)})

	f := New(st, inProcNodeFactory())
	defer f.Close()

	ctx := context.Background()
	n, err := f.AddPattern(ctx, ".*")
	if err != nil {
		t.Fatalf("AddPattern failed: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 matches, got %d", n)
	}

	session, err := f.Start(ctx, 0)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer session.Close()

	session.WaitUntilFinished()
	if !session.Finished() {
		t.Fatal("expected session to finish")
	}
}

func TestFactoryDefaultThenRemoveExcludesTopic(t *testing.T) {
	st := store.NewMemStore()
	st.Append(catalog.Message{Topic: "/a", Type: "T1", TimeReceived: 0})
	st.Append(catalog.Message{Topic: "/b", Type: "T1", TimeReceived: 0})
	st.Append(catalog.Message{Topic: "/c", Type: "T1", TimeReceived: 0})

	f := New(st, inProcNodeFactory())
	defer f.Close()

	ctx := context.Background()
	if ok := f.RemoveName(ctx, "/b"); !ok {
		t.Fatal("expected RemoveName(\"/b\") to succeed against the catalog-default set")
	}

	session, err := f.Start(ctx, 0)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer session.Close()

	session.WaitUntilFinished()
}

func TestFactoryNonThreadsafeGateRefusesConcurrentSession(t *testing.T) {
	st := store.NewMemStore() // ThreadsafeCapability() == false
	st.Append(catalog.Message{Topic: "/a", Type: "T1", TimeReceived: 0})
	st.Append(catalog.Message{Topic: "/a", Type: "T1", TimeReceived: int64(500 * time.Millisecond)})

	f := New(st, inProcNodeFactory())
	defer f.Close()

	ctx := context.Background()
	if _, err := f.AddPattern(ctx, ".*"); err != nil {
		t.Fatalf("AddPattern failed: %v", err)
	}

	first, err := f.Start(ctx, 0)
	if err != nil {
		t.Fatalf("first Start failed: %v", err)
	}
	defer first.Close()

	second, err := f.Start(ctx, 0)
	if err != nil {
		t.Fatalf("second Start should return (nil, nil), got error: %v", err)
	}
	if second != nil {
		t.Fatal("expected nil session while the first session is still running")
	}

	first.Stop()

	third, err := f.Start(ctx, 0)
	if err != nil {
		t.Fatalf("third Start failed: %v", err)
	}
	if third == nil {
		t.Fatal("expected a session once the prior one finished")
	}
	defer third.Close()
}

func TestFactoryMissingTypeSkippedSilently(t *testing.T) {
	st := store.NewMemStore()
	st.Append(catalog.Message{Topic: "/a", Type: "T1", TimeReceived: 0})

	failing := func() (fabric.Node, error) {
		return newFailingNode("/a:T1"), nil
	}

	f := New(st, failing)
	defer f.Close()

	ctx := context.Background()
	if _, err := f.AddPattern(ctx, ".*"); err != nil {
		t.Fatalf("AddPattern failed: %v", err)
	}

	session, err := f.Start(ctx, 0)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer session.Close()

	session.WaitUntilFinished()
	if !session.Finished() {
		t.Fatal("session must still finish when every publisher failed to advertise")
	}
}

func TestFactoryRejectsOperationsWhenStoreInvalid(t *testing.T) {
	st := &invalidStore{}
	f := New(st, inProcNodeFactory())
	defer f.Close()

	if f.Valid() {
		t.Fatal("expected an invalid store to make the factory invalid")
	}

	ctx := context.Background()
	if _, err := f.Start(ctx, 0); err == nil {
		t.Fatal("expected Start to fail against an invalid store")
	}
}

// invalidStore always reports Valid()==false, modeling spec.md §7's
// "cannot open Store" error kind.
type invalidStore struct{}

func (invalidStore) Valid() bool { return false }
func (invalidStore) Descriptor(ctx context.Context) (catalog.Catalog, error) {
	return nil, context.DeadlineExceeded
}
func (invalidStore) QueryMessages(ctx context.Context, topics []string) (store.Batch, error) {
	return nil, context.DeadlineExceeded
}
func (invalidStore) ThreadsafeCapability() bool { return false }
func (invalidStore) Close() error                { return nil }
