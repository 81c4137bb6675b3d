package backup

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-attempt/internal/model"
)

func storages(t *testing.T) map[string]Storage {
	t.Helper()

	fileStore, err := NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStorage: %v", err)
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return map[string]Storage{
		"memory": NewMemoryStorage(),
		"file":   fileStore,
		"redis":  NewRedisStorage(rdb, DefaultRedisTTL),
	}
}

func TestStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range storages(t) {
		t.Run(name, func(t *testing.T) {
			key := "student:7:exam:abc:backup"

			if _, err := s.Get(ctx, key); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Get on empty = %v, want ErrNotFound", err)
			}
			if err := s.Set(ctx, key, []byte("one")); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if err := s.Set(ctx, key, []byte("two")); err != nil {
				t.Fatalf("Set overwrite: %v", err)
			}
			got, err := s.Get(ctx, key)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if string(got) != "two" {
				t.Fatalf("Get = %q, want two", got)
			}
			if err := s.Delete(ctx, key); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if err := s.Delete(ctx, key); err != nil {
				t.Fatalf("Delete twice: %v", err)
			}
			if _, err := s.Get(ctx, key); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Get after delete = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestSealer(t *testing.T) {
	s, err := NewSealer("kiosk-secret")
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}
	plain := []byte(`{"answers":[]}`)

	sealed, err := s.Seal("k1", plain)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if bytes.Contains(sealed, plain) {
		t.Fatal("sealed payload contains plaintext")
	}

	opened, err := s.Open("k1", sealed)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !bytes.Equal(opened, plain) {
		t.Fatalf("Open = %q, want %q", opened, plain)
	}

	if _, err := s.Open("k2", sealed); !errors.Is(err, ErrSealed) {
		t.Fatalf("Open under another key = %v, want ErrSealed", err)
	}
	if _, err := s.Open("k1", plain); !errors.Is(err, ErrSealed) {
		t.Fatalf("Open plaintext = %v, want ErrSealed", err)
	}
}

func TestSealer_EmptySecretIsPassthrough(t *testing.T) {
	s, err := NewSealer("")
	if err != nil || s != nil {
		t.Fatalf("NewSealer(\"\") = %v, %v; want nil, nil", s, err)
	}
	out, _ := s.Seal("k", []byte("x"))
	if string(out) != "x" {
		t.Fatalf("nil sealer changed payload: %q", out)
	}
}

func TestAdapter_SaveLoadClear(t *testing.T) {
	ctx := context.Background()
	sealer, _ := NewSealer("secret")
	store := NewMemoryStorage()
	a := NewAdapter(store, sealer, 42, zerolog.New(io.Discard))

	examID := uuid.New()
	snap := Snapshot{
		ExamID:    examID,
		AttemptID: uuid.New(),
		Answers:   []model.AnswerPair{{QuestionID: uuid.New(), Answer: "B"}},
	}
	a.Save(ctx, snap)

	got, ok := a.Load(ctx, examID)
	if !ok {
		t.Fatal("Load found nothing")
	}
	if got.AttemptID != snap.AttemptID || len(got.Answers) != 1 || got.Answers[0].Answer != "B" {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
	if got.SavedAt.IsZero() {
		t.Fatal("SavedAt not stamped")
	}

	other := NewAdapter(store, sealer, 43, zerolog.New(io.Discard))
	if _, ok := other.Load(ctx, examID); ok {
		t.Fatal("another student read the backup")
	}

	a.Clear(ctx, examID)
	if _, ok := a.Load(ctx, examID); ok {
		t.Fatal("backup survived Clear")
	}
}

type brokenStorage struct{}

func (brokenStorage) Get(context.Context, string) ([]byte, error) { return nil, errors.New("disk gone") }
func (brokenStorage) Set(context.Context, string, []byte) error   { return errors.New("quota exceeded") }
func (brokenStorage) Delete(context.Context, string) error        { return errors.New("read-only fs") }

func TestAdapter_SwallowsStorageFailures(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	a := NewAdapter(brokenStorage{}, nil, 1, zerolog.New(&buf))
	examID := uuid.New()

	a.Save(ctx, Snapshot{ExamID: examID})
	if _, ok := a.Load(ctx, examID); ok {
		t.Fatal("Load reported success on a broken storage")
	}
	a.Clear(ctx, examID)

	if !bytes.Contains(buf.Bytes(), []byte("quota exceeded")) {
		t.Fatalf("write failure not logged: %s", buf.String())
	}
}

func TestAdapter_NilIsNoop(t *testing.T) {
	var a *Adapter
	a.Save(context.Background(), Snapshot{})
	if _, ok := a.Load(context.Background(), uuid.New()); ok {
		t.Fatal("nil adapter loaded a snapshot")
	}
	a.Clear(context.Background(), uuid.New())
}
