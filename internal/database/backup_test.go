package database

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-attempt/internal/backup"
	"github.com/stemsi/exstem-attempt/internal/config"
)

func TestOpenBackupStorage(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name    string
		cfg     config.Config
		want    interface{}
		wantErr bool
	}{
		{"file", config.Config{BackupDriver: DriverFile, BackupDir: t.TempDir()}, &backup.FileStorage{}, false},
		{"default is file", config.Config{BackupDir: t.TempDir()}, &backup.FileStorage{}, false},
		{"memory", config.Config{BackupDriver: DriverMemory}, &backup.MemoryStorage{}, false},
		{"redis", config.Config{BackupDriver: DriverRedis, RedisURL: "redis://" + mr.Addr() + "/0"}, &backup.RedisStorage{}, false},
		{"bad redis url", config.Config{BackupDriver: DriverRedis, RedisURL: "://nope"}, nil, true},
		{"unknown", config.Config{BackupDriver: "floppy"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			storage, closeFn, err := OpenBackupStorage(context.Background(), &cfg, zerolog.Nop())
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %T", storage)
				}
				return
			}
			if err != nil {
				t.Fatalf("OpenBackupStorage: %v", err)
			}
			defer closeFn()

			switch tt.want.(type) {
			case *backup.FileStorage:
				if _, ok := storage.(*backup.FileStorage); !ok {
					t.Errorf("storage = %T, want file", storage)
				}
			case *backup.MemoryStorage:
				if _, ok := storage.(*backup.MemoryStorage); !ok {
					t.Errorf("storage = %T, want memory", storage)
				}
			case *backup.RedisStorage:
				if _, ok := storage.(*backup.RedisStorage); !ok {
					t.Errorf("storage = %T, want redis", storage)
				}
			}

			ctx := context.Background()
			if err := storage.Set(ctx, "student:1:exam:x:backup", []byte("payload")); err != nil {
				t.Fatalf("Set: %v", err)
			}
			got, err := storage.Get(ctx, "student:1:exam:x:backup")
			if err != nil || string(got) != "payload" {
				t.Errorf("Get = %q, %v", got, err)
			}
		})
	}
}
