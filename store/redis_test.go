package store

import (
	"context"
	"testing"

	"github.com/go-redis/redismock/v9"
)

func TestRedisStore_Load_Hit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	s := NewRedisStoreFromClient(db, "test:")

	mock.ExpectGet("test:session:abc").SetVal(`{"book":"b"}`)

	data, found, err := s.Load(context.Background(), "session:abc")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !found {
		t.Error("Expected hit")
	}
	if string(data) != `{"book":"b"}` {
		t.Errorf("data = %q", data)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestRedisStore_Load_Miss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	s := NewRedisStoreFromClient(db, "test:")

	mock.ExpectGet("test:session:abc").RedisNil()

	_, found, err := s.Load(context.Background(), "session:abc")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if found {
		t.Error("Expected miss")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestRedisStore_Save(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	s := NewRedisStoreFromClient(db, "test:")

	mock.ExpectSet("test:glossary:book", []byte(`[]`), 0).SetVal("OK")

	if err := s.Save(context.Background(), "glossary:book", []byte(`[]`)); err != nil {
		t.Errorf("Save failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestRedisStore_Delete(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	s := NewRedisStoreFromClient(db, "test:")

	mock.ExpectDel("test:session:abc").SetVal(1)

	if err := s.Delete(context.Background(), "session:abc"); err != nil {
		t.Errorf("Delete failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestRedisStore_DefaultPrefix(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	s := NewRedisStoreFromClient(db, "")

	mock.ExpectGet("chapterwise:k").RedisNil()

	if _, _, err := s.Load(context.Background(), "k"); err != nil {
		t.Errorf("Load failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestRedisStore_Ping(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	s := NewRedisStoreFromClient(db, "test:")

	mock.ExpectPing().SetVal("PONG")

	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}
