package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dvloznov/finsight/internal/domain"
	"github.com/dvloznov/finsight/internal/forecast"
	"github.com/dvloznov/finsight/internal/store"
)

// memRepo is an in-memory store.Repository. The ...Err fields inject failures.
type memRepo struct {
	mu       sync.Mutex
	txs      map[string][]domain.Transaction
	cash     map[string]float64
	activity []domain.ActivityEntry
	uploads  map[string]*store.Upload

	ListErr     error
	InsertErr   error
	ActivityErr error
}

func newMemRepo() *memRepo {
	return &memRepo{
		txs:     make(map[string][]domain.Transaction),
		cash:    make(map[string]float64),
		uploads: make(map[string]*store.Upload),
	}
}

func (m *memRepo) ListTransactions(ctx context.Context, userID string) ([]domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	src := m.txs[userID]
	out := make([]domain.Transaction, 0, len(src))
	for i := len(src) - 1; i >= 0; i-- {
		out = append(out, src[i])
	}
	return out, nil
}

func (m *memRepo) InsertTransactions(ctx context.Context, userID string, txs []domain.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertErr != nil {
		return m.InsertErr
	}
	m.txs[userID] = append(m.txs[userID], txs...)
	return nil
}

func (m *memRepo) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	txs := m.txs[userID]
	for i, tx := range txs {
		if tx.ID == transactionID {
			m.txs[userID] = append(txs[:i:i], txs[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (m *memRepo) GetCashOnHand(ctx context.Context, userID string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cash, ok := m.cash[userID]
	if !ok {
		return 0, store.ErrNotFound
	}
	return cash, nil
}

func (m *memRepo) SetCashOnHand(ctx context.Context, userID string, amount float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cash[userID] = amount
	return nil
}

func (m *memRepo) RecordActivity(ctx context.Context, entry domain.ActivityEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ActivityErr != nil {
		return m.ActivityErr
	}
	m.activity = append(m.activity, entry)
	return nil
}

func (m *memRepo) ListActivity(ctx context.Context, userID string, limit int) ([]domain.ActivityEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ActivityEntry
	for i := len(m.activity) - 1; i >= 0; i-- {
		if m.activity[i].UserID == userID {
			out = append(out, m.activity[i])
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRepo) InsertUpload(ctx context.Context, upload *store.Upload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *upload
	m.uploads[upload.UploadID] = &cp
	return nil
}

func (m *memRepo) GetUpload(ctx context.Context, userID, uploadID string) (*store.Upload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.uploads[uploadID]
	if !ok || u.UserID != userID {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memRepo) MarkUploadConfirmed(ctx context.Context, userID, uploadID string, imported int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.uploads[uploadID]
	if !ok || u.UserID != userID || u.Status != store.UploadStatusAnalyzed {
		return store.ErrNotFound
	}
	u.Status = store.UploadStatusConfirmed
	u.ImportedCount = imported
	return nil
}

func (m *memRepo) Close() error { return nil }

func (m *memRepo) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.activity))
	for i, a := range m.activity {
		out[i] = a.Action
	}
	return out
}

type mockEngine struct {
	ForecastFunc func(ctx context.Context, series []forecast.Point, horizonDays int) ([]domain.ForecastPoint, error)
}

func (m *mockEngine) Forecast(ctx context.Context, series []forecast.Point, horizonDays int) ([]domain.ForecastPoint, error) {
	if m.ForecastFunc != nil {
		return m.ForecastFunc(ctx, series, horizonDays)
	}
	return nil, nil
}

type mockArchiver struct {
	ArchiveFunc func(ctx context.Context, userID, uploadID, filename string, data []byte) (string, error)
}

func (m *mockArchiver) Archive(ctx context.Context, userID, uploadID, filename string, data []byte) (string, error) {
	if m.ArchiveFunc != nil {
		return m.ArchiveFunc(ctx, userID, uploadID, filename, data)
	}
	return fmt.Sprintf("gs://bucket/uploads/%s/%s-%s", userID, uploadID, filename), nil
}

// newTestService returns a Service with deterministic ids and clock.
func newTestService(repo *memRepo, engine forecast.Engine, opts Options) *Service {
	svc := New(repo, engine, nil, opts)
	var n int
	svc.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	svc.now = func() time.Time {
		return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}
