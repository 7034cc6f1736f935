package bootstrap

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/finsight/internal/config"
	"github.com/dvloznov/finsight/internal/domain"
	"github.com/dvloznov/finsight/internal/forecast"
	"github.com/dvloznov/finsight/internal/jobs"
)

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Store:    config.StoreConfig{Backend: config.BackendSQLite, SQLitePath: filepath.Join(t.TempDir(), "app.db")},
		Upload:   config.UploadConfig{MaxBytes: 1 << 20},
		Finance:  config.FinanceConfig{DefaultCashOnHand: 1000},
		Forecast: config.ForecastConfig{Engine: config.EngineLinear, HorizonDays: 30},
	}
}

func TestNew_SQLite(t *testing.T) {
	app, err := New(context.Background(), sqliteConfig(t))
	require.NoError(t, err)
	defer app.Close()

	snap, err := app.Service.GetFinancialSnapshot(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1000.0, snap.CashOnHand)
}

func TestOpenRepository_UnknownBackend(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Store.Backend = "postgres"

	_, err := OpenRepository(context.Background(), cfg)
	assert.ErrorContains(t, err, "postgres")
}

func TestNewEngine(t *testing.T) {
	cfg := sqliteConfig(t)

	engine, err := NewEngine(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, forecast.LinearEngine{}, engine)

	cfg.Forecast.Engine = "prophet"
	_, err = NewEngine(context.Background(), cfg)
	assert.Error(t, err)
}

func TestServiceOptions(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Analysis.GlobalZThreshold = 4

	opts := ServiceOptions(cfg)
	assert.Equal(t, int64(1<<20), opts.MaxUploadBytes)
	assert.Equal(t, 30, opts.HorizonDays)
	assert.Equal(t, 4.0, opts.Pipeline.Anomaly.GlobalZ)
}

type stubRepo struct{ txs []domain.Transaction }

func (s stubRepo) ListTransactions(ctx context.Context, userID string) ([]domain.Transaction, error) {
	return s.txs, nil
}
func (s stubRepo) InsertTransactions(ctx context.Context, userID string, txs []domain.Transaction) error {
	return errors.New("read only")
}
func (s stubRepo) DeleteTransaction(ctx context.Context, userID, id string) error {
	return errors.New("read only")
}

type stubNotion struct{ created int }

func (s *stubNotion) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	s.created++
	return &notionapi.Page{}, nil
}
func (s *stubNotion) UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error) {
	return &notionapi.Page{}, nil
}
func (s *stubNotion) QueryDatabase(ctx context.Context, databaseID string, filter *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	return &notionapi.DatabaseQueryResponse{}, nil
}
func (s *stubNotion) DeletePage(ctx context.Context, pageID string) error { return nil }

func TestSyncNotionHandler(t *testing.T) {
	repo := stubRepo{txs: []domain.Transaction{{ID: "t1", Description: "AWS", Amount: -10}}}
	client := &stubNotion{}

	job := &jobs.SyncNotionJob{JobID: "j1", UserID: "user-1"}
	require.NoError(t, SyncNotionHandler(repo, client, "db")(context.Background(), job))
	require.NotNil(t, job.Result)
	assert.Equal(t, 1, job.Result.Created)
	assert.Equal(t, 1, client.created)

	err := SyncNotionHandler(repo, client, "")(context.Background(), job)
	assert.ErrorContains(t, err, "j1")
}
