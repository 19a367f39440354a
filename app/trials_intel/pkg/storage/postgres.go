package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/config"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/model"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("storage: not found")

// Storage Postgres 持久化
type Storage struct {
	db *sql.DB
}

// RunMeta 一次分析运行的元信息
type RunMeta struct {
	Condition   string
	Mode        string // mock | real
	Model       string
	TotalTrials int
}

// NewStorage 连接数据库并初始化表结构
func NewStorage(cfg config.DBConfig) (*Storage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := NewWithDB(db)
	if err := s.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// NewWithDB 使用已有连接
func NewWithDB(db *sql.DB) *Storage {
	return &Storage{db: db}
}

func (s *Storage) Close() error {
	return s.db.Close()
}

// InitSchema 建表
func (s *Storage) InitSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS analysis_runs (
			id SERIAL PRIMARY KEY,
			condition TEXT NOT NULL,
			mode TEXT NOT NULL,
			model TEXT NOT NULL,
			total_trials INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS analyzed_trials (
			id SERIAL PRIMARY KEY,
			run_id INTEGER REFERENCES analysis_runs(id),
			position INTEGER NOT NULL,
			nct_id TEXT NOT NULL,
			title TEXT,
			phase TEXT,
			conditions TEXT[],
			therapeutic_area TEXT,
			record JSONB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS portfolio_summaries (
			id SERIAL PRIMARY KEY,
			run_id INTEGER UNIQUE REFERENCES analysis_runs(id),
			summary JSONB NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query %s: %w", query, err)
		}
	}
	return nil
}

// CreateRun 创建运行记录，返回 run id
func (s *Storage) CreateRun(ctx context.Context, meta RunMeta) (int, error) {
	var id int
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO analysis_runs (condition, mode, model, total_trials)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		meta.Condition, meta.Mode, meta.Model, meta.TotalTrials).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert analysis run: %w", err)
	}
	return id, nil
}

// SaveAnalyzedTrials 在一个事务内保存全部分析结果，position 保留原始顺序
func (s *Storage) SaveAnalyzedTrials(ctx context.Context, runID int, trials []model.AnalyzedTrial) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i, t := range trials {
		record, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("failed to marshal trial %s: %w", t.NCTID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO analyzed_trials (run_id, position, nct_id, title, phase, conditions, therapeutic_area, record)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			runID, i, t.NCTID, t.Title, t.Phase, pq.Array(t.Conditions), t.Analysis.TherapeuticArea, record)
		if err != nil {
			return fmt.Errorf("failed to insert analyzed trial %s: %w", t.NCTID, err)
		}
	}

	return tx.Commit()
}

// SaveSummary 保存组合汇总，同一 run 重复保存时覆盖
func (s *Storage) SaveSummary(ctx context.Context, runID int, summary model.PortfolioSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO portfolio_summaries (run_id, summary)
		VALUES ($1, $2)
		ON CONFLICT (run_id) DO UPDATE SET summary = EXCLUDED.summary`,
		runID, data)
	if err != nil {
		return fmt.Errorf("failed to insert portfolio summary: %w", err)
	}
	return nil
}

// SaveResult 保存一次完整分析，返回 run id
func (s *Storage) SaveResult(ctx context.Context, meta RunMeta, result *model.AnalysisResult) (int, error) {
	meta.TotalTrials = len(result.Trials)
	runID, err := s.CreateRun(ctx, meta)
	if err != nil {
		return 0, err
	}
	if err := s.SaveAnalyzedTrials(ctx, runID, result.Trials); err != nil {
		return runID, err
	}
	if err := s.SaveSummary(ctx, runID, result.Summary); err != nil {
		return runID, err
	}
	return runID, nil
}

// GetSummary 读取某次运行的组合汇总
func (s *Storage) GetSummary(ctx context.Context, runID int) (*model.PortfolioSummary, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT summary FROM portfolio_summaries WHERE run_id = $1`, runID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio summary: %w", err)
	}
	var summary model.PortfolioSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("failed to decode portfolio summary: %w", err)
	}
	return &summary, nil
}

// GetAnalyzedTrials 按原始顺序读取某次运行的试验
func (s *Storage) GetAnalyzedTrials(ctx context.Context, runID int) ([]model.AnalyzedTrial, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT record FROM analyzed_trials WHERE run_id = $1 ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyzed trials: %w", err)
	}
	defer rows.Close()

	trials := []model.AnalyzedTrial{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var t model.AnalyzedTrial
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("failed to decode analyzed trial: %w", err)
		}
		trials = append(trials, t)
	}
	return trials, rows.Err()
}
