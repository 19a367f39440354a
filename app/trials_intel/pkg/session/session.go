// Package session 保存每个调用方最近一次检索到的试验和分析结果。
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/model"
)

var (
	// ErrNotFound 会话不存在或已被淘汰
	ErrNotFound = errors.New("session not found")
	// ErrStale 分析期间会话的试验列表已被替换
	ErrStale = errors.New("session trials changed")
)

// Session 一个会话的快照
type Session struct {
	ID         string                `json:"id"`
	Condition  string                `json:"condition"`
	Trials     []model.TrialRecord   `json:"trials"`
	Analysis   *model.AnalysisResult `json:"analysis,omitempty"`
	Generation uint64                `json:"generation"` // 每次 SetTrials 加一
	UpdatedAt  time.Time             `json:"updated_at"`
}

// Store 基于 LRU 的会话存储，超过容量时淘汰最久未使用的会话
type Store struct {
	mu    sync.Mutex
	cache *lru.Cache[string, Session]
	now   func() time.Time
}

// NewStore 创建容量为 size 的会话存储
func NewStore(size int) (*Store, error) {
	if size <= 0 {
		size = 128
	}
	cache, err := lru.New[string, Session](size)
	if err != nil {
		return nil, err
	}
	return &Store{cache: cache, now: time.Now}, nil
}

// Create 新建空会话
func (s *Store) Create() Session {
	sess := Session{ID: uuid.NewString(), Trials: []model.TrialRecord{}, UpdatedAt: s.now()}
	s.mu.Lock()
	s.cache.Add(sess.ID, sess)
	s.mu.Unlock()
	return sess
}

// Get 返回会话快照
func (s *Store) Get(id string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.cache.Get(id)
	if !ok {
		return Session{}, ErrNotFound
	}
	return sess, nil
}

// Resolve id 为空或已失效时新建会话
func (s *Store) Resolve(id string) Session {
	if id != "" {
		if sess, err := s.Get(id); err == nil {
			return sess
		}
	}
	return s.Create()
}

// SetTrials 写入新的检索结果，同时清除旧的分析结果
func (s *Store) SetTrials(id, condition string, trials []model.TrialRecord) (Session, error) {
	return s.update(id, func(sess *Session) error {
		sess.Condition = condition
		sess.Trials = append([]model.TrialRecord(nil), trials...)
		sess.Analysis = nil
		sess.Generation++
		return nil
	})
}

// SetAnalysis 写入分析结果，generation 必须与分析开始时读取的一致
func (s *Store) SetAnalysis(id string, generation uint64, result *model.AnalysisResult) (Session, error) {
	return s.update(id, func(sess *Session) error {
		if sess.Generation != generation {
			return ErrStale
		}
		sess.Analysis = result
		return nil
	})
}

// Len 当前会话数
func (s *Store) Len() int {
	return s.cache.Len()
}

func (s *Store) update(id string, fn func(*Session) error) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.cache.Get(id)
	if !ok {
		return Session{}, ErrNotFound
	}
	if err := fn(&sess); err != nil {
		return Session{}, err
	}
	sess.UpdatedAt = s.now()
	s.cache.Add(id, sess)
	return sess, nil
}
