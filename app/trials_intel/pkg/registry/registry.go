package registry

import (
	"context"

	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/model"
)

// Searcher 临床试验检索接口
type Searcher interface {
	Search(ctx context.Context, req *Request) ([]model.TrialRecord, error)
}

// Request 检索请求
type Request struct {
	Condition  string
	MaxResults int
	Statuses   []string // 为空时使用客户端默认值
}
