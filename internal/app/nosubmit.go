package app

import (
	"context"
	"fmt"

	submitterInterface "github.com/weisyn/zkcompose/pkg/interfaces/submitter"
	"github.com/weisyn/zkcompose/pkg/types"
	"go.uber.org/fx"
)

// noSubmitter 占位提交管道
//
// 仅在跳过上链的运行模式下装配；组合管理器在SkipSubmission
// 请求上不会触碰它，任何意外调用都是编程错误。
type noSubmitter struct{}

func (noSubmitter) Submit(ctx context.Context, receipt *types.Receipt) (*types.TxResult, error) {
	return nil, fmt.Errorf("链上提交在当前运行模式下未启用")
}

func noSubmitterModule() fx.Option {
	return fx.Module("submitter-disabled",
		fx.Provide(func() submitterInterface.Submitter { return noSubmitter{} }),
	)
}
