package remote

import "time"

// 远程证明客户端默认配置
//
// 远端生成链可验证的简洁证明是重资源的慢操作，轮询参数
// 按"初始5秒、倍率2、封顶60秒、整体30分钟"给出保守默认。
const (
	defaultEndpoint       = "http://localhost:8081"
	defaultRequestTimeout = 30 * time.Second

	defaultSubmitRetries = 3
	defaultSubmitBackoff = 2 * time.Second

	defaultPollInitialInterval = 5 * time.Second
	defaultPollBackoffFactor   = 2.0
	defaultPollMaxInterval     = 60 * time.Second
	defaultPollTimeout         = 30 * time.Minute
)

// createDefaultRemoteOptions 创建默认远程证明客户端配置
func createDefaultRemoteOptions() *RemoteOptions {
	return &RemoteOptions{
		Endpoint:            defaultEndpoint,
		APIKey:              "",
		RequestTimeout:      defaultRequestTimeout,
		SubmitRetries:       defaultSubmitRetries,
		SubmitBackoff:       defaultSubmitBackoff,
		PollInitialInterval: defaultPollInitialInterval,
		PollBackoffFactor:   defaultPollBackoffFactor,
		PollMaxInterval:     defaultPollMaxInterval,
		PollTimeout:         defaultPollTimeout,
	}
}
