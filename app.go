package scopedproxy

import (
	"github.com/gocrud/scopedproxy/config"
	"github.com/gocrud/scopedproxy/core"
	"github.com/gocrud/scopedproxy/demo"
	"github.com/gocrud/scopedproxy/logging"
	"github.com/gocrud/scopedproxy/messaging"
	"github.com/gocrud/scopedproxy/metrics"
	"github.com/gocrud/scopedproxy/schedule"
)

// DefaultConfigFile 工作目录下可选的配置文件
const DefaultConfigFile = "scopedproxy.yaml"

// DefaultOptions 返回完整的组合根：
// 配置 -> 日志 -> 指标 -> Messenger(作用域) + 代理装饰器(单例) -> 定时任务 -> 演示
func DefaultOptions(configFile string, logOpts ...logging.ConfigureOption) []core.Option {
	return []core.Option{
		config.Load(configFile, config.Optional()),
		logging.Configure(logOpts...),
		metrics.AddMetrics(),
		messaging.AddMessaging(),
		schedule.New(),
		demo.New(),
	}
}
