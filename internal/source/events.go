package source

import "vela/internal/logger"

// Stage 标记事件发生在抓取流水线的哪一层。
type Stage string

const (
	StageFetch  Stage = "fetch"  // 单次 HTTP 请求层
	StagePage   Stage = "page"   // 分页/端点切换层
	StageSelect Stage = "select" // 数据源选择层
)

// Outcome 标记事件的结果类型。
type Outcome string

const (
	OutcomeRetry    Outcome = "retry"
	OutcomeFailed   Outcome = "failed"
	OutcomeFailover Outcome = "failover"
	OutcomeFallback Outcome = "fallback"
	OutcomeEmpty    Outcome = "empty"
	OutcomePartial  Outcome = "partial"
	OutcomeFull     Outcome = "full"
)

// Event 是一条结构化抓取诊断记录，失败重试、端点切换、降级
// 决策都会各产生一条，方便排查线上数据问题。
type Event struct {
	Stage    Stage
	Endpoint string
	Attempt  int
	Cursor   int64
	Outcome  Outcome
	Err      error
}

// Observer 接收抓取事件；实现必须能被多 goroutine 并发调用。
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc 把函数适配成 Observer。
type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }

// NopObserver 丢弃全部事件。
func NopObserver() Observer {
	return ObserverFunc(func(Event) {})
}

// LogObserver 把事件写入进程日志：失败类走 Warn，其余走 Debug。
func LogObserver() Observer {
	return ObserverFunc(func(e Event) {
		switch e.Outcome {
		case OutcomeRetry, OutcomeFailed, OutcomeFailover, OutcomeFallback:
			logger.Warnf("[source] stage=%s endpoint=%s attempt=%d cursor=%d outcome=%s err=%v",
				e.Stage, e.Endpoint, e.Attempt, e.Cursor, e.Outcome, e.Err)
		default:
			logger.Debugf("[source] stage=%s endpoint=%s cursor=%d outcome=%s",
				e.Stage, e.Endpoint, e.Cursor, e.Outcome)
		}
	})
}
