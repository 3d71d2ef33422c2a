package engine

import (
	"runtime"
	"time"

	"github.com/workflow-master/core/pkg/core/cache"
)

// AdmissionController 是canSubmitTaskToQueue的落地：本host资源超过阈值时暂停派发新任务
// 采样结果缓存在cache.MemoryResultCache里，避免每tick都重新采样
type AdmissionController struct {
	cpuThreshold float64
	memThreshold float64
	sampleTTL    time.Duration
	cache        cache.ResultCache
}

type resourceSample struct {
	cpuPercent float64
	memPercent float64
}

// NewAdmissionController 构造准入控制器；阈值<=0表示不限制
func NewAdmissionController(cpuThreshold, memThreshold float64) *AdmissionController {
	if cpuThreshold <= 0 {
		cpuThreshold = 100
	}
	if memThreshold <= 0 {
		memThreshold = 100
	}
	return &AdmissionController{
		cpuThreshold: cpuThreshold,
		memThreshold: memThreshold,
		sampleTTL:    2 * time.Second,
		cache:        cache.NewMemoryResultCache(),
	}
}

// CanSubmit 当前资源占用是否低于配置阈值
func (a *AdmissionController) CanSubmit() bool {
	s := a.sample()
	return s.cpuPercent < a.cpuThreshold && s.memPercent < a.memThreshold
}

func (a *AdmissionController) sample() resourceSample {
	if v, ok := a.cache.Get("host-resource"); ok {
		if s, ok := v.(resourceSample); ok {
			return s
		}
	}
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	// 语料库内没有暴露系统级CPU占用率的依赖，这里跟pkg/cluster的近似口径保持一致：
	// cpu固定为0（即总是通过cpu那一半的判断），mem用进程Sys内存占1GiB的比例近似
	s := resourceSample{
		cpuPercent: 0,
		memPercent: float64(m.Sys) / float64(1<<30) * 100,
	}
	_ = a.cache.Set("host-resource", s, a.sampleTTL)
	return s
}
