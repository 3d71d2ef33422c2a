// Package workflow 承载 commandParam / globalParams 到 TaskNode.Params 的占位符替换，
// 在 frontier 提交时把 ProcessInstance 级别的参数"冻结"进每个 TaskInstance 的 TaskJSON。
package workflow

import (
	"fmt"
	"strings"
)

// ReplacePlaceholder 替换单个占位符字符串，形如 "${name}"
// params: key为占位符名称（不含${}），value为实际值
func ReplacePlaceholder(value string, params map[string]string) (string, bool) {
	if !strings.HasPrefix(value, "${") || !strings.HasSuffix(value, "}") {
		return value, false
	}
	paramName := strings.TrimPrefix(strings.TrimSuffix(value, "}"), "${")
	if paramName == "" {
		return value, false
	}
	actualValue, exists := params[paramName]
	if !exists {
		return value, false
	}
	return actualValue, true
}

// ReplaceParamsInMap 对paramsMap中的每个value做占位符替换，replacementParams优先级最高
// 返回未能解析的占位符名称列表；未解析不算致命错误，调用方可自行决定是否继续
func ReplaceParamsInMap(paramsMap map[string]string, replacementParams map[string]string) ([]string, error) {
	var unreplaced []string

	for key, strValue := range paramsMap {
		replaced, success := ReplacePlaceholder(strValue, replacementParams)
		if success {
			paramsMap[key] = replaced
			continue
		}
		if strings.HasPrefix(strValue, "${") && strings.HasSuffix(strValue, "}") {
			paramName := strings.TrimPrefix(strings.TrimSuffix(strValue, "}"), "${")
			unreplaced = append(unreplaced, paramName)
		}
	}

	if len(unreplaced) > 0 {
		return unreplaced, fmt.Errorf("以下占位符未找到对应的参数值: %v", unreplaced)
	}
	return nil, nil
}

// MergeParams 把globalParams和commandParam合并为一张查找表，commandParam优先级更高
// （对应ProcessInstance在启动时冻结的globalParams与本次Command携带的commandParam）
func MergeParams(globalParams, commandParam map[string]string) map[string]string {
	merged := make(map[string]string, len(globalParams)+len(commandParam))
	for k, v := range globalParams {
		merged[k] = v
	}
	for k, v := range commandParam {
		merged[k] = v
	}
	return merged
}
