package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// RetrievalFields 描述一次符号获取的目标文件，供 CLI 与代理日志复用。
func RetrievalFields(file, hash, kind string) logrus.Fields {
	return logrus.Fields{
		"file": file,
		"hash": hash,
		"kind": kind,
	}
}

// RequestFields 提供代理请求的关联字段；cacheHit 仅在获取成功后有意义。
func RequestFields(requestID, method, path string, cacheHit bool) logrus.Fields {
	return logrus.Fields{
		"request_id": requestID,
		"method":     method,
		"path":       path,
		"cache_hit":  cacheHit,
	}
}

// Merge 把多个字段集合并为一个新的 Fields，后者覆盖前者。
func Merge(sets ...logrus.Fields) logrus.Fields {
	merged := logrus.Fields{}
	for _, set := range sets {
		for key, value := range set {
			merged[key] = value
		}
	}
	return merged
}
