package service

import (
	"context"
	"errors"
	"fmt"
)

// FailureKind 外部调用失败的类别
type FailureKind string

const (
	FailureNetwork   FailureKind = "network"
	FailureStatus    FailureKind = "status"
	FailureRemote    FailureKind = "remote_flag"
	FailureMalformed FailureKind = "malformed"
)

// RemoteError 外部服务调用失败，Raw 保存无法解析的原始返回文本
type RemoteError struct {
	Kind FailureKind
	Raw  string
	Err  error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// FailureKindOf 非 RemoteError 一律视为网络类失败
func FailureKindOf(err error) FailureKind {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Kind
	}
	return FailureNetwork
}

// FailureClassifier 判断一个错误是否应走兜底
type FailureClassifier func(error) bool

// AnyFailure 任何错误都走兜底
func AnyFailure(err error) bool {
	return err != nil
}

// WithFallback 先尝试远端调用，失败且 classifier 认可时用确定性的 fallback 替代，输出契约相同。
// fellBack 标记结果是否来自兜底；classifier 拒绝的错误原样返回。
func WithFallback[T any](
	ctx context.Context,
	remote func(ctx context.Context) (T, error),
	fallback func(err error) T,
	classify FailureClassifier,
) (result T, fellBack bool, err error) {
	if classify == nil {
		classify = AnyFailure
	}

	result, err = remote(ctx)
	if err == nil {
		return result, false, nil
	}
	if !classify(err) {
		var zero T
		return zero, false, err
	}
	return fallback(err), true, nil
}
