package configwatcher

import (
	"context"
	"path/filepath"
	"student_risk_backend/internal/config"
	"student_risk_backend/pkg/logger"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

type ConfigReloader func(cfg *config.Config)

// WatchConfig 监听配置文件变化，防抖后重新加载并回调；ctx 取消时退出
func WatchConfig(ctx context.Context, configPath string, reloader ConfigReloader) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return err
	}

	// 监听目录而不是文件本身，编辑器的原子替换也能被捕获
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		return err
	}

	timer := time.NewTimer(time.Hour)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != absPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				// 防抖处理
				timer.Reset(time.Second)
			}
		case <-timer.C:
			newCfg, err := config.LoadConfig(filepath.Dir(absPath))
			if err != nil {
				logger.Log.Error("Failed to reload config", zap.Error(err))
				continue
			}
			logger.Log.Info("Config reloaded", zap.String("path", absPath))
			reloader(newCfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Log.Error("Config watcher error", zap.Error(err))
		}
	}
}
