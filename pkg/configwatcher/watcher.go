package configwatcher

import (
	"path/filepath"
	"time"

	"skillforge_backend/internal/config"
	"skillforge_backend/pkg/logger"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ReloadFunc 配置文件变更后回调，参数为重新加载的配置
type ReloadFunc func(cfg *config.Config)

// Watch 监听配置文件写入事件，防抖一秒后重载
func Watch(configPath string, reload ReloadFunc) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		watcher.Close()
		return err
	}
	if err := watcher.Add(absPath); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()

		debounce := time.NewTimer(0)
		if !debounce.Stop() {
			<-debounce.C
		}

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&fsnotify.Write != 0 {
					debounce.Reset(time.Second)
				}
			case <-debounce.C:
				newCfg, err := config.LoadConfig(filepath.Dir(absPath))
				if err != nil {
					logger.Log.Error("配置重载失败", zap.Error(err))
					continue
				}
				logger.Log.Info("配置已重载", zap.String("path", absPath))
				reload(newCfg)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Log.Error("配置监听异常", zap.Error(err))
			}
		}
	}()

	return nil
}
