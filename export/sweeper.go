package export

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chaos-io/bgswap/util"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper 定期清理输出目录中过期的导出文件
type Sweeper struct {
	dir       string
	retention time.Duration
	now       func() time.Time
	cron      *cron.Cron
}

func NewSweeper(dir string, retention time.Duration) *Sweeper {
	return &Sweeper{
		dir:       dir,
		retention: retention,
		now:       time.Now,
	}
}

// Start 按 cron 表达式调度 Sweep，例如 "@every 10m"
func (s *Sweeper) Start(schedule string) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		if _, err := s.Sweep(); err != nil {
			util.Logger.Warn("sweep exports failed", zap.String("dir", s.dir), zap.Error(err))
		}
	}); err != nil {
		return err
	}

	s.cron = c
	c.Start()
	util.Logger.Info("export sweeper started",
		zap.String("dir", s.dir),
		zap.String("schedule", schedule),
		zap.Duration("retention", s.retention))
	return nil
}

// Stop 等待正在执行的任务结束
func (s *Sweeper) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// Sweep 删除修改时间早于 retention 的导出文件，只处理 background-removed-*.png
func (s *Sweeper) Sweep() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := s.now().Add(-s.retention)
	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(s.dir, name)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			util.Logger.Warn("failed to delete export", zap.String("file", path), zap.Error(err))
			continue
		}
		removed++
	}

	if removed > 0 {
		util.Logger.Debug("exports swept", zap.Int("removed", removed))
	}
	return removed, nil
}
