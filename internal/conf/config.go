package conf

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// DefaultConfig 默认配置
func DefaultConfig() Bootstrap {
	return Bootstrap{
		Server: Server{
			HTTP: ServerHTTP{
				Port:    15123,
				Timeout: Duration(60 * time.Second),
				PProf: ServerPPROF{
					AccessIps: []string{"::1", "127.0.0.1"},
				},
			},
		},
		Data: Data{
			Database: Database{
				Dsn:             "configs/data.db",
				MaxIdleConns:    10,
				MaxOpenConns:    50,
				ConnMaxLifetime: Duration(6 * time.Hour),
				SlowThreshold:   Duration(200 * time.Millisecond),
			},
		},
		Curation: Curation{
			BaseFrameRate:       30,
			FrameLimit:          10000,
			AnalysisTimeout:     Duration(5 * time.Minute),
			SessionIdleTimeout:  Duration(2 * time.Hour),
			FailedJobRetainDays: 30,
		},
		Log: Log{
			Level: "info",
		},
	}
}

// SetupConfig 读取配置文件，未配置的字段使用默认值
// 文件不存在时写入默认配置
func SetupConfig(path string) (*Bootstrap, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &cfg, WriteConfig(&cfg, path)
	}
	if err != nil {
		return nil, err
	}
	if err := toml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	cfg.normalize()
	return &cfg, nil
}

// WriteConfig 将配置写回文件
func WriteConfig(cfg *Bootstrap, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func (b *Bootstrap) normalize() {
	def := DefaultConfig()
	if b.Server.HTTP.Port <= 0 {
		b.Server.HTTP.Port = def.Server.HTTP.Port
	}
	if b.Curation.BaseFrameRate <= 0 {
		b.Curation.BaseFrameRate = def.Curation.BaseFrameRate
	}
	if b.Curation.FrameLimit <= 0 {
		b.Curation.FrameLimit = def.Curation.FrameLimit
	}
	if b.Curation.AnalysisTimeout <= 0 {
		b.Curation.AnalysisTimeout = def.Curation.AnalysisTimeout
	}
}
