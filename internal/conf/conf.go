package conf

import "time"

// Bootstrap 全局配置
type Bootstrap struct {
	Server   Server   `toml:"Server"`
	Data     Data     `toml:"Data"`
	Curation Curation `toml:"Curation"`
	Log      Log      `toml:"Log"`

	BuildVersion string `toml:"-"` // 编译版本号，由 main 注入
}

// Server 服务配置
type Server struct {
	Debug bool       `toml:"Debug" comment:"调试模式，开启后输出 gin 路由日志"`
	HTTP  ServerHTTP `toml:"HTTP"`
}

// ServerHTTP HTTP 服务
type ServerHTTP struct {
	Port         int         `toml:"Port" comment:"监听端口"`
	Timeout      Duration    `toml:"Timeout" comment:"请求读写超时"`
	PProf        ServerPPROF `toml:"PProf"`
	AllowOrigins []string    `toml:"AllowOrigins" comment:"跨域白名单，为空时允许所有来源"`
}

// ServerPPROF 性能分析
type ServerPPROF struct {
	Enabled   bool     `toml:"Enabled"`
	AccessIps []string `toml:"AccessIps" comment:"允许访问的 IP"`
}

// Data 数据存储
type Data struct {
	Database Database `toml:"Database"`
}

// Database 数据库连接，dsn 以 postgres/mysql 开头时使用对应驱动，否则为 sqlite 文件路径
type Database struct {
	Dsn             string   `toml:"Dsn"`
	MaxIdleConns    int32    `toml:"MaxIdleConns"`
	MaxOpenConns    int32    `toml:"MaxOpenConns"`
	ConnMaxLifetime Duration `toml:"ConnMaxLifetime"`
	SlowThreshold   Duration `toml:"SlowThreshold" comment:"慢查询阈值"`
}

// Curation 审核会话与多样性分析服务
type Curation struct {
	BaseFrameRate       float64  `toml:"BaseFrameRate" comment:"播放基准帧率，1x 时每秒帧数"`
	FrameLimit          int      `toml:"FrameLimit" comment:"单个会话最多加载的帧数"`
	AnalysisAddr        string   `toml:"AnalysisAddr" comment:"多样性分析 gRPC 服务地址，为空时禁用"`
	AnalysisTimeout     Duration `toml:"AnalysisTimeout" comment:"单次分析超时"`
	SessionIdleTimeout  Duration `toml:"SessionIdleTimeout" comment:"会话空闲超过该时长自动关闭，0 表示不清理"`
	FailedJobRetainDays int      `toml:"FailedJobRetainDays" comment:"失败任务保留天数，0 表示不清理"`
}

// Log 日志
type Log struct {
	Level string `toml:"Level" comment:"debug | info | warn | error"`
	Dir   string `toml:"Dir" comment:"日志目录，为空时输出到标准输出"`
}

// Duration 以字符串形式存储的时长，例如 "30s"
type Duration time.Duration

// Duration 转为 time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}
