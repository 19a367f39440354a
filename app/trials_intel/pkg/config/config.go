package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config 项目配置结构体
type Config struct {
	LLM         LLMConfig         `yaml:"llm"`
	Registry    RegistryConfig    `yaml:"registry"`
	Log         LogConfig         `yaml:"log"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	DB          DBConfig          `yaml:"db"`
	Server      ServerConfig      `yaml:"server"`
	Output      OutputConfig      `yaml:"output"`
	Session     SessionConfig     `yaml:"session"`
	Vision      VisionConfig      `yaml:"vision"`
}

// LLMConfig 生成模型相关配置
type LLMConfig struct {
	Provider string `yaml:"provider"` // openai | gemini | anthropic
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	UseMock  bool   `yaml:"use_mock"`
	Timeout  int    `yaml:"timeout"` // 秒
}

// RegistryConfig 临床试验注册中心配置
type RegistryConfig struct {
	BaseURL    string   `yaml:"base_url"`
	Timeout    int      `yaml:"timeout"`
	MaxResults int      `yaml:"max_results"`
	Statuses   []string `yaml:"statuses"`
}

// DBConfig 数据库相关配置，Host 为空时不启用数据库
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ConcurrencyConfig 模型调用节流配置，RPM 为 0 表示不限速
type ConcurrencyConfig struct {
	QPS int `yaml:"qps"`
	RPM int `yaml:"rpm"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr         string `yaml:"addr"`
	Timeout      string `yaml:"timeout"`
	AnalyzeLimit int    `yaml:"analyze_limit"`
}

// OutputConfig 结果文件输出配置
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// SessionConfig 会话缓存配置
type SessionConfig struct {
	MaxEntries int `yaml:"max_entries"`
}

// VisionConfig 图片分析示例所用的文件，仅在线模式读取
type VisionConfig struct {
	SurvivalImage     string `yaml:"survival_image"`
	AdverseEventImage string `yaml:"adverse_event_image"`
	ResultsDocument   string `yaml:"results_document"`
}

const (
	DefaultGeminiBaseURL   = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultModel           = "gemini-2.0-flash"
	DefaultRegistryBaseURL = "https://clinicaltrials.gov/api/v2/studies"
)

// Default 返回默认配置，默认使用 mock 模型
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: "gemini",
			BaseURL:  DefaultGeminiBaseURL,
			Model:    DefaultModel,
			UseMock:  true,
			Timeout:  60,
		},
		Registry: RegistryConfig{
			BaseURL:    DefaultRegistryBaseURL,
			Timeout:    30,
			MaxResults: 20,
			Statuses:   []string{"RECRUITING", "ACTIVE_NOT_RECRUITING", "COMPLETED"},
		},
		Log: LogConfig{Level: "info"},
		Server: ServerConfig{
			Addr:         "0.0.0.0:5000",
			Timeout:      "120s",
			AnalyzeLimit: 5,
		},
		Output:  OutputConfig{Dir: "data/processed"},
		Session: SessionConfig{MaxEntries: 128},
		Vision: VisionConfig{
			SurvivalImage:     "data/raw/demo_survival_curve.png",
			AdverseEventImage: "data/raw/demo_ae_table.png",
			ResultsDocument:   "data/raw/demo_results.pdf",
		},
	}
}

// LoadConfig 从指定路径加载配置，path 为空时只使用默认值和环境变量
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv 环境变量覆盖文件配置
func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv("USE_MOCK_GEMINI"); ok {
		c.LLM.UseMock = strings.EqualFold(strings.TrimSpace(v), "true")
	}
	if v := strings.TrimSpace(os.Getenv("LLM_API_KEY")); v != "" {
		c.LLM.APIKey = v
	} else if v := strings.TrimSpace(os.Getenv("GEMINI_API_KEY")); v != "" {
		c.LLM.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("LLM_MODEL")); v != "" {
		c.LLM.Model = v
	}
	if v := strings.TrimSpace(os.Getenv("LLM_PROVIDER")); v != "" {
		c.LLM.Provider = v
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	if strings.TrimSpace(c.LLM.Model) == "" {
		return fmt.Errorf("配置错误: 未设置 llm.model")
	}
	if !c.LLM.UseMock && strings.TrimSpace(c.LLM.APIKey) == "" {
		return fmt.Errorf("配置错误: 真实模型模式下未设置 llm.api_key")
	}
	if c.Registry.MaxResults <= 0 || c.Registry.MaxResults > 100 {
		return fmt.Errorf("配置错误: registry.max_results 必须在 1-100 之间")
	}
	if c.Concurrency.RPM < 0 || c.Concurrency.QPS < 0 {
		return fmt.Errorf("配置错误: concurrency 不能为负数")
	}
	return nil
}
