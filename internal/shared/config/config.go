package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Mode selects the text policy for the generation pipeline.
const (
	ModeInvitation     = "invitation"     // synthesize the caller's text verbatim
	ModeConversational = "conversational" // LLM reply + TTS-safe rewrite
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Media    MediaConfig    `mapstructure:"media"`
	LipSync  LipSyncConfig  `mapstructure:"lipsync"`
	TTS      TTSConfig      `mapstructure:"tts"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Avatars  []AvatarConfig `mapstructure:"avatars"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	Mode         string        `mapstructure:"mode"` // invitation or conversational
	IndexFile    string        `mapstructure:"index_file"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// StorageConfig holds the scratch and asset directory layout.
type StorageConfig struct {
	UploadsDir string `mapstructure:"uploads_dir"`
	TempDir    string `mapstructure:"temp_dir"`
	OutputsDir string `mapstructure:"outputs_dir"`
	InputsDir  string `mapstructure:"inputs_dir"` // avatar images and reference clips

	// ReferenceClip is the fixed fallback face used when a request names no
	// other source. Empty disables the fallback.
	ReferenceClip string `mapstructure:"reference_clip"`
}

// MediaConfig holds the external media tool configuration.
type MediaConfig struct {
	FFmpegPath      string        `mapstructure:"ffmpeg_path"`
	Width           int           `mapstructure:"width"`
	Height          int           `mapstructure:"height"`
	FrameRate       int           `mapstructure:"frame_rate"`
	DefaultDuration time.Duration `mapstructure:"default_duration"`
}

// LipSyncConfig holds the external inference engine configuration.
type LipSyncConfig struct {
	PythonPath     string `mapstructure:"python_path"`
	ScriptPath     string `mapstructure:"script_path"`
	CheckpointPath string `mapstructure:"checkpoint_path"`
}

// TTSConfig holds the text-to-speech collaborator configuration.
type TTSConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	APIKey       string        `mapstructure:"api_key"`
	Language     string        `mapstructure:"language"`
	DefaultVoice string        `mapstructure:"default_voice"`
	MaleVoice    string        `mapstructure:"male_voice"`
	FemaleVoice  string        `mapstructure:"female_voice"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// LLMConfig holds the text-completion collaborator configuration.
// Only used in conversational mode.
type LLMConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// PipelineConfig holds pipeline execution configuration.
type PipelineConfig struct {
	MaxConcurrent int `mapstructure:"max_concurrent"`
}

// AvatarConfig is one entry of the static avatar table.
type AvatarConfig struct {
	ID      string `mapstructure:"id"`
	Image   string `mapstructure:"image"`
	Speaker string `mapstructure:"speaker"`
}

// Load loads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Set config file name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/facecast")

	// Set defaults
	setDefaults(v)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file not found, use defaults and env
	}

	// Read from environment variables
	v.SetEnvPrefix("FACECAST")
	v.AutomaticEnv()

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	switch c.Server.Mode {
	case ModeInvitation, ModeConversational:
	default:
		return fmt.Errorf("invalid server mode %q", c.Server.Mode)
	}

	if c.Server.Mode == ModeConversational && c.LLM.APIKey == "" {
		return fmt.Errorf("conversational mode requires llm.api_key")
	}

	if c.TTS.APIKey == "" {
		return fmt.Errorf("tts.api_key is required")
	}

	if c.Media.Width <= 0 || c.Media.Height <= 0 || c.Media.FrameRate <= 0 {
		return fmt.Errorf("invalid media profile %dx%d@%d", c.Media.Width, c.Media.Height, c.Media.FrameRate)
	}

	if c.Pipeline.MaxConcurrent <= 0 {
		return fmt.Errorf("pipeline.max_concurrent must be positive")
	}

	seen := make(map[string]bool, len(c.Avatars))
	for _, a := range c.Avatars {
		if a.ID == "" || a.Image == "" || a.Speaker == "" {
			return fmt.Errorf("avatar entry %+v is incomplete", a)
		}
		if seen[a.ID] {
			return fmt.Errorf("duplicate avatar id %q", a.ID)
		}
		seen[a.ID] = true
	}

	return nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.mode", ModeInvitation)
	v.SetDefault("server.index_file", "web/index.html")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Storage defaults
	v.SetDefault("storage.uploads_dir", "data/uploads")
	v.SetDefault("storage.temp_dir", "data/temp")
	v.SetDefault("storage.outputs_dir", "data/outputs")
	v.SetDefault("storage.inputs_dir", "data/inputs")

	// Media defaults
	v.SetDefault("media.ffmpeg_path", "ffmpeg")
	v.SetDefault("media.width", 1280)
	v.SetDefault("media.height", 720)
	v.SetDefault("media.frame_rate", 25)
	v.SetDefault("media.default_duration", "5s")

	// LipSync defaults
	v.SetDefault("lipsync.python_path", "python3")
	v.SetDefault("lipsync.script_path", "inference_onnxModel.py")
	v.SetDefault("lipsync.checkpoint_path", "checkpoints/wav2lip_gan.onnx")

	// TTS defaults
	v.SetDefault("tts.base_url", "https://api.sarvam.ai")
	v.SetDefault("tts.language", "en-IN")
	v.SetDefault("tts.default_voice", "anushka")
	v.SetDefault("tts.male_voice", "abhilash")
	v.SetDefault("tts.female_voice", "manisha")
	v.SetDefault("tts.timeout", "60s")

	// LLM defaults
	v.SetDefault("llm.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("llm.model", "llama-3.1-8b-instant")
	v.SetDefault("llm.timeout", "30s")

	// Pipeline defaults
	v.SetDefault("pipeline.max_concurrent", 2)
}
