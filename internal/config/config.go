// Package config provides configuration management for the capture tool.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"inputhook/internal/mask"
)

const (
	BackendNative = "native"
	BackendReplay = "replay"

	ModeRouted  = "routed"
	ModeGeneric = "generic"
)

// ErrInvalidConfig is returned by Validate
var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the application configuration
type Config struct {
	// Capture selects the event source and delivery mode
	Capture CaptureConfig `json:"capture"`

	// Server configures the WebSocket event stream
	Server ServerConfig `json:"server"`

	// General contains general application settings
	General GeneralConfig `json:"general"`
}

// CaptureConfig selects where events come from and how they are delivered
type CaptureConfig struct {
	// Backend is "native" (OS hook) or "replay" (JSON lines file)
	Backend string `json:"backend"`

	// ReplayFile is the recording played by the replay backend
	ReplayFile string `json:"replay_file,omitempty"`

	// ReplayPaced replays with the recorded gaps between events
	ReplayPaced bool `json:"replay_paced"`

	// Mode is "routed" (per-slot callbacks) or "generic" (single listener)
	Mode string `json:"mode"`

	// EventMask filters the generic listener (e.g. "keyboard|MouseWheel", "0x7FF")
	EventMask string `json:"event_mask,omitempty"`

	// QueueSize is the capacity of the consumer loop queue
	QueueSize int `json:"queue_size"`
}

// ServerConfig configures the remote event streams
type ServerConfig struct {
	// WSEnabled starts the event stream server
	WSEnabled bool `json:"ws_enabled"`

	// WSPort is the port for the server (default: 18090)
	WSPort int `json:"ws_port"`

	// WSToken is an optional authentication token for clients
	WSToken string `json:"ws_token,omitempty"`

	// UDPTargets receive every event as a binary frame (e.g. "192.168.1.20:18091")
	UDPTargets []string `json:"udp_targets,omitempty"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	// LogFile enables a rotating log file in addition to stderr
	LogFile string `json:"log_file,omitempty"`

	// TrayEnabled shows the system tray icon
	TrayEnabled bool `json:"tray_enabled"`

	// StopHotkey stops capture and exits (e.g. "Ctrl+Alt+Shift+Q")
	StopHotkey string `json:"stop_hotkey,omitempty"`

	// PrintEvents writes every delivered event to stdout
	PrintEvents bool `json:"print_events"`
}

// DefaultConfig returns a new Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Capture: CaptureConfig{
			Backend:   BackendNative,
			Mode:      ModeRouted,
			EventMask: "all",
			QueueSize: 1024,
		},
		Server: ServerConfig{
			WSEnabled: false,
			WSPort:    18090,
		},
		General: GeneralConfig{
			TrayEnabled: false,
			StopHotkey:  "Ctrl+Alt+Shift+Q",
			PrintEvents: true,
		},
	}
}

// Validate checks the configuration for values the tool cannot run with
func (c *Config) Validate() error {
	switch c.Capture.Backend {
	case BackendNative:
	case BackendReplay:
		if c.Capture.ReplayFile == "" {
			return fmt.Errorf("%w: replay backend needs replay_file", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, c.Capture.Backend)
	}

	switch c.Capture.Mode {
	case ModeRouted, ModeGeneric:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, c.Capture.Mode)
	}

	if _, err := c.Mask(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Capture.QueueSize < 0 {
		return fmt.Errorf("%w: negative queue_size", ErrInvalidConfig)
	}
	if c.Server.WSEnabled && (c.Server.WSPort <= 0 || c.Server.WSPort > 65535) {
		return fmt.Errorf("%w: ws_port %d out of range", ErrInvalidConfig, c.Server.WSPort)
	}
	return nil
}

// Mask parses EventMask. An empty string selects every category.
func (c *Config) Mask() (mask.Mask, error) {
	if c.Capture.EventMask == "" {
		return mask.All, nil
	}
	return mask.Parse(c.Capture.EventMask)
}

// Manager handles loading and saving configuration
type Manager struct {
	mu         sync.Mutex
	configPath string
	config     *Config
	onChanged  func()
}

// NewManager creates a configuration manager for the per-user config file
func NewManager() (*Manager, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return NewManagerAt(configPath), nil
}

// NewManagerAt creates a configuration manager for the given file
func NewManagerAt(path string) *Manager {
	return &Manager{
		configPath: path,
		config:     DefaultConfig(),
	}
}

// Path returns the configuration file path
func (m *Manager) Path() string {
	return m.configPath
}

// getConfigPath returns the path to the configuration file
func getConfigPath() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "inputhook")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		configDir = filepath.Join(appData, "inputhook")
	default:
		dir, err := os.UserConfigDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(dir, "inputhook")
	}

	return filepath.Join(configDir, "config.json"), nil
}

// Load reads the configuration from disk. A missing file keeps the defaults.
func (m *Manager) Load() error {
	m.mu.Lock()
	data, err := os.ReadFile(m.configPath)
	if os.IsNotExist(err) {
		m.mu.Unlock()
		return nil
	}
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("failed to parse config %s: %w", m.configPath, err)
	}
	if err := cfg.Validate(); err != nil {
		m.mu.Unlock()
		return err
	}
	m.config = cfg
	onChanged := m.onChanged
	m.mu.Unlock()

	log.Printf("Config: Loaded %s", m.configPath)
	if onChanged != nil {
		onChanged()
	}
	return nil
}

// LoadOrCreate loads the configuration file, first writing the defaults to it
// when it does not exist yet. created reports whether the file was written.
func (m *Manager) LoadOrCreate() (created bool, err error) {
	if _, err := os.Stat(m.configPath); os.IsNotExist(err) {
		if err := m.Save(); err != nil {
			return false, fmt.Errorf("failed to create config: %w", err)
		}
		log.Printf("Config: Created default configuration at %s", m.Path())
		return true, nil
	}
	return false, m.Load()
}

// Save writes the configuration to disk
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(m.configPath), 0755); err != nil {
		return err
	}

	log.Printf("Config: Saving configuration to %s (%d bytes)", m.configPath, len(data))
	return os.WriteFile(m.configPath, data, 0644)
}

// Get returns a copy of the current configuration
func (m *Manager) Get() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.config
}

// Set validates and replaces the configuration
func (m *Manager) Set(config Config) error {
	if err := config.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	m.config = &config
	onChanged := m.onChanged
	m.mu.Unlock()
	if onChanged != nil {
		onChanged()
	}
	return nil
}

// RegisterChangeCallback registers a function to be called when config changes
func (m *Manager) RegisterChangeCallback(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChanged = fn
}
