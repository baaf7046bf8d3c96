package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/pelletier/go-toml/v2"
)

// The smallest staging buffer that still holds one quad.
const minCapacity = 6

type ApplicationConfig struct {
	// The application name used in windowing.
	Name string `toml:"name"`
	// Window starting position x axis.
	StartPosX uint32 `toml:"start_pos_x"`
	// Window starting position y axis.
	StartPosY uint32 `toml:"start_pos_y"`
	// Window starting width.
	StartWidth uint32 `toml:"start_width"`
	// Window starting height.
	StartHeight uint32 `toml:"start_height"`
	LogLevel    string `toml:"log_level"`
	VSync       bool   `toml:"vsync"`
	// Frame cap when vsync is off, 0 means uncapped.
	TargetFPS uint32 `toml:"target_fps"`
}

type RendererConfig struct {
	// Staging buffer capacity in vertices.
	Capacity           int    `toml:"capacity"`
	VertexShader       string `toml:"vertex_shader"`
	FragmentShader     string `toml:"fragment_shader"`
	LegacyScaledHeight bool   `toml:"legacy_scaled_height"`
	// Rebuild the sprite program when either shader file changes.
	HotReload bool `toml:"hot_reload"`
}

type AssetsConfig struct {
	Directory string `toml:"directory"`
	Watch     bool   `toml:"watch"`
}

type Config struct {
	Application ApplicationConfig `toml:"application"`
	Renderer    RendererConfig    `toml:"renderer"`
	Assets      AssetsConfig      `toml:"assets"`
}

func Default() *Config {
	return &Config{
		Application: ApplicationConfig{
			Name:        "Anima2D Testbed",
			StartPosX:   100,
			StartPosY:   100,
			StartWidth:  1280,
			StartHeight: 720,
			LogLevel:    "info",
			VSync:       true,
			TargetFPS:   60,
		},
		Renderer: RendererConfig{
			Capacity:       4096,
			VertexShader:   "shaders/sprite.vert",
			FragmentShader: "shaders/sprite.frag",
		},
		Assets: AssetsConfig{
			Directory: "assets",
		},
	}
}

// Load overlays the TOML file at path on top of Default. Unknown keys are
// rejected.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := Default()
	decoder := toml.NewDecoder(f)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("%s: %s", path, strict.String())
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Application.StartWidth == 0 || c.Application.StartHeight == 0 {
		errs = append(errs, fmt.Errorf("application window size %dx%d is empty", c.Application.StartWidth, c.Application.StartHeight))
	}
	if _, err := log.ParseLevel(c.Application.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("application log_level: %w", err))
	}
	if c.Renderer.Capacity < minCapacity {
		errs = append(errs, fmt.Errorf("renderer capacity %d is below %d vertices", c.Renderer.Capacity, minCapacity))
	}
	if c.Renderer.VertexShader == "" || c.Renderer.FragmentShader == "" {
		errs = append(errs, errors.New("renderer shaders must both be set"))
	}
	if c.Assets.Directory == "" {
		errs = append(errs, errors.New("assets directory must be set"))
	}
	return errors.Join(errs...)
}

// Encode writes the configuration back as TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}
